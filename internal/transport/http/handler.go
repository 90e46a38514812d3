package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quizrank-service/internal/app"
	"quizrank-service/internal/domain"
	"quizrank-service/internal/export"
)

const errNoRanking = "participant has no ranking"

// Handler exposes the quiz use cases over REST.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// NewRouter wires the REST routes, the websocket endpoint and the health check.
func NewRouter(service *app.QuizService) *mux.Router {
	h := NewHandler(service)
	ws := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quizzes/{quizID}/questions", h.quizQuestions).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/attempts", h.submitAttempt).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{attemptID}", h.getAttempt).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{attemptID}", h.deleteAttempt).Methods(http.MethodDelete)

	lb := api.PathPrefix("/leaderboard").Subrouter()
	lb.HandleFunc("", h.leaderboard(func(*http.Request) app.Scope { return app.GlobalScope() })).Methods(http.MethodGet)
	lb.HandleFunc("/quiz/{quizID}", h.leaderboard(func(r *http.Request) app.Scope { return app.QuizScope(mux.Vars(r)["quizID"]) })).Methods(http.MethodGet)
	lb.HandleFunc("/weekly", h.leaderboard(func(*http.Request) app.Scope { return app.WindowScope(7) })).Methods(http.MethodGet)
	lb.HandleFunc("/monthly", h.leaderboard(func(*http.Request) app.Scope { return app.WindowScope(30) })).Methods(http.MethodGet)
	lb.HandleFunc("/recent", h.recentLeaderboard).Methods(http.MethodGet)
	lb.HandleFunc("/top-performers", h.topPerformers).Methods(http.MethodGet)
	lb.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	lb.HandleFunc("/export", h.exportLeaderboard).Methods(http.MethodGet)

	p := api.PathPrefix("/participants/{username}").Subrouter()
	p.HandleFunc("/ranking", h.personalRanking).Methods(http.MethodGet)
	p.HandleFunc("/rankings", h.myRankings).Methods(http.MethodGet)
	p.HandleFunc("/history", h.history).Methods(http.MethodGet)
	p.HandleFunc("/history/summary", h.historySummary).Methods(http.MethodGet)
	p.HandleFunc("/stats", h.participantStats).Methods(http.MethodGet)
	p.HandleFunc("/attempts", h.purgeParticipant).Methods(http.MethodDelete)

	api.HandleFunc("/reports/activity", h.activityReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/performance", h.performanceReport).Methods(http.MethodGet)
	return r
}

type submitRequest struct {
	Username       string                      `json:"username"`
	Answers        map[string]domain.OptionTag `json:"answers"`
	ElapsedSeconds int                         `json:"elapsedSeconds"`
}

func (h *Handler) quizQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.QuizQuestions(r.Context(), mux.Vars(r)["quizID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", domain.ErrInvalidInput))
		return
	}
	res, err := h.service.SubmitAttempt(r.Context(), domain.Submission{
		QuizID:         mux.Vars(r)["quizID"],
		Username:       req.Username,
		Answers:        req.Answers,
		ElapsedSeconds: req.ElapsedSeconds,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Attempt(r.Context(), mux.Vars(r)["attemptID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAttempt(r.Context(), mux.Vars(r)["attemptID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaderboard(scope func(*http.Request) app.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err := h.service.Leaderboard(r.Context(), scope(r), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (h *Handler) recentLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.service.RecentLeaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) topPerformers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.service.TopPerformers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.LeaderboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) personalRanking(w http.ResponseWriter, r *http.Request) {
	entry, found, err := h.service.PersonalRanking(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": errNoRanking})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) myRankings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.MyRankings(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) historySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.HistorySummary(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) participantStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ParticipantStats(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) purgeParticipant(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.PurgeParticipant(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removedAttempts": removed})
}

// activityReport serves JSON unless format=xlsx|csv is given. days restricts
// the report to the trailing window.
func (h *Handler) activityReport(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, err)
		return
	}
	var rows []domain.ActivityRow
	if r.URL.Query().Has("days") {
		rows, err = h.service.RecentActivityReport(r.Context(), days)
	} else {
		rows, err = h.service.ActivityReport(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "" {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	writeTable(w, r, "activity-report", export.ActivityTable(rows))
}

func (h *Handler) performanceReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PerformanceReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "" {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	writeTable(w, r, "performance-report", export.PerformanceTable(rows))
}

func (h *Handler) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	scope := app.GlobalScope()
	if quizID := r.URL.Query().Get("quizId"); quizID != "" {
		scope = app.QuizScope(quizID)
	}
	entries, err := h.service.Leaderboard(r.Context(), scope, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, "leaderboard", export.LeaderboardTable(entries))
}

func writeTable(w http.ResponseWriter, r *http.Request, name string, table export.Table) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+string(format)))
	if err := export.Write(w, format, table); err != nil {
		log.Printf("http: export %s: %v", name, err)
		return
	}
	log.Printf("http: exported %s (%d rows, %s)", name, len(table.Rows), format)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		log.Printf("http: internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
