package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"quizrank-service/internal/domain"
)

// Format selects the spreadsheet encoding of a download.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat defaults to xlsx.
func ParseFormat(raw string) (Format, error) {
	switch raw {
	case "", string(FormatXLSX):
		return FormatXLSX, nil
	case string(FormatCSV):
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, raw)
	}
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Table is a sheet: a header row plus data rows.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

func ActivityTable(rows []domain.ActivityRow) Table {
	t := Table{
		Sheet:   "Activity",
		Headers: []string{"Participant", "Attempts", "Total score", "Average score", "Last activity"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			sanitizeForExcel(r.ParticipantName), r.Attempts, r.TotalScore, round2(r.AverageScore), r.LastActivity.UTC().Format(time.RFC3339),
		})
	}
	return t
}

func PerformanceTable(rows []domain.PerformanceRow) Table {
	t := Table{
		Sheet:   "Performance",
		Headers: []string{"Quiz", "Attempts", "Average score", "Highest score", "Lowest score"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			sanitizeForExcel(r.QuizTitle), r.Attempts, round2(r.AverageScore), r.HighestScore, r.LowestScore,
		})
	}
	return t
}

func LeaderboardTable(entries []domain.LeaderboardEntry) Table {
	t := Table{
		Sheet:   "Leaderboard",
		Headers: []string{"Rank", "Participant", "Quiz", "Score", "Percentage", "Attempts"},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []interface{}{
			e.Rank, sanitizeForExcel(e.ParticipantName), sanitizeForExcel(e.QuizTitle), round2(e.Score), round2(e.Percentage), e.TotalAttempts,
		})
	}
	return t
}

// Write encodes t to w in the given format.
func Write(w io.Writer, format Format, t Table) error {
	if format == FormatCSV {
		return writeCSV(w, t)
	}
	return writeXLSX(w, t)
}

// writeXLSX streams rows so large reports are not held as a cell map.
func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("export: close workbook: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", t.Sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(t.Sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := make([]interface{}, 0, len(t.Headers))
	for _, h := range t.Headers {
		headers = append(headers, h)
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

func writeCSV(w io.Writer, t Table) error {
	// BOM so spreadsheet apps pick UTF-8.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	record := make([]string, 0, len(t.Headers))
	for _, row := range t.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, formatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sanitizeForExcel guards against formula injection in exported text.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
