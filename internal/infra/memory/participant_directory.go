package memory

import (
	"context"

	"quizrank-service/internal/domain"
)

// ParticipantDirectory resolves usernames from a fixed set (tests/demos).
type ParticipantDirectory struct {
	byUsername map[string]domain.Participant
}

func NewParticipantDirectory(participants ...domain.Participant) *ParticipantDirectory {
	d := &ParticipantDirectory{byUsername: make(map[string]domain.Participant, len(participants))}
	for _, p := range participants {
		d.byUsername[p.Username] = p
	}
	return d
}

func (d *ParticipantDirectory) ResolveParticipant(_ context.Context, username string) (domain.Participant, error) {
	if p, ok := d.byUsername[username]; ok {
		return p, nil
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}
