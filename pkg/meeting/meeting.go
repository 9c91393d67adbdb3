// Package meeting defines the meeting record contract enforced by the CRUD
// layer around the scheduling engine. The engine itself never re-validates
// these bounds; they document the ranges it was designed against
// (15-480 minute durations, at most 50 participants).
package meeting

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// MinDurationMinutes is the shortest schedulable meeting.
	MinDurationMinutes = 15
	// MaxDurationMinutes is the longest schedulable meeting (8 hours).
	MaxDurationMinutes = 480
	// MaxParticipants is the per-meeting participant ceiling.
	MaxParticipants = 50
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Meeting is a persistable meeting record. ProposedTime is always UTC.
type Meeting struct {
	ProposedTime    time.Time   `json:"proposed_time" validate:"required"`
	Title           string      `json:"title" validate:"required,max=200"`
	Notes           string      `json:"notes,omitempty" validate:"max=2000"`
	ID              uuid.UUID   `json:"id" validate:"required"`
	ParticipantIDs  []uuid.UUID `json:"participant_ids" validate:"required,min=1,max=50"`
	DurationMinutes int         `json:"duration_minutes" validate:"required,min=15,max=480"`
}

// New builds a meeting record with a fresh identifier and the proposed
// time normalized to UTC.
func New(title string, proposedTime time.Time, durationMinutes int, participantIDs []uuid.UUID) Meeting {
	return Meeting{
		ID:              uuid.New(),
		Title:           title,
		ProposedTime:    proposedTime.UTC(),
		DurationMinutes: durationMinutes,
		ParticipantIDs:  participantIDs,
	}
}

// Validate checks the record against the CRUD-layer bounds.
func Validate(m Meeting) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid meeting record: %w", err)
	}
	return nil
}
