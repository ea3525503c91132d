package domain

import (
	"context"
	"time"

	"github.com/dukerupert/usps/internal/address"
	"github.com/google/uuid"
)

// =============================================================================
// VERIFICATION DOMAIN TYPES
// =============================================================================

// Verification is the audit record of one verify call.
type Verification struct {
	ID uuid.UUID `json:"id" yaml:"id"`

	// Input is the address as submitted, before standardization.
	Input *address.Address `json:"input" yaml:"input"`

	// Standardized is the resolver's output. Nil when the call failed.
	Standardized *address.Address `json:"standardized,omitempty" yaml:"standardized,omitempty"`

	Verdict address.Verdict `json:"verdict" yaml:"verdict"`

	// Error holds the resolver failure, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// VerificationEvent is published after every completed verification.
type VerificationEvent struct {
	ID         uuid.UUID    `json:"id"`
	Valid      *bool        `json:"valid"`
	Message    string       `json:"message"`
	Zip        string       `json:"zip,omitempty"`
	State      string       `json:"state,omitempty"`
	VerifiedAt time.Time    `json:"verified_at"`
	Info       address.Info `json:"additional_info,omitempty"`
}

// NewVerificationEvent summarizes v for subscribers.
func NewVerificationEvent(v *Verification) VerificationEvent {
	ev := VerificationEvent{
		ID:         v.ID,
		Valid:      v.Verdict.Valid,
		Message:    v.Verdict.Message,
		VerifiedAt: v.CreatedAt,
	}
	if v.Standardized != nil {
		ev.Zip = v.Standardized.Zip()
		if v.Standardized.State != nil {
			ev.State = *v.Standardized.State
		}
		ev.Info = v.Standardized.AdditionalInfo.Clone()
	}
	return ev
}

// VerificationStore persists verification records.
type VerificationStore interface {
	// Create stores v. It fills in ID and CreatedAt when they are zero.
	Create(ctx context.Context, v *Verification) error

	// Get returns the record with id, or an ENOTFOUND error.
	Get(ctx context.Context, id uuid.UUID) (*Verification, error)

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Verification, error)
}
