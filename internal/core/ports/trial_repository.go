package ports

import (
	"context"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

// ListTrialsFilter carries all query parameters for listing trials.
// OwnerID is always enforced by the service layer for non-admin actors.
type ListTrialsFilter struct {
	OwnerID         string // empty = no owner filter (admin); non-empty = scoped to owner
	Status          string // optional: filter by trial status
	Phase           string // optional: filter by trial phase
	TherapeuticArea string // optional: filter by therapeutic area
	Search          string // optional: case-insensitive substring across the descriptive fields
	Page            int    // 1-based
	Limit           int    // rows per page (capped at 100 by the service)
}

// TrialRepository defines persistence operations for clinical trials.
// Uniqueness of TrialID is ultimately enforced by the store's unique
// index; Insert and Replace translate the store's duplicate-key failure
// into domain.ErrDuplicateTrialID.
type TrialRepository interface {
	Insert(ctx context.Context, t *domain.ClinicalTrial) (*domain.ClinicalTrial, error)
	// FindByID fails with domain.ErrInvalidID when id is not a well-formed
	// document id, and domain.ErrTrialNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*domain.ClinicalTrial, error)
	// FindByTrialID looks a trial up by its normalized business identifier.
	FindByTrialID(ctx context.Context, trialID string) (*domain.ClinicalTrial, error)
	// List returns one page of trials matching filter plus the total count.
	List(ctx context.Context, filter ListTrialsFilter) ([]*domain.ClinicalTrial, int64, error)
	Replace(ctx context.Context, t *domain.ClinicalTrial) error
	Delete(ctx context.Context, id string) error
}

// AuditRepository records trial mutations. Writes are best-effort; a
// failed audit insert never fails the mutation it describes.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}
