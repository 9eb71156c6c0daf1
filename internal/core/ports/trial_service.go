package ports

import (
	"context"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

// Actor is the opaque caller identity every trial operation receives.
// It is resolved once from the session by the transport layer; the
// service never consults ambient session state.
type Actor struct {
	ID   string
	Role domain.Role
}

// CreateTrialInput carries a full trial payload. Dates arrive as strings
// so the validation pipeline can report unparseable values alongside
// every other field violation.
type CreateTrialInput struct {
	TrialID               string
	Name                  string
	Description           string
	PrincipalInvestigator string
	Sponsor               string
	TherapeuticArea       string
	DrugName              string
	Phase                 string
	Status                string // defaults to Planning when empty
	StartDate             string
	EndDate               string
	EstimatedEnrollment   int
	ActualEnrollment      *int
	SecondaryEndpoints    []string
	InclusionCriteria     []string
	ExclusionCriteria     []string
	StudyLocations        []string
	Notes                 []string
}

// UpdateTrialInput is a partial payload: nil fields keep the stored
// value. Notes entries are appended, stamped with the acting user.
type UpdateTrialInput struct {
	TrialID               *string
	Name                  *string
	Description           *string
	PrincipalInvestigator *string
	Sponsor               *string
	TherapeuticArea       *string
	DrugName              *string
	Phase                 *string
	Status                *string
	StartDate             *string
	EndDate               *string
	EstimatedEnrollment   *int
	ActualEnrollment      *int
	SecondaryEndpoints    []string
	InclusionCriteria     []string
	ExclusionCriteria     []string
	StudyLocations        []string
	Notes                 []string
}

// ListTrialsInput carries all parameters for the list endpoint.
type ListTrialsInput struct {
	Actor           Actor
	Status          string
	Phase           string
	TherapeuticArea string
	Search          string
	Page            int
	Limit           int
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// ListTrialsResult is returned by List.
type ListTrialsResult struct {
	Trials     []*domain.ClinicalTrial
	Pagination Pagination
}

// TrialService defines the use-case operations over clinical trials.
// Every mutation re-validates the complete record, not just the delta.
type TrialService interface {
	Create(ctx context.Context, input CreateTrialInput, actor Actor) (*domain.ClinicalTrial, error)
	Get(ctx context.Context, id string, actor Actor) (*domain.ClinicalTrial, error)
	List(ctx context.Context, input ListTrialsInput) (*ListTrialsResult, error)
	Update(ctx context.Context, id string, input UpdateTrialInput, actor Actor) (*domain.ClinicalTrial, error)
	Delete(ctx context.Context, id string, actor Actor) error
}
