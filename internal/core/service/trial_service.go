package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// TrialService implements the trial validation and mutation pipeline.
type TrialService struct {
	trials ports.TrialRepository
	audit  ports.AuditRepository
	log    zerolog.Logger
}

func NewTrialService(trials ports.TrialRepository, audit ports.AuditRepository, log zerolog.Logger) *TrialService {
	return &TrialService{trials: trials, audit: audit, log: log}
}

// Create validates a full payload, checks trialId uniqueness and persists
// the record with the acting user as creator and last modifier.
func (s *TrialService) Create(ctx context.Context, input ports.CreateTrialInput, actor ports.Actor) (*domain.ClinicalTrial, error) {
	now := time.Now().UTC()

	var violations []string
	var startDate, endDate time.Time
	startDate, violations = parseDateField("startDate", input.StartDate, true, violations)
	endDate, violations = parseDateField("endDate", input.EndDate, true, violations)

	status := domain.StatusPlanning
	if input.Status != "" {
		status = domain.TrialStatus(input.Status)
	}

	actual := 0
	if input.ActualEnrollment != nil {
		actual = *input.ActualEnrollment
	}

	trial := &domain.ClinicalTrial{
		TrialID:               NormalizeTrialID(input.TrialID),
		Name:                  input.Name,
		Description:           input.Description,
		PrincipalInvestigator: input.PrincipalInvestigator,
		Sponsor:               input.Sponsor,
		TherapeuticArea:       input.TherapeuticArea,
		DrugName:              input.DrugName,
		Phase:                 domain.TrialPhase(input.Phase),
		Status:                status,
		StartDate:             startDate,
		EndDate:               endDate,
		EstimatedEnrollment:   input.EstimatedEnrollment,
		ActualEnrollment:      actual,
		SecondaryEndpoints:    input.SecondaryEndpoints,
		InclusionCriteria:     input.InclusionCriteria,
		ExclusionCriteria:     input.ExclusionCriteria,
		StudyLocations:        input.StudyLocations,
		Notes:                 stampNotes(input.Notes, actor.ID, now),
		CreatedBy:             actor.ID,
		LastModifiedBy:        actor.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	violations = append(violations, validateTrialFields(trial)...)
	violations = append(violations, validateTrialCrossField(trial)...)
	if len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}

	// Advisory pre-check; the unique index is authoritative for races.
	if err := s.checkTrialIDUniqueness(ctx, trial.TrialID, ""); err != nil {
		return nil, err
	}

	created, err := s.trials.Insert(ctx, trial)
	if err != nil {
		s.log.Error().Err(err).Str("trial_id", trial.TrialID).Msg("failed to create trial")
		return nil, err
	}

	s.recordAudit(ctx, domain.AuditCreate, created, actor)
	s.log.Info().Str("trial_id", created.TrialID).Str("created_by", actor.ID).Msg("trial created")
	return created, nil
}

// Get loads a trial by document id, enforcing owner-or-admin access.
func (s *TrialService) Get(ctx context.Context, id string, actor ports.Actor) (*domain.ClinicalTrial, error) {
	trial, err := s.trials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(actor.Role, trial.CreatedBy, actor.ID) {
		return nil, domain.ErrForbidden
	}
	return trial, nil
}

// List returns one page of trials. Non-admin actors are implicitly scoped
// to records they own regardless of the filters supplied.
func (s *TrialService) List(ctx context.Context, input ports.ListTrialsInput) (*ports.ListTrialsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	ownerID := input.Actor.ID
	if input.Actor.Role == domain.RoleAdmin {
		ownerID = ""
	}

	trials, total, err := s.trials.List(ctx, ports.ListTrialsFilter{
		OwnerID:         ownerID,
		Status:          input.Status,
		Phase:           input.Phase,
		TherapeuticArea: input.TherapeuticArea,
		Search:          input.Search,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list trials")
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListTrialsResult{
		Trials: trials,
		Pagination: ports.Pagination{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNextPage: page < totalPages,
			HasPrevPage: page > 1,
		},
	}, nil
}

// Update merges a partial payload onto the stored record and re-validates
// the complete result. Validating only the delta would silently accept an
// update that pushes actualEnrollment past a shrunken estimatedEnrollment,
// or a date pair that was never jointly checked.
func (s *TrialService) Update(ctx context.Context, id string, input ports.UpdateTrialInput, actor ports.Actor) (*domain.ClinicalTrial, error) {
	existing, err := s.trials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(actor.Role, existing.CreatedBy, actor.ID) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	merged := *existing
	var violations []string

	if input.TrialID != nil {
		merged.TrialID = NormalizeTrialID(*input.TrialID)
	}
	if input.Name != nil {
		merged.Name = *input.Name
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	if input.PrincipalInvestigator != nil {
		merged.PrincipalInvestigator = *input.PrincipalInvestigator
	}
	if input.Sponsor != nil {
		merged.Sponsor = *input.Sponsor
	}
	if input.TherapeuticArea != nil {
		merged.TherapeuticArea = *input.TherapeuticArea
	}
	if input.DrugName != nil {
		merged.DrugName = *input.DrugName
	}
	if input.Phase != nil {
		merged.Phase = domain.TrialPhase(*input.Phase)
	}
	if input.Status != nil {
		merged.Status = domain.TrialStatus(*input.Status)
	}
	if input.StartDate != nil {
		merged.StartDate, violations = parseDateField("startDate", *input.StartDate, true, violations)
	}
	if input.EndDate != nil {
		merged.EndDate, violations = parseDateField("endDate", *input.EndDate, true, violations)
	}
	if input.EstimatedEnrollment != nil {
		merged.EstimatedEnrollment = *input.EstimatedEnrollment
	}
	if input.ActualEnrollment != nil {
		merged.ActualEnrollment = *input.ActualEnrollment
	}
	if input.SecondaryEndpoints != nil {
		merged.SecondaryEndpoints = input.SecondaryEndpoints
	}
	if input.InclusionCriteria != nil {
		merged.InclusionCriteria = input.InclusionCriteria
	}
	if input.ExclusionCriteria != nil {
		merged.ExclusionCriteria = input.ExclusionCriteria
	}
	if input.StudyLocations != nil {
		merged.StudyLocations = input.StudyLocations
	}
	if len(input.Notes) > 0 {
		merged.Notes = append(append([]domain.Note{}, existing.Notes...), stampNotes(input.Notes, actor.ID, now)...)
	}

	violations = append(violations, validateTrialFields(&merged)...)
	violations = append(violations, validateTrialCrossField(&merged)...)
	if len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}

	if merged.TrialID != existing.TrialID {
		if err := s.checkTrialIDUniqueness(ctx, merged.TrialID, existing.ID); err != nil {
			return nil, err
		}
	}

	merged.LastModifiedBy = actor.ID
	merged.UpdatedAt = now

	if err := s.trials.Replace(ctx, &merged); err != nil {
		s.log.Error().Err(err).Str("trial_id", merged.TrialID).Msg("failed to update trial")
		return nil, err
	}

	s.recordAudit(ctx, domain.AuditUpdate, &merged, actor)
	s.log.Info().Str("trial_id", merged.TrialID).Str("modified_by", actor.ID).Msg("trial updated")
	return &merged, nil
}

// Delete removes a trial after the same owner-or-admin gate.
func (s *TrialService) Delete(ctx context.Context, id string, actor ports.Actor) error {
	trial, err := s.trials.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanAccess(actor.Role, trial.CreatedBy, actor.ID) {
		return domain.ErrForbidden
	}

	if err := s.trials.Delete(ctx, trial.ID); err != nil {
		s.log.Error().Err(err).Str("trial_id", trial.TrialID).Msg("failed to delete trial")
		return err
	}

	s.recordAudit(ctx, domain.AuditDelete, trial, actor)
	s.log.Info().Str("trial_id", trial.TrialID).Str("deleted_by", actor.ID).Msg("trial deleted")
	return nil
}

// checkTrialIDUniqueness fails with ErrDuplicateTrialID when another record
// (excluding excludeID) already carries the normalized trial id.
func (s *TrialService) checkTrialIDUniqueness(ctx context.Context, trialID, excludeID string) error {
	other, err := s.trials.FindByTrialID(ctx, trialID)
	if err != nil {
		if errors.Is(err, domain.ErrTrialNotFound) {
			return nil
		}
		return err
	}
	if other.ID != excludeID {
		return domain.ErrDuplicateTrialID
	}
	return nil
}

func (s *TrialService) recordAudit(ctx context.Context, action domain.AuditAction, trial *domain.ClinicalTrial, actor ports.Actor) {
	entry := &domain.AuditEntry{
		Action:    action,
		RecordID:  trial.ID,
		TrialID:   trial.TrialID,
		ActorID:   actor.ID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("trial_id", trial.TrialID).Msg("failed to insert audit entry")
	}
}

func stampNotes(contents []string, actorID string, at time.Time) []domain.Note {
	if len(contents) == 0 {
		return nil
	}
	notes := make([]domain.Note, 0, len(contents))
	for _, c := range contents {
		if c == "" {
			continue
		}
		notes = append(notes, domain.Note{Content: c, CreatedBy: actorID, CreatedAt: at})
	}
	return notes
}
