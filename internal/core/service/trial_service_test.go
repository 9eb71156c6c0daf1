package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubTrialRepo struct {
	trials    []*domain.ClinicalTrial
	nextID    int
	insertErr error
}

func newStubTrialRepo() *stubTrialRepo {
	return &stubTrialRepo{}
}

func (r *stubTrialRepo) Insert(_ context.Context, t *domain.ClinicalTrial) (*domain.ClinicalTrial, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	// Mirrors the unique index on trial_id.
	for _, existing := range r.trials {
		if existing.TrialID == t.TrialID {
			return nil, domain.ErrDuplicateTrialID
		}
	}
	r.nextID++
	clone := *t
	clone.ID = fmt.Sprintf("rec-%d", r.nextID)
	r.trials = append(r.trials, &clone)
	out := clone
	return &out, nil
}

func (r *stubTrialRepo) FindByID(_ context.Context, id string) (*domain.ClinicalTrial, error) {
	for _, t := range r.trials {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTrialNotFound
}

func (r *stubTrialRepo) FindByTrialID(_ context.Context, trialID string) (*domain.ClinicalTrial, error) {
	for _, t := range r.trials {
		if t.TrialID == trialID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTrialNotFound
}

// List applies the same filters the real Mongo repo would use.
func (r *stubTrialRepo) List(_ context.Context, f ports.ListTrialsFilter) ([]*domain.ClinicalTrial, int64, error) {
	var matched []*domain.ClinicalTrial
	for _, t := range r.trials {
		if f.OwnerID != "" && t.CreatedBy != f.OwnerID {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.Phase != "" && string(t.Phase) != f.Phase {
			continue
		}
		if f.TherapeuticArea != "" && t.TherapeuticArea != f.TherapeuticArea {
			continue
		}
		if f.Search != "" && !trialMatchesSearch(t, f.Search) {
			continue
		}
		clone := *t
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		return nil, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func trialMatchesSearch(t *domain.ClinicalTrial, search string) bool {
	s := strings.ToLower(search)
	for _, field := range []string{
		t.Name, t.TrialID, t.Description, t.PrincipalInvestigator,
		t.Sponsor, t.TherapeuticArea, t.DrugName,
	} {
		if strings.Contains(strings.ToLower(field), s) {
			return true
		}
	}
	return false
}

func (r *stubTrialRepo) Replace(_ context.Context, t *domain.ClinicalTrial) error {
	for _, existing := range r.trials {
		if existing.ID != t.ID && existing.TrialID == t.TrialID {
			return domain.ErrDuplicateTrialID
		}
	}
	for i, existing := range r.trials {
		if existing.ID == t.ID {
			clone := *t
			r.trials[i] = &clone
			return nil
		}
	}
	return domain.ErrTrialNotFound
}

func (r *stubTrialRepo) Delete(_ context.Context, id string) error {
	for i, t := range r.trials {
		if t.ID == id {
			r.trials = append(r.trials[:i], r.trials[i+1:]...)
			return nil
		}
	}
	return domain.ErrTrialNotFound
}

type stubAuditRepo struct {
	entries []*domain.AuditEntry
	err     error
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var (
	researcher      = ports.Actor{ID: "user-1", Role: domain.RoleResearcher}
	otherResearcher = ports.Actor{ID: "user-2", Role: domain.RoleResearcher}
	admin           = ports.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func newTrialService() (*TrialService, *stubTrialRepo, *stubAuditRepo) {
	repo := newStubTrialRepo()
	audit := &stubAuditRepo{}
	return NewTrialService(repo, audit, discardLogger), repo, audit
}

func minimalInput(trialID string) ports.CreateTrialInput {
	return ports.CreateTrialInput{
		TrialID:               trialID,
		Name:                  "Study of Examplinib",
		Description:           "A randomized, double-blind study.",
		PrincipalInvestigator: "Dr. Rivera",
		Sponsor:               "Examplar Pharma",
		TherapeuticArea:       "Oncology",
		Phase:                 "Phase II",
		StartDate:             "2024-03-01",
		EndDate:               "2026-03-01",
		EstimatedEnrollment:   200,
	}
}

func mustCreate(t *testing.T, svc *TrialService, input ports.CreateTrialInput, actor ports.Actor) *domain.ClinicalTrial {
	t.Helper()
	trial, err := svc.Create(context.Background(), input, actor)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return trial
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestTrialService_Create_Success(t *testing.T) {
	svc, _, audit := newTrialService()

	trial := mustCreate(t, svc, minimalInput("ONC-2024-001"), researcher)

	if trial.ID == "" {
		t.Error("expected a record id")
	}
	if trial.TrialID != "ONC-2024-001" {
		t.Errorf("unexpected trialId %q", trial.TrialID)
	}
	if trial.Status != domain.StatusPlanning {
		t.Errorf("status must default to Planning, got %q", trial.Status)
	}
	if trial.CreatedBy != researcher.ID || trial.LastModifiedBy != researcher.ID {
		t.Errorf("ownership not stamped: createdBy=%q lastModifiedBy=%q", trial.CreatedBy, trial.LastModifiedBy)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditCreate {
		t.Errorf("expected one create audit entry, got %+v", audit.entries)
	}
}

func TestTrialService_Create_ReadBackEqualsPayload(t *testing.T) {
	svc, _, _ := newTrialService()
	input := minimalInput("CARD-2024-007")
	input.DrugName = "Examplinib"
	input.SecondaryEndpoints = []string{"QoL scores"}

	created := mustCreate(t, svc, input, researcher)
	fetched, err := svc.Get(context.Background(), created.ID, researcher)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if fetched.TrialID != "CARD-2024-007" || fetched.Name != input.Name || fetched.DrugName != "Examplinib" {
		t.Errorf("read-back mismatch: %+v", fetched)
	}
	if len(fetched.SecondaryEndpoints) != 1 || fetched.SecondaryEndpoints[0] != "QoL scores" {
		t.Errorf("secondary endpoints mismatch: %v", fetched.SecondaryEndpoints)
	}
}

func TestTrialService_Create_NormalizesTrialID(t *testing.T) {
	svc, _, _ := newTrialService()

	trial := mustCreate(t, svc, minimalInput("abc-123"), researcher)
	if trial.TrialID != "ABC-123" {
		t.Errorf("expected ABC-123, got %q", trial.TrialID)
	}
}

func TestTrialService_Create_DuplicateTrialID(t *testing.T) {
	svc, repo, _ := newTrialService()

	mustCreate(t, svc, minimalInput("ABC-123"), researcher)
	_, err := svc.Create(context.Background(), minimalInput("abc-123"), otherResearcher)
	if !errors.Is(err, domain.ErrDuplicateTrialID) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if len(repo.trials) != 1 {
		t.Errorf("expected 1 stored trial, got %d", len(repo.trials))
	}
}

func TestTrialService_Create_CollectsAllViolations(t *testing.T) {
	svc, repo, _ := newTrialService()
	input := minimalInput("bad id!")
	input.Name = ""
	input.StartDate = "not-a-date"
	input.EstimatedEnrollment = 0

	_, err := svc.Create(context.Background(), input, researcher)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) < 4 {
		t.Errorf("expected every violation collected, got %v", ve.Violations)
	}
	if len(repo.trials) != 0 {
		t.Error("nothing must be persisted on validation failure")
	}
}

func TestTrialService_Create_RejectsSameDayDates(t *testing.T) {
	svc, _, _ := newTrialService()
	input := minimalInput("SAME-DAY-1")
	input.StartDate = "2024-03-01"
	input.EndDate = "2024-03-01"

	_, err := svc.Create(context.Background(), input, researcher)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assertViolation(t, ve.Violations, "endDate must be after startDate")
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestTrialService_Get_OwnershipGate(t *testing.T) {
	svc, _, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("OWN-1"), researcher)

	if _, err := svc.Get(context.Background(), created.ID, researcher); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID, otherResearcher); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID, admin); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}

func TestTrialService_Get_NotFound(t *testing.T) {
	svc, _, _ := newTrialService()
	if _, err := svc.Get(context.Background(), "rec-404", researcher); !errors.Is(err, domain.ErrTrialNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestTrialService_Update_MergeThenValidateWhole(t *testing.T) {
	svc, repo, _ := newTrialService()
	input := minimalInput("ENR-1")
	input.EstimatedEnrollment = 50
	input.ActualEnrollment = intPtr(40)
	created := mustCreate(t, svc, input, researcher)

	// Shrinking the estimate below the existing actual must fail even
	// though the payload alone looks valid.
	_, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		EstimatedEnrollment: intPtr(30),
	}, researcher)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assertViolation(t, ve.Violations, "actualEnrollment cannot exceed estimatedEnrollment")

	stored, _ := repo.FindByID(context.Background(), created.ID)
	if stored.EstimatedEnrollment != 50 {
		t.Errorf("store must be unchanged on rejection, got %d", stored.EstimatedEnrollment)
	}
}

func TestTrialService_Update_DateMergeValidation(t *testing.T) {
	svc, _, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("DATE-1"), researcher)

	// Only endDate changes; it must be checked against the stored startDate.
	_, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		EndDate: strPtr("2024-02-01"),
	}, researcher)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assertViolation(t, ve.Violations, "endDate must be after startDate")
}

func TestTrialService_Update_SetsLastModifiedBy(t *testing.T) {
	svc, _, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("MOD-1"), researcher)

	updated, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		Status: strPtr("Active"),
	}, admin)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Status != domain.StatusActive {
		t.Errorf("status not applied: %q", updated.Status)
	}
	if updated.CreatedBy != researcher.ID {
		t.Errorf("createdBy must not change, got %q", updated.CreatedBy)
	}
	if updated.LastModifiedBy != admin.ID {
		t.Errorf("lastModifiedBy must be the acting mutator, got %q", updated.LastModifiedBy)
	}
}

func TestTrialService_Update_UnchangedFieldsRetained(t *testing.T) {
	svc, _, _ := newTrialService()
	input := minimalInput("KEEP-1")
	input.DrugName = "Examplinib"
	created := mustCreate(t, svc, input, researcher)

	updated, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		Name: strPtr("Renamed study"),
	}, researcher)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Renamed study" {
		t.Errorf("name not applied: %q", updated.Name)
	}
	if updated.DrugName != "Examplinib" || updated.Sponsor != input.Sponsor {
		t.Errorf("untouched fields must be retained: %+v", updated)
	}
}

func TestTrialService_Update_TrialIDUniquenessExcludesSelf(t *testing.T) {
	svc, _, _ := newTrialService()
	first := mustCreate(t, svc, minimalInput("UNIQ-1"), researcher)
	mustCreate(t, svc, minimalInput("UNIQ-2"), researcher)

	// Renaming to a taken id conflicts.
	_, err := svc.Update(context.Background(), first.ID, ports.UpdateTrialInput{
		TrialID: strPtr("uniq-2"),
	}, researcher)
	if !errors.Is(err, domain.ErrDuplicateTrialID) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// Re-submitting the current id (even in lowercase) is not a conflict.
	updated, err := svc.Update(context.Background(), first.ID, ports.UpdateTrialInput{
		TrialID: strPtr("uniq-1"),
	}, researcher)
	if err != nil {
		t.Fatalf("self update failed: %v", err)
	}
	if updated.TrialID != "UNIQ-1" {
		t.Errorf("expected UNIQ-1, got %q", updated.TrialID)
	}
}

func TestTrialService_Update_Forbidden(t *testing.T) {
	svc, _, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("FORB-1"), researcher)

	_, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		Name: strPtr("hijacked"),
	}, otherResearcher)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestTrialService_Update_AppendsNotes(t *testing.T) {
	svc, _, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("NOTE-1"), researcher)

	updated, err := svc.Update(context.Background(), created.ID, ports.UpdateTrialInput{
		Notes: []string{"Enrollment opened at site A"},
	}, researcher)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(updated.Notes))
	}
	note := updated.Notes[0]
	if note.Content != "Enrollment opened at site A" || note.CreatedBy != researcher.ID || note.CreatedAt.IsZero() {
		t.Errorf("note not stamped correctly: %+v", note)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestTrialService_Delete(t *testing.T) {
	svc, repo, audit := newTrialService()
	created := mustCreate(t, svc, minimalInput("DEL-1"), researcher)

	if err := svc.Delete(context.Background(), created.ID, otherResearcher); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID, researcher); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if len(repo.trials) != 0 {
		t.Error("trial not removed")
	}
	if err := svc.Delete(context.Background(), created.ID, researcher); !errors.Is(err, domain.ErrTrialNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	last := audit.entries[len(audit.entries)-1]
	if last.Action != domain.AuditDelete {
		t.Errorf("expected delete audit entry, got %q", last.Action)
	}
}

func TestTrialService_Delete_AdminOverridesOwnership(t *testing.T) {
	svc, repo, _ := newTrialService()
	created := mustCreate(t, svc, minimalInput("DEL-2"), researcher)

	if err := svc.Delete(context.Background(), created.ID, admin); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if len(repo.trials) != 0 {
		t.Error("trial not removed")
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func seedTrials(t *testing.T, svc *TrialService, n int, actor ports.Actor) {
	t.Helper()
	for i := 0; i < n; i++ {
		mustCreate(t, svc, minimalInput(fmt.Sprintf("SEED-%03d", i)), actor)
	}
}

func TestTrialService_List_Pagination(t *testing.T) {
	svc, _, _ := newTrialService()
	seedTrials(t, svc, 25, researcher)

	page1, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: researcher, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page1.Trials) != 10 {
		t.Errorf("page 1: expected 10 trials, got %d", len(page1.Trials))
	}
	p := page1.Pagination
	if p.Total != 25 || p.TotalPages != 3 || !p.HasNextPage || p.HasPrevPage {
		t.Errorf("page 1 pagination wrong: %+v", p)
	}

	page3, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: researcher, Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page3.Trials) != 5 {
		t.Errorf("page 3: expected 5 trials, got %d", len(page3.Trials))
	}
	p = page3.Pagination
	if p.HasNextPage || !p.HasPrevPage {
		t.Errorf("page 3 pagination wrong: %+v", p)
	}
}

func TestTrialService_List_ScopesNonAdminToOwner(t *testing.T) {
	svc, _, _ := newTrialService()
	seedTrials(t, svc, 3, researcher)
	mustCreate(t, svc, minimalInput("OTHER-1"), otherResearcher)

	mine, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: researcher})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if mine.Pagination.Total != 3 {
		t.Errorf("researcher must only see own trials, total=%d", mine.Pagination.Total)
	}

	all, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: admin})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if all.Pagination.Total != 4 {
		t.Errorf("admin must see all trials, total=%d", all.Pagination.Total)
	}
}

func TestTrialService_List_Search(t *testing.T) {
	svc, _, _ := newTrialService()
	input := minimalInput("SRCH-1")
	input.Sponsor = "Helios Therapeutics"
	mustCreate(t, svc, input, researcher)
	mustCreate(t, svc, minimalInput("SRCH-2"), researcher)

	result, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: researcher, Search: "helios"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Pagination.Total != 1 {
		t.Errorf("expected 1 match, got %d", result.Pagination.Total)
	}
}

func TestTrialService_List_CapsLimit(t *testing.T) {
	svc, _, _ := newTrialService()
	seedTrials(t, svc, 2, researcher)

	result, err := svc.List(context.Background(), ports.ListTrialsInput{Actor: researcher, Limit: 500})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Pagination.Limit != maxPageLimit {
		t.Errorf("limit must be capped at %d, got %d", maxPageLimit, result.Pagination.Limit)
	}
}
