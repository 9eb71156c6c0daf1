package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

var trialIDPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// dateLayouts are the accepted wire formats for startDate/endDate.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// NormalizeTrialID upper-cases and trims a trial identifier. Every payload
// is normalized before validation and persistence, so "abc-123" and
// "ABC-123" are the same identifier.
func NormalizeTrialID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseDateField parses one date field, appending a violation message for a
// missing (when required) or unparseable value. A failed parse leaves the
// zero time, which the cross-field check treats as "skip".
func parseDateField(name, value string, required bool, violations []string) (time.Time, []string) {
	if value == "" {
		if required {
			violations = append(violations, name+" is required")
		}
		return time.Time{}, violations
	}
	t, err := parseDate(value)
	if err != nil {
		return time.Time{}, append(violations, name+" must be a valid date (YYYY-MM-DD)")
	}
	return t, violations
}

// validateTrialFields runs every per-field rule over a complete record and
// returns one message per violated rule. It never fails fast.
func validateTrialFields(t *domain.ClinicalTrial) []string {
	var violations []string

	violations = requireBounded(violations, "trialId", t.TrialID, 50)
	if t.TrialID != "" && !trialIDPattern.MatchString(t.TrialID) {
		violations = append(violations, "trialId may only contain uppercase letters, digits and hyphens")
	}

	violations = requireBounded(violations, "name", t.Name, 200)
	violations = requireBounded(violations, "description", t.Description, 2000)
	violations = requireBounded(violations, "principalInvestigator", t.PrincipalInvestigator, 200)
	violations = requireBounded(violations, "sponsor", t.Sponsor, 200)
	violations = requireBounded(violations, "therapeuticArea", t.TherapeuticArea, 100)
	if len(t.DrugName) > 200 {
		violations = append(violations, "drugName must be at most 200 characters")
	}

	if !t.Phase.Valid() {
		violations = append(violations, "phase must be one of: "+joinPhases())
	}
	if !t.Status.Valid() {
		violations = append(violations, "status must be one of: "+joinStatuses())
	}

	if t.EstimatedEnrollment < 1 || t.EstimatedEnrollment > domain.EnrollmentMax {
		violations = append(violations, fmt.Sprintf("estimatedEnrollment must be between 1 and %d", domain.EnrollmentMax))
	}
	if t.ActualEnrollment < 0 {
		violations = append(violations, "actualEnrollment must be zero or greater")
	}

	return violations
}

// validateTrialCrossField checks the rules that span multiple fields. It
// must always run against the complete post-merge record: updating
// estimatedEnrollment alone still has to hold against the existing
// actualEnrollment, and a date change has to hold against the date that
// was not touched.
func validateTrialCrossField(t *domain.ClinicalTrial) []string {
	var violations []string

	if !t.StartDate.IsZero() && !t.EndDate.IsZero() {
		// Date-only granularity: a trial ending the same calendar day it
		// starts is invalid.
		start := truncateToDay(t.StartDate)
		end := truncateToDay(t.EndDate)
		if !end.After(start) {
			violations = append(violations, "endDate must be after startDate")
		}
	}

	if t.ActualEnrollment > t.EstimatedEnrollment {
		violations = append(violations, "actualEnrollment cannot exceed estimatedEnrollment")
	}

	return violations
}

func requireBounded(violations []string, name, value string, maxLen int) []string {
	if strings.TrimSpace(value) == "" {
		return append(violations, name+" is required")
	}
	if len(value) > maxLen {
		return append(violations, fmt.Sprintf("%s must be at most %d characters", name, maxLen))
	}
	return violations
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func joinPhases() string {
	parts := make([]string, len(domain.TrialPhases))
	for i, p := range domain.TrialPhases {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

func joinStatuses() string {
	parts := make([]string, len(domain.TrialStatuses))
	for i, s := range domain.TrialStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
