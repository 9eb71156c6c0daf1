package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

// Trial payloads deliberately carry no validate tags: the service
// pipeline checks the complete merged record and reports every violated
// rule at once, which per-field bind-time validation would short-circuit.

type createTrialRequest struct {
	TrialID               string   `json:"trialId"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	PrincipalInvestigator string   `json:"principalInvestigator"`
	Sponsor               string   `json:"sponsor"`
	TherapeuticArea       string   `json:"therapeuticArea"`
	DrugName              string   `json:"drugName"`
	Phase                 string   `json:"phase"`
	Status                string   `json:"status"`
	StartDate             string   `json:"startDate"`
	EndDate               string   `json:"endDate"`
	EstimatedEnrollment   int      `json:"estimatedEnrollment"`
	ActualEnrollment      *int     `json:"actualEnrollment"`
	SecondaryEndpoints    []string `json:"secondaryEndpoints"`
	InclusionCriteria     []string `json:"inclusionCriteria"`
	ExclusionCriteria     []string `json:"exclusionCriteria"`
	StudyLocations        []string `json:"studyLocations"`
	Notes                 []string `json:"notes"`
}

func (r *createTrialRequest) toInput() ports.CreateTrialInput {
	return ports.CreateTrialInput{
		TrialID:               r.TrialID,
		Name:                  r.Name,
		Description:           r.Description,
		PrincipalInvestigator: r.PrincipalInvestigator,
		Sponsor:               r.Sponsor,
		TherapeuticArea:       r.TherapeuticArea,
		DrugName:              r.DrugName,
		Phase:                 r.Phase,
		Status:                r.Status,
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		EstimatedEnrollment:   r.EstimatedEnrollment,
		ActualEnrollment:      r.ActualEnrollment,
		SecondaryEndpoints:    r.SecondaryEndpoints,
		InclusionCriteria:     r.InclusionCriteria,
		ExclusionCriteria:     r.ExclusionCriteria,
		StudyLocations:        r.StudyLocations,
		Notes:                 r.Notes,
	}
}

type updateTrialRequest struct {
	TrialID               *string  `json:"trialId"`
	Name                  *string  `json:"name"`
	Description           *string  `json:"description"`
	PrincipalInvestigator *string  `json:"principalInvestigator"`
	Sponsor               *string  `json:"sponsor"`
	TherapeuticArea       *string  `json:"therapeuticArea"`
	DrugName              *string  `json:"drugName"`
	Phase                 *string  `json:"phase"`
	Status                *string  `json:"status"`
	StartDate             *string  `json:"startDate"`
	EndDate               *string  `json:"endDate"`
	EstimatedEnrollment   *int     `json:"estimatedEnrollment"`
	ActualEnrollment      *int     `json:"actualEnrollment"`
	SecondaryEndpoints    []string `json:"secondaryEndpoints"`
	InclusionCriteria     []string `json:"inclusionCriteria"`
	ExclusionCriteria     []string `json:"exclusionCriteria"`
	StudyLocations        []string `json:"studyLocations"`
	Notes                 []string `json:"notes"`
}

func (r *updateTrialRequest) toInput() ports.UpdateTrialInput {
	return ports.UpdateTrialInput{
		TrialID:               r.TrialID,
		Name:                  r.Name,
		Description:           r.Description,
		PrincipalInvestigator: r.PrincipalInvestigator,
		Sponsor:               r.Sponsor,
		TherapeuticArea:       r.TherapeuticArea,
		DrugName:              r.DrugName,
		Phase:                 r.Phase,
		Status:                r.Status,
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		EstimatedEnrollment:   r.EstimatedEnrollment,
		ActualEnrollment:      r.ActualEnrollment,
		SecondaryEndpoints:    r.SecondaryEndpoints,
		InclusionCriteria:     r.InclusionCriteria,
		ExclusionCriteria:     r.ExclusionCriteria,
		StudyLocations:        r.StudyLocations,
		Notes:                 r.Notes,
	}
}

type trialResponse struct {
	Trial *domain.ClinicalTrial `json:"trial"`
}

type listTrialsResponse struct {
	Trials     []*domain.ClinicalTrial `json:"trials"`
	Pagination ports.Pagination        `json:"pagination"`
}

// parseListQuery reads list parameters from the query string. Page and
// limit fall back to their defaults on absent or malformed values; the
// service clamps the final numbers.
func parseListQuery(c echo.Context, actor ports.Actor) ports.ListTrialsInput {
	input := ports.ListTrialsInput{
		Actor:           actor,
		Status:          c.QueryParam("status"),
		Phase:           c.QueryParam("phase"),
		TherapeuticArea: c.QueryParam("therapeuticArea"),
		Search:          c.QueryParam("search"),
		Page:            1,
		Limit:           0,
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		input.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		input.Limit = v
	}
	return input
}

func bindJSON(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}
