package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clintrack/trial-registry/internal/api/metrics"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

type TrialHandler struct {
	service ports.TrialService
}

func NewTrialHandler(service ports.TrialService) *TrialHandler {
	return &TrialHandler{service: service}
}

// Create registers a new clinical trial owned by the caller.
//
// @Summary      Create a clinical trial
// @Tags         trials
// @Accept       json
// @Produce      json
// @Param        body  body      createTrialRequest  true  "Trial payload"
// @Success      201   {object}  trialResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /trials [post]
func (h *TrialHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createTrialRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	trial, err := h.service.Create(c.Request().Context(), req.toInput(), actor)
	if err != nil {
		return err
	}

	metrics.TrialMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, trialResponse{Trial: trial})
}

// Get returns a single trial. Non-admins only see their own.
//
// @Summary      Get a clinical trial
// @Tags         trials
// @Produce      json
// @Param        id   path      string  true  "Trial record id"
// @Success      200  {object}  trialResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /trials/{id} [get]
func (h *TrialHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	trial, err := h.service.Get(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trialResponse{Trial: trial})
}

// List returns a filtered, paginated page of trials. Admins see every
// trial; everyone else sees only the trials they created.
//
// @Summary      List clinical trials
// @Tags         trials
// @Produce      json
// @Param        page             query     int     false  "Page number (1-based)"
// @Param        limit            query     int     false  "Page size (max 100)"
// @Param        status           query     string  false  "Filter by status"
// @Param        phase            query     string  false  "Filter by phase"
// @Param        therapeuticArea  query     string  false  "Filter by therapeutic area"
// @Param        search           query     string  false  "Case-insensitive text search"
// @Success      200  {object}  listTrialsResponse
// @Failure      401  {object}  errorResponse
// @Router       /trials [get]
func (h *TrialHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), parseListQuery(c, actor))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listTrialsResponse{
		Trials:     result.Trials,
		Pagination: result.Pagination,
	})
}

// Update applies a partial payload to a trial the caller may modify.
// The stored record changes only if the merged result passes every
// validation rule.
//
// @Summary      Update a clinical trial
// @Tags         trials
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Trial record id"
// @Param        body  body      updateTrialRequest  true  "Fields to change"
// @Success      200   {object}  trialResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /trials/{id} [put]
func (h *TrialHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateTrialRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	trial, err := h.service.Update(c.Request().Context(), c.Param("id"), req.toInput(), actor)
	if err != nil {
		return err
	}

	metrics.TrialMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, trialResponse{Trial: trial})
}

// Delete removes a trial the caller may modify.
//
// @Summary      Delete a clinical trial
// @Tags         trials
// @Produce      json
// @Param        id   path      string  true  "Trial record id"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /trials/{id} [delete]
func (h *TrialHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}

	metrics.TrialMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, map[string]string{"message": "trial deleted"})
}
