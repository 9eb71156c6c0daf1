package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clintrack/trial-registry/internal/api/metrics"
	"github.com/clintrack/trial-registry/internal/api/middleware"
	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

type AuthHandler struct {
	service      ports.AuthService
	cookieSecure bool
}

func NewAuthHandler(service ports.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{service: service, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Username   string `json:"username"   validate:"required,min=3,max=50"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=8,max=128"`
	FirstName  string `json:"firstName"  validate:"required,max=100"`
	LastName   string `json:"lastName"   validate:"required,max=100"`
	Role       string `json:"role"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password"        validate:"required"`
	Portal          string `json:"portal"          validate:"required,oneof=user admin"`
}

type profileRequest struct {
	FirstName  *string `json:"firstName"  validate:"omitempty,max=100"`
	LastName   *string `json:"lastName"   validate:"omitempty,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type authCheckResponse struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *domain.User `json:"user"`
}

// Register creates a researcher or coordinator account and logs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, user, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(user.Role)).Inc()
	h.setSessionCookie(c, session)
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates against one of the two portals and establishes a
// session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, user, err := h.service.Login(c.Request().Context(), req.EmailOrUsername, req.Password, domain.Portal(req.Portal))
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(req.Portal, loginResult(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(req.Portal, "success").Inc()
	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Logout revokes the current session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	tokenID, _ := c.Get("token_id").(string)
	expiresAt, _ := c.Get("token_expires").(time.Time)

	// Best effort: the cookie is cleared either way and the token still
	// expires on its own.
	_ = h.service.Logout(c.Request().Context(), tokenID, expiresAt)

	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/user [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	user, err := h.service.CurrentUser(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Check reports whether the request carries a valid session. It never
// fails: anonymous callers get isAuthenticated=false.
//
// @Summary      Session check
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authCheckResponse
// @Router       /auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusOK, authCheckResponse{IsAuthenticated: false})
	}

	user, err := h.service.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusOK, authCheckResponse{IsAuthenticated: false})
	}
	return c.JSON(http.StatusOK, authCheckResponse{IsAuthenticated: true, User: user})
}

// UpdateProfile changes the caller's optional profile fields.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), actor.ID, ports.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// ListUsers returns every account. Admin only.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {object}  map[string][]domain.User
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AuthHandler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]*domain.User{"users": users})
}

func loginResult(err error) string {
	if errors.Is(err, domain.ErrForbidden) {
		return "forbidden"
	}
	return "invalid_credentials"
}

func (h *AuthHandler) setSessionCookie(c echo.Context, session *ports.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
