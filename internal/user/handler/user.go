package handler

import (
	"net/http"

	"github.com/healthstock/healthstock-backend/internal/user/service"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/httputil"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// UserHandler handles registration, token and profile endpoints
type UserHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  log,
	}
}

// Register creates a new account
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, user)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Token checks credentials and issues an access/refresh token pair
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	pair, _, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh exchanges a refresh token for a new token pair
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pair)
}

// Profile returns the acting user's profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	by := actor.FromContext(r.Context())
	if by == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.GetProfile(r.Context(), by.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// UpdateProfile updates the acting user's profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	by := actor.FromContext(r.Context())
	if by == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	var req service.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), by.ID, req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Staff lists active colleagues at the acting user's hospital
func (h *UserHandler) Staff(w http.ResponseWriter, r *http.Request) {
	by := actor.FromContext(r.Context())
	if by == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	users, err := h.service.ListStaff(r.Context(), by.HospitalName)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}
