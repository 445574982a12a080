package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/healthstock/healthstock-backend/internal/alerts/repository"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/httputil"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// AlertHandler handles alert endpoints. Alerts are mostly system-generated
// (low stock checks), so the write surface here is acknowledgement:
// marking read, resolving, and cleanup.
type AlertHandler struct {
	repo   *repository.AlertRepository
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(repo *repository.AlertRepository, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		repo:   repo,
		logger: log,
	}
}

// List lists alerts newest first
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	alertType := r.URL.Query().Get("type")
	unreadOnly := r.URL.Query().Get("unread") == "true"

	alerts, total, err := h.repo.List(r.Context(), alertType, unreadOnly, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, alerts, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets an alert by ID
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alert, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alert)
}

// Create stores a manual alert
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var alert repository.Alert
	if err := httputil.DecodeJSON(r, &alert); err != nil {
		httputil.Error(w, err)
		return
	}

	if alert.Message == "" {
		httputil.Error(w, errors.BadRequest("message is required"))
		return
	}
	if alert.Type == "" {
		alert.Type = repository.TypeSystem
	}

	if err := h.repo.Create(r.Context(), &alert); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, alert)
}

// MarkRead flags an alert as read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.MarkRead(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	alert, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alert)
}

// Resolve marks an alert as resolved by the acting user. Resolving an
// already-resolved alert returns it unchanged.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	by := actor.FromContext(r.Context())
	if by == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	alert, err := h.repo.Resolve(r.Context(), id, by.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("alert_id", id).
		Str("actor", by.String()).
		Msg("alert resolved")

	httputil.JSON(w, http.StatusOK, alert)
}

// Delete removes an alert
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
