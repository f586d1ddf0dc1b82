// AngelaMos | 2026
// handler.go

package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
	"github.com/ksdeva/predictor-admin/internal/middleware"
)

type Handler struct {
	service   *Service
	lifecycle config.LifecycleConfig
	validator *validator.Validate
}

func NewHandler(service *Service, lifecycle config.LifecycleConfig) *Handler {
	return &Handler{
		service:   service,
		lifecycle: lifecycle,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterPublicRoutes mounts the endpoints the predictor backend
// calls without an admin token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/company/request", h.Submit)
	r.Post("/company/activity/{accountID}", h.RecordActivity)
}

// RegisterAdminRoutes attaches the review endpoints to an already
// authenticated admin subrouter.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/requests", h.ListRequests)
	r.Get("/requests/{requestID}", h.GetRequest)
	r.Post("/approve/{requestID}", h.Approve)
	r.Post("/reject/{requestID}", h.Reject)
	r.Delete("/force-delete/{requestID}", h.ForceDelete)
	r.Get("/companies", h.ListCompanies)
	r.Get("/stats", h.Stats)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	created, err := h.service.Submit(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToResponse(created))
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.service.List(r.Context(), q.Get("status"), page, pageSize)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w,
		ToResponseList(result.Requests),
		result.Page,
		result.PageSize,
		result.Total,
	)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "request")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResponse(req))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	adminID := middleware.GetUserID(r.Context())

	result, err := h.service.Approve(r.Context(), id, adminID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, result)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rejected, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToResponse(rejected))
}

func (h *Handler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	if err := h.service.ForceDelete(r.Context(), id); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		core.BadRequest(w, "invalid account id")
		return
	}

	if err := h.service.RecordActivity(r.Context(), id); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListCompanies(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"companies": account.ToResponseList(
			accounts,
			time.Now().UTC(),
			h.lifecycle,
		),
		"total": len(accounts),
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Stats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"pending":  counts[StatusPending],
		"approved": counts[StatusApproved],
		"rejected": counts[StatusRejected],
	})
}

func (h *Handler) requestID(
	w http.ResponseWriter,
	r *http.Request,
) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		core.BadRequest(w, "invalid request id")
		return uuid.Nil, false
	}
	return id, true
}
