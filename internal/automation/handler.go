// AngelaMos | 2026
// handler.go

package automation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
)

type Handler struct {
	engine    *Engine
	modes     ModeStore
	lifecycle config.LifecycleConfig
	validator *validator.Validate
}

func NewHandler(
	engine *Engine,
	modes ModeStore,
	lifecycle config.LifecycleConfig,
) *Handler {
	return &Handler{
		engine:    engine,
		modes:     modes,
		lifecycle: lifecycle,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterAdminRoutes attaches the lifecycle endpoints to an already
// authenticated admin subrouter.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/automation/settings", h.GetSettings)
	r.Post("/automation/settings", h.UpdateSettings)
	r.Post("/automation/run", h.Run)

	r.Get("/inactive-accounts", h.ListInactive)
	r.Get("/low-accuracy-accounts", h.ListLowAccuracy)

	r.Post("/manual/warn-inactive/{accountID}", h.WarnInactive)
	r.Post("/manual/warn-low-accuracy/{accountID}", h.WarnLowAccuracy)
	r.Post("/manual/delete-account/{accountID}", h.DeleteAccount)
}

type settingsResponse struct {
	Mode Mode `json:"mode"`
}

type updateSettingsRequest struct {
	Mode string `json:"mode" validate:"required,oneof=manual automated"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	mode, err := h.modes.Get(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, settingsResponse{Mode: mode})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	mode, err := ParseMode(req.Mode)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.modes.Set(r.Context(), mode); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, settingsResponse{Mode: mode})
}

// Run triggers a full evaluation immediately, in the currently stored
// mode.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	mode, err := h.modes.Get(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	result, err := h.engine.Evaluate(r.Context(), mode)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	response := map[string]any{
		"results": result,
	}
	if mode == ModeManual {
		response["note"] = "manual mode: warnings only, no accounts were deleted"
	}

	core.OK(w, response)
}

func (h *Handler) ListInactive(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	accounts, err := h.engine.ListInactive(r.Context(), now)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"accounts": account.ToResponseList(accounts, now, h.lifecycle),
		"total":    len(accounts),
	})
}

func (h *Handler) ListLowAccuracy(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.engine.ListLowAccuracy(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"accounts": account.ToResponseList(
			accounts,
			time.Now().UTC(),
			h.lifecycle,
		),
		"threshold": h.lifecycle.AccuracyThreshold,
		"total":     len(accounts),
	})
}

func (h *Handler) WarnInactive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.engine.WarnInactive(r.Context(), id); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"status": "warning_sent"})
}

func (h *Handler) WarnLowAccuracy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.engine.WarnLowAccuracy(r.Context(), id); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"status": "warning_sent"})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.engine.DeleteAccount(r.Context(), id); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) accountID(
	w http.ResponseWriter,
	r *http.Request,
) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		core.BadRequest(w, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}
