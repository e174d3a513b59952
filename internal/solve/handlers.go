package solve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/point-planner/internal/common"
	"github.com/noah-isme/point-planner/internal/planner"
)

// Handler exposes the planning endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler around svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Routes mounts the solve endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Solve)
	r.Get("/defaults", h.Defaults)
}

type solveRequest struct {
	N           *int         `json:"n" validate:"required"`
	StartPoints int64        `json:"startPoints" validate:"gte=0"`
	Params      *paramsPatch `json:"params"`
}

// paramsPatch overrides individual default parameters. Nil fields keep the default.
type paramsPatch struct {
	UnitPrice            *int64  `json:"unitPrice"`
	TaxRatePct           *int64  `json:"taxRatePct"`
	PointRatePct         *int64  `json:"pointRatePct"`
	MinEligibleTotal     *int64  `json:"minEligibleTotal"`
	MinCashForPoints     *int64  `json:"minCashForPoints"`
	Basis                *string `json:"basis"`
	Rounding             *string `json:"rounding"`
	CapPointsToRemaining *bool   `json:"capPointsToRemaining"`
	Consolidate          *bool   `json:"consolidate"`
	Objective            *string `json:"objective"`
	SmallQuantityMax     *int    `json:"smallQuantityMax"`
	ThresholdWindow      *int    `json:"thresholdWindow"`
	TailWindow           *int    `json:"tailWindow"`
	ExhaustiveBelow      *int    `json:"exhaustiveBelow"`
}

func (p *paramsPatch) apply(base planner.Config) planner.Config {
	if p == nil {
		return base
	}
	cfg := base
	setInt64(&cfg.UnitPrice, p.UnitPrice)
	setInt64(&cfg.TaxRatePct, p.TaxRatePct)
	setInt64(&cfg.PointRatePct, p.PointRatePct)
	setInt64(&cfg.MinEligibleTotal, p.MinEligibleTotal)
	setInt64(&cfg.MinCashForPoints, p.MinCashForPoints)
	if p.Basis != nil {
		cfg.Basis = planner.Basis(strings.TrimSpace(*p.Basis))
	}
	if p.Rounding != nil {
		cfg.Rounding = planner.Rounding(strings.TrimSpace(*p.Rounding))
	}
	if p.CapPointsToRemaining != nil {
		cfg.CapPointsToRemaining = *p.CapPointsToRemaining
	}
	if p.Consolidate != nil {
		cfg.Consolidate = *p.Consolidate
	}
	if p.Objective != nil {
		cfg.Objective = planner.Objective(strings.TrimSpace(*p.Objective))
	}
	setInt(&cfg.SmallQuantityMax, p.SmallQuantityMax)
	setInt(&cfg.ThresholdWindow, p.ThresholdWindow)
	setInt(&cfg.TailWindow, p.TailWindow)
	setInt(&cfg.ExhaustiveBelow, p.ExhaustiveBelow)
	return cfg
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Solve plans a purchase. Body: {"n": 12, "startPoints": 0, "params": {...}}.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "solve service not configured", nil)
		return
	}
	var req solveRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "N" {
			common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "n is required", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "INVALID_PARAMS", "startPoints must not be negative", nil)
		return
	}

	cfg := req.Params.apply(h.svc.Defaults())
	outcome, err := h.svc.Solve(r.Context(), cfg, planner.Request{Quantity: *req.N, StartPoints: req.StartPoints})
	if err != nil {
		common.WriteError(w, toAppError(err, h.svc.MaxQuantity()))
		return
	}
	common.JSONData(w, http.StatusOK, outcome)
}

// Defaults returns the configured default planning parameters.
func (h *Handler) Defaults(w http.ResponseWriter, _ *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "solve service not configured", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"params":      h.svc.Defaults(),
		"maxQuantity": h.svc.MaxQuantity(),
	})
}

func toAppError(err error, maxQuantity int) error {
	switch {
	case errors.Is(err, ErrQuantityTooLarge):
		appErr := common.NewAppError("QUANTITY_TOO_LARGE", "n exceeds the maximum plannable quantity", http.StatusBadRequest, err)
		appErr.Details = map[string]int{"maxQuantity": maxQuantity}
		return appErr
	case errors.Is(err, planner.ErrInvalidQuantity):
		return common.NewAppError("INVALID_QUANTITY", "n must be at least 1", http.StatusBadRequest, err)
	case errors.Is(err, planner.ErrInvalidParams), errors.Is(err, planner.ErrInvalidStartPoints),
		errors.Is(err, planner.ErrAmountOverflow):
		return common.NewAppError("INVALID_PARAMS", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, planner.ErrNoFeasiblePlan), errors.Is(err, planner.ErrInconsistentPlan),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.NewAppError("NO_FEASIBLE_PLAN", "no plan could be computed", http.StatusServiceUnavailable, err)
	default:
		return err
	}
}
