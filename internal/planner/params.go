package planner

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

// Money represents an amount in minor currency units. Points are worth one unit each.
type Money = int64

// Basis selects which amount is compared against the eligibility threshold.
type Basis string

const (
	// BasisOrderTotal compares the pre-point, tax-included order total.
	BasisOrderTotal Basis = "order_total"
	// BasisCash compares the cash actually paid.
	BasisCash Basis = "cash"
)

// Rounding selects how earned points are derived from the cash paid.
type Rounding string

const (
	// RoundingRatioFloor earns floor(cash * rate / (100 + tax)).
	RoundingRatioFloor Rounding = "ratio_floor"
	// RoundingTaxExFloorThenRate floors the tax-excluded amount first, then applies the rate.
	RoundingTaxExFloorThenRate Rounding = "taxex_floor_then_rate"
)

// Objective picks the terminal plan among those paying the least cash.
type Objective string

const (
	// ObjectiveMaxLeftover keeps the most points after the last order.
	ObjectiveMaxLeftover Objective = "min_cash_then_max_leftover"
	// ObjectiveMinOrders places the fewest orders.
	ObjectiveMinOrders Objective = "min_cash_then_min_orders"
)

// Config is the mutable input used to build Params.
type Config struct {
	UnitPrice            Money     `json:"unitPrice" yaml:"unit_price" toml:"unit_price" validate:"gt=0"`
	TaxRatePct           int64     `json:"taxRatePct" yaml:"tax_rate_pct" toml:"tax_rate_pct" validate:"gte=0,lt=100"`
	PointRatePct         int64     `json:"pointRatePct" yaml:"point_rate_pct" toml:"point_rate_pct" validate:"gte=0"`
	MinEligibleTotal     Money     `json:"minEligibleTotal" yaml:"min_eligible_total" toml:"min_eligible_total" validate:"gte=0"`
	MinCashForPoints     Money     `json:"minCashForPoints" yaml:"min_cash_for_points" toml:"min_cash_for_points" validate:"gte=0"`
	Basis                Basis     `json:"basis" yaml:"basis" toml:"basis" validate:"oneof=order_total cash"`
	Rounding             Rounding  `json:"rounding" yaml:"rounding" toml:"rounding" validate:"omitempty,oneof=ratio_floor taxex_floor_then_rate"`
	CapPointsToRemaining bool      `json:"capPointsToRemaining" yaml:"cap_points_to_remaining" toml:"cap_points_to_remaining"`
	Consolidate          bool      `json:"consolidate" yaml:"consolidate" toml:"consolidate"`
	Objective            Objective `json:"objective" yaml:"objective" toml:"objective" validate:"omitempty,oneof=min_cash_then_max_leftover min_cash_then_min_orders"`
	SmallQuantityMax     int       `json:"smallQuantityMax" yaml:"small_quantity_max" toml:"small_quantity_max" validate:"gt=0,lte=1000"`
	ThresholdWindow      int       `json:"thresholdWindow" yaml:"threshold_window" toml:"threshold_window" validate:"gt=0,lte=1000"`
	TailWindow           int       `json:"tailWindow" yaml:"tail_window" toml:"tail_window" validate:"gt=0,lte=1000"`
	ExhaustiveBelow      int       `json:"exhaustiveBelow" yaml:"exhaustive_below" toml:"exhaustive_below" validate:"gte=0,lte=1000"`
}

// DefaultConfig returns the reference configuration: 1800 per item tax-included,
// 10% tax, 20% of the tax-excluded cash back as points on orders of 10000 or more.
func DefaultConfig() Config {
	return Config{
		UnitPrice:            1800,
		TaxRatePct:           10,
		PointRatePct:         20,
		MinEligibleTotal:     10000,
		Basis:                BasisOrderTotal,
		Rounding:             RoundingRatioFloor,
		CapPointsToRemaining: true,
		Objective:            ObjectiveMaxLeftover,
		SmallQuantityMax:     12,
		ThresholdWindow:      4,
		TailWindow:           12,
	}
}

// Params is an immutable, validated snapshot of a Config.
type Params struct {
	cfg Config
	// earn ratio rate/(100+tax) in lowest terms
	num int64
	den int64
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func paramsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewParams validates cfg and freezes it. Failures wrap ErrInvalidParams.
func NewParams(cfg Config) (Params, error) {
	if cfg.Rounding == "" {
		cfg.Rounding = RoundingRatioFloor
	}
	if cfg.Objective == "" {
		cfg.Objective = ObjectiveMaxLeftover
	}
	if err := paramsValidator().Struct(cfg); err != nil {
		return Params{}, fmt.Errorf("%w: %s", ErrInvalidParams, describeValidation(err))
	}
	num, den := cfg.PointRatePct, 100+cfg.TaxRatePct
	if g := gcd(num, den); g > 1 {
		num, den = num/g, den/g
	}
	return Params{cfg: cfg, num: num, den: den}, nil
}

// MustParams is NewParams for static configurations; it panics on error.
func MustParams(cfg Config) Params {
	p, err := NewParams(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Config returns a copy of the configuration the params were built from.
func (p Params) Config() Config { return p.cfg }

// UnitPrice returns the tax-included price of one item.
func (p Params) UnitPrice() Money { return p.cfg.UnitPrice }

// Basis returns the configured threshold basis.
func (p Params) Basis() Basis { return p.cfg.Basis }

// EarnRatio returns the earn ratio rate/(100+tax) as a reduced fraction.
func (p Params) EarnRatio() (num, den int64) { return p.num, p.den }

func (p Params) valid() bool { return p.den > 0 }

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
