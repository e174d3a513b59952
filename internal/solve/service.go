package solve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/point-planner/internal/cache"
	"github.com/noah-isme/point-planner/internal/lock"
	"github.com/noah-isme/point-planner/internal/obs"
	"github.com/noah-isme/point-planner/internal/planner"
)

// ErrQuantityTooLarge is returned when a request asks for more items than the
// service is configured to plan.
var ErrQuantityTooLarge = errors.New("solve: quantity exceeds service limit")

// SolveFunc computes one plan. planner.Solve is the production implementation.
type SolveFunc func(ctx context.Context, params planner.Params, req planner.Request) (*planner.Result, error)

// ServiceConfig wires the collaborators of a Service.
type ServiceConfig struct {
	Defaults    planner.Config
	MaxQuantity int
	TimeLimit   time.Duration
	Cache       *cache.Cache
	Locker      lock.Locker
	LockTTL     time.Duration
	Logger      zerolog.Logger
	// Solver defaults to planner.Solve.
	Solver SolveFunc
}

// Service plans purchases on behalf of the HTTP layer. Exact plans are cached
// and identical concurrent requests are computed once.
type Service struct {
	defaults    planner.Config
	maxQuantity int
	timeLimit   time.Duration
	cache       *cache.Cache
	locker      lock.Locker
	lockTTL     time.Duration
	logger      zerolog.Logger
	solver      SolveFunc
	newID       func() string
}

// Outcome is the payload returned for a solved request.
type Outcome struct {
	PlanID string          `json:"planId"`
	Cached bool            `json:"cached"`
	Result *planner.Result `json:"result"`
}

// NewService validates the configured defaults and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if _, err := planner.NewParams(cfg.Defaults); err != nil {
		return nil, fmt.Errorf("solve: defaults: %w", err)
	}
	if cfg.MaxQuantity <= 0 {
		return nil, errors.New("solve: max quantity must be positive")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	solver := cfg.Solver
	if solver == nil {
		solver = planner.Solve
	}
	return &Service{
		defaults:    cfg.Defaults,
		maxQuantity: cfg.MaxQuantity,
		timeLimit:   cfg.TimeLimit,
		cache:       cfg.Cache,
		locker:      cfg.Locker,
		lockTTL:     lockTTL,
		logger:      cfg.Logger,
		solver:      solver,
		newID:       uuid.NewString,
	}, nil
}

// Defaults returns the planning parameters applied when a request omits them.
func (s *Service) Defaults() planner.Config {
	return s.defaults
}

// MaxQuantity returns the largest item count the service accepts.
func (s *Service) MaxQuantity() int {
	return s.maxQuantity
}

// Solve plans req under cfg, serving exact results from the cache when possible.
func (s *Service) Solve(ctx context.Context, cfg planner.Config, req planner.Request) (Outcome, error) {
	ctx, span := otel.Tracer("solve.Service").Start(ctx, "SolveService.Solve")
	defer span.End()

	started := time.Now()
	outcome := Outcome{}
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.Int("plan.quantity", req.Quantity),
			attribute.Bool("plan.cached", outcome.Cached),
			attribute.String("plan.result", result),
		)
	}()

	if req.Quantity <= 0 {
		result = "invalid"
		return outcome, fmt.Errorf("%w: got %d", planner.ErrInvalidQuantity, req.Quantity)
	}
	if req.Quantity > s.maxQuantity {
		result = "invalid"
		return outcome, fmt.Errorf("%w: %d > %d", ErrQuantityTooLarge, req.Quantity, s.maxQuantity)
	}
	params, err := planner.NewParams(cfg)
	if err != nil {
		result = "invalid"
		return outcome, err
	}
	obs.ObservePlanQuantity(req.Quantity)

	digest := cache.PlanDigest(cfg, req)
	if res, ok := s.lookup(ctx, digest); ok {
		outcome = Outcome{PlanID: s.newID(), Cached: true, Result: res}
		result = "cached"
		s.logPlan(outcome, req, started)
		return outcome, nil
	}

	err = s.locker.WithLock(ctx, cache.KeyPlanLock(digest), s.lockTTL, func(ctx context.Context) error {
		if res, ok := s.lookup(ctx, digest); ok {
			outcome.Result = res
			outcome.Cached = true
			return nil
		}
		res, err := s.compute(ctx, params, req)
		if err != nil {
			return err
		}
		outcome.Result = res
		if res.Meta.Exact {
			if err := s.cache.SetJSON(ctx, cache.KeyPlan(digest), res); err != nil {
				s.logger.Warn().Err(err).Str("digest", digest).Msg("store plan in cache")
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result = classify(err)
		obs.ObservePlan(result, false, obs.DurationMillis(time.Since(started)), 0)
		s.logger.Warn().Err(err).
			Int("quantity", req.Quantity).
			Int64("start_points", req.StartPoints).
			Str("result", result).
			Msg("plan_failed")
		return Outcome{}, err
	}

	outcome.PlanID = s.newID()
	result = "ok"
	if outcome.Cached {
		result = "cached"
	}
	s.logPlan(outcome, req, started)
	return outcome, nil
}

func (s *Service) compute(ctx context.Context, params planner.Params, req planner.Request) (*planner.Result, error) {
	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}
	res, err := s.solver(ctx, params, req)
	if err != nil {
		return nil, err
	}
	obs.ObservePlan("ok", res.Meta.Exact, obs.DurationMillis(res.Meta.Elapsed), res.Meta.StatesExpanded)
	return res, nil
}

func (s *Service) lookup(ctx context.Context, digest string) (*planner.Result, bool) {
	if !s.cache.Enabled() {
		return nil, false
	}
	var res planner.Result
	found, err := s.cache.GetJSON(ctx, cache.KeyPlan(digest), &res)
	switch {
	case err != nil:
		obs.ObservePlanCache("error")
		s.logger.Warn().Err(err).Str("digest", digest).Msg("read plan cache")
		return nil, false
	case !found:
		obs.ObservePlanCache("miss")
		return nil, false
	}
	obs.ObservePlanCache("hit")
	return &res, true
}

func (s *Service) logPlan(outcome Outcome, req planner.Request, started time.Time) {
	res := outcome.Result
	s.logger.Info().
		Str("plan_id", outcome.PlanID).
		Int("quantity", req.Quantity).
		Int("order_count", res.Summary.OrderCount).
		Int64("cash_total", res.Summary.CashTotal).
		Int64("leftover_points", res.Summary.LeftoverPoints).
		Int("states_expanded", res.Meta.StatesExpanded).
		Bool("exact", res.Meta.Exact).
		Bool("cached", outcome.Cached).
		Float64("duration_ms", obs.DurationMillis(time.Since(started))).
		Msg("plan_solved")
}

func classify(err error) string {
	switch {
	case errors.Is(err, planner.ErrNoFeasiblePlan), errors.Is(err, planner.ErrInconsistentPlan):
		return "no_plan"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, planner.ErrInvalidParams), errors.Is(err, planner.ErrInvalidQuantity),
		errors.Is(err, planner.ErrInvalidStartPoints), errors.Is(err, planner.ErrAmountOverflow):
		return "invalid"
	default:
		return "error"
	}
}
