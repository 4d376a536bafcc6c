// Package roller is the application service shared by the CLI, the console and the HTTP API.
// It parses expressions, rolls them with per-request random streams and caches distributions.
package roller

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/DaanHessen/rollwright/internal/bruteforce"
	"github.com/DaanHessen/rollwright/internal/engine"
	"github.com/DaanHessen/rollwright/internal/logger"
	"github.com/DaanHessen/rollwright/internal/metrics"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/store"
	"github.com/DaanHessen/rollwright/internal/text"
	"github.com/DaanHessen/rollwright/internal/trace"
)

// PresetPrefix marks a preset reference, e.g. "@fireball+2".
const PresetPrefix = "@"

// DefaultHistoryLimit is used when History is asked for zero or fewer rows.
const DefaultHistoryLimit = 20

// HistoryStore persists rolls. store.RollRepo satisfies it.
type HistoryStore interface {
	Insert(ctx context.Context, rec store.RollRecord) (uuid.UUID, error)
	Recent(ctx context.Context, limit int) ([]store.RollRecord, error)
}

// PresetStore persists named expressions. store.PresetRepo satisfies it.
type PresetStore interface {
	Upsert(ctx context.Context, name, expression string) error
	List(ctx context.Context) ([]store.Preset, error)
	Get(ctx context.Context, name string) (store.Preset, error)
	Delete(ctx context.Context, name string) error
}

// Service rolls expressions and computes their distributions.
type Service interface {
	Roll(ctx context.Context, src string) (*RollResult, error)
	Distribution(ctx context.Context, src string, target *int) (*DistResult, error)
	Functions() []engine.FunctionDoc
	History(ctx context.Context, limit int) ([]store.RollRecord, error)
	SavePreset(ctx context.Context, name, src string) error
	Presets(ctx context.Context) ([]store.Preset, error)
	DeletePreset(ctx context.Context, name string) error
}

// RollResult is one sampled roll.
type RollResult struct {
	ID         uuid.UUID   `json:"id"`
	RequestID  string      `json:"request_id"`
	Expression string      `json:"expression"`
	Canonical  string      `json:"canonical"`
	Value      int         `json:"value"`
	Trace      trace.Trace `json:"trace"`
	Text       string      `json:"text"`
}

// DistResult is a distribution pruned for display. Mean, Sigma and AtLeast are taken
// from the full distribution before pruning.
type DistResult struct {
	Expression  string      `json:"expression"`
	Canonical   string      `json:"canonical"`
	Masses      []prob.Mass `json:"masses"`
	Mean        float64     `json:"mean"`
	Sigma       float64     `json:"sigma"`
	Approximate bool        `json:"approximate"`
	Target      *int        `json:"target,omitempty"`
	AtLeast     float64     `json:"at_least,omitempty"`
	Pruned      int         `json:"pruned"`
	Cached      bool        `json:"cached"`
}

// View adapts r for a text.Renderer.
func (r *DistResult) View() text.DistView {
	return text.DistView{
		Masses:      r.Masses,
		Mean:        r.Mean,
		Sigma:       r.Sigma,
		Approximate: r.Approximate,
		Target:      r.Target,
		AtLeast:     r.AtLeast,
	}
}

// Options configures a Service. History and Presets may be nil.
type Options struct {
	Seed       rng.Seed
	Limits     prob.Limits
	Sampling   bruteforce.Options
	CacheSize  int // 0 disables the distribution cache
	CacheTTL   time.Duration
	PruneRatio float64
	History    HistoryStore
	Presets    PresetStore
}

type service struct {
	opts    Options
	cache   *expirable.LRU[string, prob.ProbDist]
	flights singleflight.Group
}

var (
	presetName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	validate   = validator.New()
)

func init() {
	_ = validate.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		return presetName.MatchString(fl.Field().String())
	})
}

// NewService builds a Service.
func NewService(opts Options) Service {
	if opts.PruneRatio <= 0 {
		opts.PruneRatio = prob.DefaultPruneRatio
	}
	s := &service{opts: opts}
	if opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, prob.ProbDist](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

func (s *service) Functions() []engine.FunctionDoc { return engine.Functions() }

// parse resolves a leading preset reference and parses the result.
func (s *service) parse(ctx context.Context, src string) (*engine.Expression, error) {
	trimmed := strings.TrimSpace(src)
	if !strings.HasPrefix(trimmed, PresetPrefix) {
		return engine.Parse(src)
	}
	if s.opts.Presets == nil {
		return nil, ErrPresetsDisabled
	}
	name, rest := splitPresetRef(trimmed[len(PresetPrefix):])
	p, err := s.opts.Presets.Get(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "preset %q", name)
	}
	return engine.Parse("(" + p.Expression + ")" + rest)
}

// splitPresetRef splits "name+3" into "name" and "+3".
func splitPresetRef(ref string) (string, string) {
	i := 0
	for i < len(ref) && presetName.MatchString(ref[i:i+1]) {
		i++
	}
	return ref[:i], ref[i:]
}

func (s *service) requestID(ctx context.Context) (context.Context, string) {
	if id, ok := logger.RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := logger.GenerateRequestID()
	return logger.WithRequestID(ctx, id), id
}

func (s *service) env(label string) *engine.Env {
	return &engine.Env{Stream: s.opts.Seed.Stream(label), Limits: s.opts.Limits, Sampling: s.opts.Sampling}
}

func (s *service) Roll(ctx context.Context, src string) (*RollResult, error) {
	ctx, id := s.requestID(ctx)
	log := logger.FromContext(ctx)

	expr, err := s.parse(ctx, src)
	if err != nil {
		metrics.RollsTotal.WithLabelValues(metrics.ResultError).Inc()
		log.Debug(LogMsgRollFailed, "expression", src, "error", err)
		return nil, err
	}
	out := expr.Roll(s.env("request:" + id))
	res := &RollResult{
		RequestID:  id,
		Expression: src,
		Canonical:  expr.String(),
		Value:      out.Value,
		Trace:      out.Trace,
		Text:       out.Trace.String(),
	}
	metrics.RollsTotal.WithLabelValues(metrics.ResultOK).Inc()
	log.Info(LogMsgRolled, "expression", src, "value", out.Value)

	if s.opts.History != nil {
		rec := store.RollRecord{RequestID: id, Expression: src, Value: out.Value, Trace: out.Trace}
		rowID, err := s.opts.History.Insert(ctx, rec)
		if err != nil {
			// the roll itself succeeded
			log.Warn(LogMsgHistoryFailed, "error", err)
		} else {
			res.ID = rowID
		}
	}
	return res, nil
}

func (s *service) Distribution(ctx context.Context, src string, target *int) (*DistResult, error) {
	ctx, _ = s.requestID(ctx)
	log := logger.FromContext(ctx)

	expr, err := s.parse(ctx, src)
	if err != nil {
		return nil, err
	}
	key := expr.String()
	d, cached, err := s.dist(ctx, key, expr)
	if err != nil {
		return nil, err
	}
	if cached {
		log.Debug(LogMsgDistCacheHit, "canonical", key)
	}
	if d.Approximate() {
		log.Info(LogMsgDistApproximate, "canonical", key)
	}

	res := &DistResult{
		Expression:  src,
		Canonical:   key,
		Mean:        d.Expectation(),
		Sigma:       d.Sigma(),
		Approximate: d.Approximate(),
		Cached:      cached,
	}
	if target != nil {
		t := *target
		res.Target = &t
		res.AtLeast = d.AtLeast(t)
	}
	shown := d
	shown.Prune(s.opts.PruneRatio)
	res.Masses = shown.Masses()
	res.Pruned = d.Len() - len(res.Masses)
	return res, nil
}

// dist returns the cached distribution for key or computes it. Concurrent requests for
// the same key share one computation; a cancelled ctx abandons the wait, not the work.
func (s *service) dist(ctx context.Context, key string, expr *engine.Expression) (prob.ProbDist, bool, error) {
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
			return d, true, nil
		}
		metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		start := time.Now()
		d := expr.Dist(s.env("dist:" + key))
		elapsed := time.Since(start)

		metrics.DistributionDuration.Observe(elapsed.Seconds())
		metrics.DistributionsTotal.WithLabelValues(metrics.Kind(d.Approximate())).Inc()
		logger.FromContext(ctx).Debug(LogMsgDistComputed, "canonical", key, "outcomes", d.Len(), "elapsed", elapsed)
		if s.cache != nil {
			s.cache.Add(key, d)
		}
		return d, nil
	})
	select {
	case <-ctx.Done():
		return prob.ProbDist{}, false, ctx.Err()
	case r := <-ch:
		return r.Val.(prob.ProbDist), false, nil
	}
}

func (s *service) History(ctx context.Context, limit int) ([]store.RollRecord, error) {
	if s.opts.History == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	recs, err := s.opts.History.Recent(ctx, limit)
	return recs, errors.Wrap(err, "roll history")
}

func (s *service) SavePreset(ctx context.Context, name, src string) error {
	if s.opts.Presets == nil {
		return ErrPresetsDisabled
	}
	if err := validate.Var(name, "required,max=40,preset"); err != nil {
		return ErrInvalidPresetName
	}
	// presets may not refer to other presets
	if _, err := engine.Parse(src); err != nil {
		return err
	}
	if err := s.opts.Presets.Upsert(ctx, name, src); err != nil {
		return errors.Wrapf(err, "save preset %q", name)
	}
	logger.FromContext(ctx).Info(LogMsgPresetSaved, "preset", name)
	return nil
}

func (s *service) Presets(ctx context.Context) ([]store.Preset, error) {
	if s.opts.Presets == nil {
		return nil, ErrPresetsDisabled
	}
	ps, err := s.opts.Presets.List(ctx)
	return ps, errors.Wrap(err, "list presets")
}

func (s *service) DeletePreset(ctx context.Context, name string) error {
	if s.opts.Presets == nil {
		return ErrPresetsDisabled
	}
	if err := s.opts.Presets.Delete(ctx, name); err != nil {
		return errors.Wrapf(err, "delete preset %q", name)
	}
	logger.FromContext(ctx).Info(LogMsgPresetDeleted, "preset", name)
	return nil
}
