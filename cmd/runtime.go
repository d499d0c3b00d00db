package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/config"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/llm"
	"github.com/abhisek/mediz/internal/metrics"
	"github.com/abhisek/mediz/internal/session"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/store"
	"github.com/abhisek/mediz/internal/tutor"
)

// runtime holds what every command needs: configuration, a logger and
// the opened store.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	closers []func() error
}

type runtimeOptions struct {
	// logToFile sends logs next to the database instead of stderr.
	logToFile bool
}

// openRuntime loads configuration, builds the logger and opens the store.
func openRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	var log *zap.Logger
	if opts.logToFile {
		log, err = config.NewFileLogger(cfg.Log.Mode, filepath.Join(filepath.Dir(dbPath), "mediz.log"))
	} else {
		log, err = config.NewLogger(cfg.Log.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log, store: st}
	rt.closers = append(rt.closers, st.Close)
	return rt, nil
}

// Close releases everything the runtime opened, most recent first.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = rt.log.Sync()
}

// llmConfig returns the generation provider settings: MEDIZ_* variables
// first, then the standard vendor API key variables.
func llmConfig() (llm.Config, bool) {
	cfg := llm.ConfigFromEnv()
	if cfg.Validate() == nil {
		return cfg, true
	}
	return llm.DiscoverConfig()
}

// gateway builds the generation gateway. Without a configured provider
// every generation call yields the apology text. m may be nil.
func (rt *runtime) gateway(ctx context.Context, m *metrics.Metrics) *llm.Gateway {
	cfg, ok := llmConfig()
	var provider llm.Provider
	if ok {
		p, err := llm.NewProvider(ctx, cfg, rt.store.EventRepo(), rt.log)
		if err != nil {
			rt.log.Warn("LLM provider unavailable, tutor replies will fall back", zap.Error(err))
		} else {
			provider = p
		}
	} else {
		rt.log.Warn("no LLM provider configured, tutor replies will fall back")
		cfg = llm.DefaultConfig()
	}

	gw := llm.NewGateway(provider, llm.GatewayConfigFrom(cfg), rt.log)
	if m != nil {
		gw.OnFallback(m.LLMFallback)
	}
	return gw
}

// seedCatalog syncs the embedded case catalog into the store.
func (rt *runtime) seedCatalog(ctx context.Context, force bool) (bool, error) {
	seed, err := clinical.LoadSeed()
	if err != nil {
		return false, err
	}
	return clinical.NewSeeder(rt.store.CaseRepo(), rt.log).Sync(ctx, seed, force)
}

// historyCache builds the configured session history cache, or nil.
func (rt *runtime) historyCache(ctx context.Context) (session.HistoryCache, error) {
	switch rt.cfg.Cache.Backend {
	case "memory":
		return session.NewMemoryHistoryCache(rt.cfg.Cache.TTL), nil
	case "redis":
		c, err := session.NewRedisHistoryCache(ctx, rt.cfg.Cache.RedisURL, rt.cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, c.Close)
		return c, nil
	}
	return nil, nil
}

// consultation bundles the services behind a running consultation.
type consultation struct {
	sessions *session.Service
	learners *learner.Service
	gateway  *llm.Gateway
}

// buildConsultation wires the tutoring pipeline. m may be nil.
func (rt *runtime) buildConsultation(ctx context.Context, m *metrics.Metrics) (*consultation, error) {
	if _, err := rt.seedCatalog(ctx, false); err != nil {
		return nil, fmt.Errorf("seed case catalog: %w", err)
	}

	cache, err := rt.historyCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("history cache: %w", err)
	}

	gw := rt.gateway(ctx, m)
	catalog := clinical.NewStoreCatalog(rt.store.CaseRepo())
	learners := learner.NewService(rt.store.LearnerRepo())

	deps := session.Deps{
		Learners:  learners,
		Sessions:  rt.store.SessionRepo(),
		Cases:     catalog,
		Detector:  diagnosis.NewDetector(gw),
		Responder: tutor.NewResponder(gw, clinical.NewSelector(catalog, rt.log), rt.cfg.TutorSettings()),
		Stars:     stars.NewScorer(rt.cfg.StarPolicy(), rt.store.EventRepo()),
		Logger:    rt.log,
	}
	if cache != nil {
		deps.Cache = cache
	}
	if m != nil {
		deps.Metrics = m
	}

	return &consultation{
		sessions: session.NewService(deps, session.Config{FinalFeedback: rt.cfg.Tutor.FinalFeedback}),
		learners: learners,
		gateway:  gw,
	}, nil
}
