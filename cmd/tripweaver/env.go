package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tripweaver/tripweaver/internal/checkpoint"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/knowledge"
	"github.com/tripweaver/tripweaver/internal/providers"
	"github.com/tripweaver/tripweaver/internal/steps"
	"github.com/tripweaver/tripweaver/internal/tools"
)

type runtimeEnv struct {
	Cfg       *config.Config
	Logger    *zap.Logger
	Scheduler *engine.Scheduler

	store   *checkpoint.Store
	places  *tools.PlacesDB
	guides  *knowledge.Index
	watcher *knowledge.Watcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		r.watcher.Stop()
	}
	if r.guides != nil {
		_ = r.guides.Close()
	}
	if r.places != nil {
		_ = r.places.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
}

func prepareRuntimeEnv(ctx context.Context, watchGuides bool) (*runtimeEnv, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfgManager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	cfg, err := cfgManager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Config takes precedence over stale shell environment when set.
	if cfg.LLMProvider != "" {
		os.Setenv("LLM_PROVIDER", cfg.LLMProvider)
	}
	if cfg.TavilyAPIKey != "" {
		os.Setenv("TAVILY_API_KEY", cfg.TavilyAPIKey)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	llm, modelName, err := providers.NewLLMClientFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Model != "" {
		modelName = cfg.Model
	}
	logger.Info("model client ready",
		zap.String("provider", os.Getenv("LLM_PROVIDER")),
		zap.String("model", modelName))

	store, err := checkpoint.NewStore(ctx, cfg.CheckpointPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	env := &runtimeEnv{Cfg: cfg, Logger: logger, store: store}

	env.places, err = tools.OpenPlacesDB(ctx, cfg.PlacesPath())
	if err != nil {
		logger.Warn("places database unavailable", zap.Error(err))
		env.places = nil
	}

	env.guides, err = knowledge.Open(cfg.GuideIndexPath())
	if err != nil {
		logger.Warn("guide index unavailable", zap.Error(err))
		env.guides = nil
	} else if cfg.GuidesDir != "" {
		if err := env.guides.IndexDir(cfg.GuidesDir); err != nil {
			logger.Warn("guide indexing failed", zap.Error(err))
		}
		if watchGuides {
			env.watcher, err = knowledge.NewWatcher(cfg.GuidesDir, env.guides, logger)
			if err != nil {
				logger.Warn("guide watcher unavailable", zap.Error(err))
				env.watcher = nil
			} else if err := env.watcher.Start(); err != nil {
				logger.Warn("guide watcher failed to start", zap.Error(err))
				env.watcher = nil
			}
		}
	}

	var search tools.SearchClient
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		search = tools.NewTavilyClient(key)
	} else {
		logger.Info("TAVILY_API_KEY not set, web search disabled")
	}

	deps := steps.NewDeps(llm, modelName, tools.Registry(search, env.places, env.guides))
	deps.Hooks = engine.Hooks{&engine.ZapHook{L: logger}}
	deps.ReviewCap = cfg.ReviewCap
	deps.MaxClarifyRounds = cfg.ClarifyRounds
	deps.HistoryBudget = cfg.HistoryBudget

	env.Scheduler, err = engine.NewScheduler(deps.Graph(), store,
		engine.WithHooks(deps.Hooks...),
		engine.WithCallTimeout(cfg.CallTimeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}

	return env, nil
}
