package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fengyx/quantback/internal/audit"
	"github.com/fengyx/quantback/internal/backtest"
	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/internal/signals"
	"github.com/fengyx/quantback/internal/store"
	"github.com/fengyx/quantback/internal/strategyconfig"
	"github.com/fengyx/quantback/pkg/config"
	"github.com/fengyx/quantback/pkg/database"
	"github.com/fengyx/quantback/pkg/logger"
)

// pipeline bundles the shared dependencies every command needs: config,
// logger, database pool and the two repositories.
type pipeline struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *database.DB
	predictions *store.PredictionRepository
	prices      *store.PriceRepository
}

func newPipeline() (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &pipeline{
		cfg:         cfg,
		log:         log,
		db:          db,
		predictions: store.NewPredictionRepository(db.Pool),
		prices:      store.NewPriceRepository(db.Pool),
	}, nil
}

func (p *pipeline) close() {
	p.db.Close()
}

// runInput is everything one backtest run reads. Loaded once and shared
// between sweep runs; nothing here is mutated after loading.
type runInput struct {
	batch  *contracts.PredictionBatch
	prices *contracts.PriceBook
}

func (p *pipeline) loadInput(ctx context.Context, modelID string, from, to time.Time) (*runInput, error) {
	batch, err := p.predictions.GetByModelAndRange(ctx, modelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	book, err := p.prices.GetCloses(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	p.log.WithFields(map[string]interface{}{
		"model":       modelID,
		"predictions": batch.Len(),
		"prices":      book.Len(),
	}).Info("Run input loaded")

	return &runInput{batch: batch, prices: book}, nil
}

// runOutcome is one strategy's complete result.
type runOutcome struct {
	strategy *strategyconfig.Config
	hash     string
	signals  *contracts.SignalBatch
	result   *contracts.BacktestResult
	report   *audit.Report
}

// runStrategy executes the full pipeline for one strategy file against
// already loaded input: generate signals, replay them, analyze the result.
func (p *pipeline) runStrategy(strategyPath string, modelID string, input *runInput) (*runOutcome, error) {
	strat, _, err := strategyconfig.Load(strategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyPath, err)
	}

	hash, err := strategyconfig.Hash(strat)
	if err != nil {
		return nil, fmt.Errorf("hash strategy %s: %w", strategyPath, err)
	}

	generator := signals.NewGenerator(strat.GeneratorConfig(), p.log)
	batch, err := generator.Generate(input.batch, input.prices)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}
	batch.ModelID = modelID

	engine, err := backtest.NewEngine(strat.EngineConfig(), p.log)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	result, err := engine.Run(batch, input.prices)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}
	result.ConfigHash = hash

	report := audit.Analyze(result.EquityCurve, result.Fragments, strat.Audit.RiskFreeRate)

	return &runOutcome{
		strategy: strat,
		hash:     hash,
		signals:  batch,
		result:   result,
		report:   report,
	}, nil
}

// parseRange parses --from/--to flags. An empty --to defaults to today.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	end := time.Now()
	if to != "" {
		end, err = time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}
