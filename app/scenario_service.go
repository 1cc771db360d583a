package app

import (
	"context"
	"time"

	"simvote/domain/core"
	"simvote/domain/scenario"
	"simvote/internal"
	"simvote/internal/errors"
	"simvote/ports"

	"golang.org/x/sync/errgroup"
)

// ScenarioService loads simulator runs
type ScenarioService struct {
	reader      ports.ScenarioReader
	concurrency int
	logger      *internal.Logger
}

// NewScenarioService creates a scenario service; LoadAll reads at most
// concurrency files at once
func NewScenarioService(reader ports.ScenarioReader, concurrency int, logger *internal.Logger) *ScenarioService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScenarioService{
		reader:      reader,
		concurrency: concurrency,
		logger:      logger.OrDefault(),
	}
}

// Load reads one scenario
func (s *ScenarioService) Load(ctx context.Context, csvPath string) (*scenario.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, err := s.reader.Load(csvPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load scenario %s", csvPath)
	}
	if sc.AnomalyCount() > 0 {
		s.logger.Warn("[ScenarioService] %s: %d rows carried extra values", csvPath, sc.AnomalyCount())
	}
	return sc, nil
}

// LoadAll reads every path concurrently. Results keep the input order; the
// first failure cancels the remaining loads.
func (s *ScenarioService) LoadAll(ctx context.Context, csvPaths []string) ([]*scenario.Scenario, error) {
	startTime := time.Now()
	scenarios := make([]*scenario.Scenario, len(csvPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, path := range csvPaths {
		i, path := i, path
		g.Go(func() error {
			sc, err := s.Load(gctx, path)
			if err != nil {
				return err
			}
			scenarios[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("[ScenarioService] Loaded %d scenarios in %.2fms", len(scenarios), core.Millis(startTime))
	return scenarios, nil
}
