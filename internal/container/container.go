package container

import (
	"fmt"

	"simvote/adapters/chart"
	"simvote/adapters/excel"
	"simvote/adapters/trialfile"
	"simvote/app"
	"simvote/internal"
	"simvote/internal/config"
	"simvote/internal/dataset"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Reader   *trialfile.Reader
	Charts   *chart.Renderer
	Exporter *excel.Exporter
	Storage  *dataset.LocalFileStorage

	// Services
	Scenarios *app.ScenarioService
	Analysis  *app.AnalysisService
}

// New wires adapters and services from cfg
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Reader:   trialfile.NewReader(logger),
		Charts:   chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height, logger),
		Exporter: excel.NewExporter(excel.DefaultExportConfig(), logger),
		Storage:  dataset.NewLocalFileStorageWithPath(cfg.Output.Dir, cfg.Output.Overwrite),
	}
	c.Scenarios = app.NewScenarioService(c.Reader, cfg.Load.Concurrency, logger)
	c.Analysis = app.NewAnalysisService(c.Charts, c.Exporter, c.Storage, cfg.Chart.HistBins, logger)

	logger.Debug("[Container] Initialized (output %s, overwrite %v, %d load workers)",
		cfg.Output.Dir, cfg.Output.Overwrite, cfg.Load.Concurrency)
	return c, nil
}
