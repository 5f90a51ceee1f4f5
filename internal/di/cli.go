package di

import (
	"EpiCast/internal/domain/repository"
	"EpiCast/internal/usecase"
	pkgch "EpiCast/pkg/clickhouse"
	"EpiCast/pkg/config"
	"EpiCast/pkg/logger"
)

// CLI bundles the components the management CLI drives directly. Training
// runs inline in the CLI process; the queue is an app-side concern.
type CLI struct {
	Cfg       *config.Config
	Logger    *logger.Logger
	Importer  *usecase.Importer
	Sessions  *usecase.SessionService
	Pipeline  *usecase.TrainingPipeline
	DataRange *usecase.DataRangeService
	ModelMeta repository.ModelMetaStore

	chClient *pkgch.Client
}

// ProvideCLI assembles the CLI bundle.
func ProvideCLI(
	cfg *config.Config,
	log *logger.Logger,
	importer *usecase.Importer,
	sessions repository.SessionStore,
	pipeline *usecase.TrainingPipeline,
	dataRange *usecase.DataRangeService,
	modelMeta repository.ModelMetaStore,
	chClient *pkgch.Client,
) *CLI {
	return &CLI{
		Cfg:       cfg,
		Logger:    log,
		Importer:  importer,
		Sessions:  usecase.NewSessionService(sessions, pipeline, nil, log),
		Pipeline:  pipeline,
		DataRange: dataRange,
		ModelMeta: modelMeta,
		chClient:  chClient,
	}
}

// Close releases infrastructure clients.
func (c *CLI) Close() error {
	if c.chClient != nil {
		return c.chClient.Close()
	}
	return nil
}

// InitializeCLI wires the CLI bundle from config.
func InitializeCLI(cfg *config.Config) (*CLI, error) {
	log, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	m := ProvideMetrics()
	chClient, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	cacheSvc, err := ProvideCache(cfg)
	if err != nil {
		_ = chClient.Close()
		return nil, err
	}
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		_ = chClient.Close()
		return nil, err
	}

	series := ProvideSeriesStore(chClient, cfg)
	forecasts := ProvideForecastStore(chClient, cfg)
	sessions := ProvideSessionStore(chClient, cfg)
	modelMeta := ProvideModelMetaStore(chClient, cfg)
	reg := ProvideRegistry(cfg, cacheSvc, log)

	fcfg := ProvideForecastingConfig(cfg)
	trainer := ProvideTrainer(fcfg, log)
	forecaster := ProvideForecaster(fcfg, log)

	publisher := ProvideRecordPublisher(producer, cfg)
	processor := ProvideRecordProcessor(publisher, series, m, cfg)
	importer := ProvideImporter(processor, log)
	dataRange := ProvideDataRangeService(series)
	pipeline := ProvidePipeline(series, forecasts, sessions, modelMeta, reg, trainer, forecaster, m, cacheSvc, cfg, log)

	return ProvideCLI(cfg, log, importer, sessions, pipeline, dataRange, modelMeta, chClient), nil
}
