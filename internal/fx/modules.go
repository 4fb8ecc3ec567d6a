package fx

import (
	"database/sql"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/database"
	"league-tracker/internal/ddragon"
	"league-tracker/internal/gateway"
	"league-tracker/internal/logger"
	"league-tracker/internal/metrics"
	"league-tracker/internal/repository"
	"league-tracker/internal/server"
	"league-tracker/internal/service"
)

func provideGateway(logger zerolog.Logger, m *metrics.Metrics) *gateway.Gateway {
	return gateway.New(logger, m)
}

func provideRiotClient(gw *gateway.Gateway, logger zerolog.Logger) *api.RiotClient {
	return api.NewRiotClient(gw, logger)
}

func provideEnricher(riot *api.RiotClient, champs *ddragon.Catalog, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *service.Enricher {
	return service.NewEnricher(riot, champs, cfg, logger, m)
}

func provideLiveGameService(riot *api.RiotClient, enricher *service.Enricher, db *sql.DB, logger zerolog.Logger, m *metrics.Metrics) *service.LiveGameService {
	lookups := repository.NewLookupRepository(db, logger)
	return service.NewLiveGameService(riot, enricher, lookups, logger, m)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(metrics.New),
	// outbound layer
	fx.Provide(provideGateway),
	fx.Provide(provideRiotClient),
	fx.Provide(ddragon.NewCatalog),
	// services
	fx.Provide(provideEnricher),
	fx.Provide(provideLiveGameService),
	// server
	fx.Provide(server.New),
)
