package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/rates"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	DatabaseURL      string
	Redis            *redis.Client
	Rates            *rates.Cache
	Weather          *weather.Overlay
	ItineraryService *itinerary.ServiceImpl
	ItineraryHandler *itinerary.HandlerImpl
}

// NewContainer initializes and returns a new dependency container. Redis is
// optional: without an address the caches stay in memory only.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	redisCfg := cfg.Repositories.Redis
	rdb, err := database.OpenRedis(ctx, redisCfg.Addr, redisCfg.Password, redisCfg.DB, logger)
	if err != nil {
		// The durable tier is an optimisation; run without it
		logger.Warn("Redis unavailable, caching in memory only", slog.Any("error", err))
		rdb = nil
	}

	var rateStore rates.Store
	var weatherStore weather.Store
	if rdb != nil {
		rateStore = database.NewRedisStore[types.ExchangeRate](rdb, "rates:")
		weatherStore = database.NewRedisStore[types.WeatherSample](rdb, "weather:")
	}

	rateCache := rates.NewCache(
		rates.NewFrankfurterClient(cfg.Rates.BaseURL, cfg.Rates.Timeout),
		rateStore,
		rates.Config{
			TTL:            cfg.Rates.TTL,
			FetchTimeout:   cfg.Rates.Timeout,
			FailureBackoff: cfg.Rates.FailureBackoff,
		},
		logger,
	)

	overlay := weather.NewOverlay(
		weather.NewOpenMeteoClient(cfg.Weather.ForecastURL, cfg.Weather.ArchiveURL, cfg.Weather.Timeout),
		weatherStore,
		weather.Config{
			TTL:                 cfg.Weather.TTL,
			FetchTimeout:        cfg.Weather.Timeout,
			FailureBackoff:      cfg.Weather.FailureBackoff,
			ForecastHorizonDays: cfg.Weather.ForecastHorizonDays,
		},
		logger,
	)

	itineraryRepo := itinerary.NewRepository(pool, logger)
	itineraryService := itinerary.NewServiceImpl(itineraryRepo, rateCache, overlay, itinerary.Config{
		ClusterRadiusKm:    cfg.Planner.ClusterRadiusKm,
		HotelRadiusKm:      cfg.Planner.HotelRadiusKm,
		WeatherConcurrency: cfg.Planner.WeatherConcurrency,
	}, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		DatabaseURL:      dbConfig.ConnectionURL,
		Redis:            rdb,
		Rates:            rateCache,
		Weather:          overlay,
		ItineraryService: itineraryService,
		ItineraryHandler: itineraryHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.DatabaseURL, c.Logger)
}
