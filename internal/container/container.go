package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-parisian-doors/app/db"
	"github.com/FACorreiaa/go-parisian-doors/config"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/boundary"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/door"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/geocoding"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/location"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/poi"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	POIService       poi.Service
	BoundaryService  boundary.Service
	LocationService  location.Service
	GeocodingService geocoding.Service
	DoorService      door.Service

	LocationHandler  *location.HandlerImpl
	GeocodingHandler *geocoding.HandlerImpl
	DoorHandler      *door.HandlerImpl
}

// NewContainer opens the database pool and, when enabled, the redis client,
// then wires every service on top of them.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
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

	var (
		rdb   *redis.Client
		cache geocoding.Cache
	)
	if cfg.Repositories.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Repositories.Redis.Addr,
			Password: cfg.Repositories.Redis.Password,
			DB:       cfg.Repositories.Redis.DB,
		})
		cache = geocoding.NewRedisCache(rdb, cfg.Geocoding.CacheTTL, logger)
		logger.Info("Geocode cache backed by redis", slog.String("addr", cfg.Repositories.Redis.Addr))
	}

	c := Assemble(cfg, logger, pool, cache)
	c.Pool = pool
	c.Redis = rdb
	return c, nil
}

// Assemble wires services and handlers over an already opened store. A nil
// cache selects the in-process one.
func Assemble(cfg *config.Config, logger *slog.Logger, db door.DB, cache geocoding.Cache) *Container {
	if cache == nil {
		cache = geocoding.NewMemoryCache(cfg.Geocoding.CacheTTL)
	}

	poiService := poi.NewServiceImpl(poi.NewEmbeddedRepository(logger), logger)

	boundarySource := boundary.NewHTTPSource(cfg.Boundaries.URL, cfg.Geocoding.UserAgent, cfg.Boundaries.Timeout, logger)
	boundaryService := boundary.NewServiceImpl(boundarySource, logger,
		boundary.WithTimeout(cfg.Boundaries.Timeout),
		boundary.WithRetryAfter(cfg.Boundaries.RetryAfter))

	locationService := location.NewServiceImpl(poiService, boundaryService, logger)
	locationHandler := location.NewHandlerImpl(locationService, poiService, logger)

	nominatim := geocoding.NewNominatimClient(geocoding.ClientConfig{
		BaseURL:           cfg.Geocoding.BaseURL,
		UserAgent:         cfg.Geocoding.UserAgent,
		Timeout:           cfg.Geocoding.Timeout,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
		BreakerFailures:   cfg.Geocoding.BreakerFailures,
		BreakerTimeout:    cfg.Geocoding.BreakerTimeout,
	}, logger)
	geocodingService := geocoding.NewServiceImpl(nominatim, locationService, logger,
		geocoding.WithCache(cache),
		geocoding.WithVariantDelay(cfg.Geocoding.VariantDelay))
	geocodingHandler := geocoding.NewHandlerImpl(geocodingService, logger)

	doorRepo := door.NewPostgresRepository(db, logger)
	doorService := door.NewServiceImpl(doorRepo, geocodingService, locationService, logger,
		door.WithDelays(cfg.Migration.GeocodeDelay, cfg.Migration.NeighborhoodDelay))
	doorHandler := door.NewHandlerImpl(doorService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		POIService:       poiService,
		BoundaryService:  boundaryService,
		LocationService:  locationService,
		GeocodingService: geocodingService,
		DoorService:      doorService,
		LocationHandler:  locationHandler,
		GeocodingHandler: geocodingHandler,
		DoorHandler:      doorHandler,
	}
}

// Warmup loads the boundary dataset so the first resolve does not pay for
// the download. Failures are logged; later calls retry.
func (c *Container) Warmup(ctx context.Context) {
	if err := c.BoundaryService.EnsureLoaded(ctx); err != nil {
		c.Logger.WarnContext(ctx, "Boundary dataset unavailable at startup", slog.Any("error", err))
	}
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
