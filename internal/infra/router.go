package infra

import (
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/umalmyha/customersync/internal/auth"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/config"
	"github.com/umalmyha/customersync/internal/handlers"
	"github.com/umalmyha/customersync/internal/metrics"
	"github.com/umalmyha/customersync/internal/middleware"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/internal/validation"
	"github.com/umalmyha/customersync/pkg/db/transactor"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies holds established connections required by router
type Dependencies struct {
	PgPool      *pgxpool.Pool
	MongoClient *mongo.Client
	RedisClient *redis.Client
}

func Router(deps Dependencies, cfg config.Config) (*echo.Echo, error) {
	e := echo.New()
	e.HTTPErrorHandler = handlers.ErrorHandler(e)

	echoValidator, err := validation.NewEnglishEchoValidator()
	if err != nil {
		return nil, err
	}
	e.Validator = echoValidator

	// Metrics
	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Transactors
	trx := transactor.NewPgxTransactor(deps.PgPool)
	txExecutor := transactor.NewPgxWithinTransactionExecutor(deps.PgPool)

	// Middleware
	jwtValidator := auth.NewJwtValidator(cfg.JwtCfg.SigningMethod, cfg.JwtCfg.PublicKey)
	authorizeMw := middleware.Authorize(jwtValidator)

	// Repositories
	customerCache := cache.NewRedisCustomerCache(deps.RedisClient, cfg.RedisCfg.CustomerTimeToLive)
	pgCustomerRps := cache.NewCachedCustomerRepository(repository.NewPostgresCustomerRepository(txExecutor), customerCache)
	mongoCustomerRps := repository.NewMongoCustomerRepository(deps.MongoClient, cfg.MongoCfg.Database)

	// Services
	syncSvcV1 := service.NewCustomerSyncService(pgCustomerRps, syncMetrics)
	syncSvcV2 := service.NewCustomerSyncService(mongoCustomerRps, syncMetrics)

	// Handlers
	syncHandlerV1 := handlers.NewCustomerSyncHTTPHandler(syncSvcV1, trx)
	syncHandlerV2 := handlers.NewCustomerSyncHTTPHandler(syncSvcV2, nil)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// API routes
	api := e.Group("/api")

	// customers v1
	customersAPIV1 := api.Group("/v1/customers", authorizeMw)
	customersAPIV1.POST("/sync", syncHandlerV1.Sync)

	// customers v2
	customersAPIV2 := api.Group("/v2/customers", authorizeMw)
	customersAPIV2.POST("/sync", syncHandlerV2.Sync)

	return e, nil
}
