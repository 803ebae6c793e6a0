package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storefront/catalog/internal/auth"
	"storefront/catalog/internal/client"
	"storefront/catalog/internal/config"
	"storefront/catalog/internal/domain/event"
	"storefront/catalog/internal/handler"
	"storefront/catalog/internal/projection"
	"storefront/catalog/internal/queue"
	"storefront/catalog/internal/repository"
	"storefront/catalog/internal/service"
	"storefront/catalog/internal/state"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Attributes repository.AttributeRepository
	Terms      repository.TermRepository
	Queue      queue.Queue
	Cache      state.TaxonomyCache
	Source     projection.ProductSource

	Taxonomy   *service.TaxonomyService
	Projection *projection.Projection
	Consumer   *service.Consumer
	Router     *gin.Engine

	db    *pgxpool.Pool
	redis *redis.Client
}

// OpenDatabase connects to Postgres and verifies the connection.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("✅ Connected to Postgres successfully")
	return db, nil
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	container.db = db

	container.Attributes = repository.NewAttributeRepository(db)
	container.Terms = repository.NewTermRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	container.redis = rdb

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")

	// Every instance keeps its own product snapshot, so each needs its own consumer group
	// to see every change event.
	consumerName := instanceName()
	redisCfg := cfg.Redis
	redisCfg.ConsumerGroup = cfg.Redis.ConsumerGroup + ":" + consumerName

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, redisCfg)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Queue = redisQueue

	container.Cache = state.NewRedisTaxonomyCache(rdb, cfg.Taxonomy.TTL())

	switch cfg.Catalog.Source {
	case config.SourceHTTP:
		container.Source = client.NewCatalogClient(cfg.Catalog)
		log.Infof("🔗 Reading products from catalog service at %s", cfg.Catalog.BaseURL)
	default:
		container.Source = repository.NewProductRepository(db)
		log.Info("🔗 Reading products from the products table")
	}

	container.Taxonomy = service.NewTaxonomyService(container.Attributes, container.Terms, container.Cache, redisQueue)
	container.Projection = projection.New(container.Source, cfg.Catalog.ResyncEvery())

	container.Consumer = service.NewConsumer(redisQueue, consumerName, cfg.Redis.MinIdleTime)
	container.Consumer.Handle(event.ProductsChangedType, container.Projection.HandleProductsChanged)
	container.Consumer.Handle(event.TaxonomyChangedType, container.Taxonomy.HandleTaxonomyChanged)

	container.Router = handler.NewRouter(
		handler.NewStoreHandler(container.Taxonomy, container.Projection),
		handler.NewAdminHandler(container.Taxonomy),
		auth.NewVerifier(cfg.Auth),
	)

	return container, nil
}

// Run serves the HTTP API while keeping the product projection live. It returns when ctx is
// cancelled or any part fails.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Projection.Run(ctx)
	})

	g.Go(func() error {
		return c.Consumer.Run(ctx)
	})

	server := &http.Server{
		Addr:              c.Config.Server.Addr(),
		Handler:           c.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Infof("🚀 HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("catalog-%d", os.Getpid())
	}
	return host
}
