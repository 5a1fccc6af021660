package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/football-sync/external/footballdata"
	"github.com/riskibarqy/football-sync/external/providerhttp"
	"github.com/riskibarqy/football-sync/external/thesportsdb"
	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/postgres"
	idgen "github.com/riskibarqy/football-sync/internal/platform/id"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const dbPingTimeout = 10 * time.Second

// Options changes how the service graph is assembled.
type Options struct {
	// DryRun swaps the Postgres store for an empty in-memory one so a run
	// fetches and reconciles without persisting anything.
	DryRun bool
	// HTTPClient overrides the provider transport. Tests point it at
	// httptest servers.
	HTTPClient *http.Client
}

// App is the assembled sync service graph.
type App struct {
	Config   config.Config
	Logger   *logging.Logger
	Store    usecase.Store
	Resolver *usecase.IdentityResolver
	Sync     *usecase.SyncService

	limiter *ratelimit.Registry
	clients []*providerhttp.Client
	db      *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	limiter, err := NewLimiter(cfg)
	if err != nil {
		return nil, err
	}

	var (
		store usecase.Store
		db    *sqlx.DB
	)
	if opts.DryRun {
		store = memory.NewStore()
		logger.Info("dry run, using in-memory store")
	} else {
		db, err = OpenDB(cfg)
		if err != nil {
			limiter.Close()
			return nil, err
		}
		store = postgres.NewStore(db, logger)
	}

	ids := idgen.NewUUIDGenerator()
	resolver := usecase.NewIdentityResolver(ids, logger)
	adapters, clients := NewAdapters(cfg, limiter, opts.HTTPClient, logger)
	syncSvc := usecase.NewSyncService(
		store,
		adapters,
		limiter,
		resolver,
		usecase.NewMergeEngine(),
		ids,
		SyncConfig(cfg),
		logger,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Resolver: resolver,
		Sync:     syncSvc,
		limiter:  limiter,
		clients:  clients,
		db:       db,
	}, nil
}

// PurgeResponseCaches drops every cached provider response so the next run
// starts from live data.
func (a *App) PurgeResponseCaches() {
	for _, client := range a.clients {
		client.PurgeCache()
	}
}

// Close releases blocked limiter waiters and the database pool.
func (a *App) Close() error {
	a.limiter.Close()
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func OpenDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := PostgresDSN(cfg.DBURL, DSNOptions{
		ApplicationName:       cfg.ServiceName,
		DisablePreparedBinary: cfg.DBDisablePreparedBinary,
	})
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromDSN(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewLimiter registers one throttle per enabled source.
func NewLimiter(cfg config.Config) (*ratelimit.Registry, error) {
	registry := ratelimit.NewRegistry()
	sources := []struct {
		source usecase.Source
		cfg    config.SourceConfig
	}{
		{usecase.SourceTheSportsDB, cfg.TheSportsDB},
		{usecase.SourceFootballData, cfg.FootballData},
	}
	for _, item := range sources {
		if !item.cfg.Enabled {
			continue
		}
		policy := ratelimit.Policy{MaxRequests: item.cfg.RateMaxRequests, Window: item.cfg.RateWindow}
		if err := registry.Register(string(item.source), policy); err != nil {
			registry.Close()
			return nil, fmt.Errorf("register rate limit: %w", err)
		}
	}
	return registry, nil
}

// NewAdapters builds an adapter for every enabled source along with its
// transport. The limiter also paces transport retries and the extra requests
// a single adapter call makes.
func NewAdapters(
	cfg config.Config,
	limiter usecase.Limiter,
	httpClient *http.Client,
	logger *logging.Logger,
) ([]usecase.SourceAdapter, []*providerhttp.Client) {
	var (
		adapters []usecase.SourceAdapter
		clients  []*providerhttp.Client
	)

	if cfg.TheSportsDB.Enabled {
		leagues := make(map[string]string, len(cfg.Competitions))
		for _, item := range cfg.Competitions {
			leagues[item.Code] = item.TheSportsDBLeague
		}
		client := providerhttp.New(providerhttp.Config{
			Source:     usecase.SourceTheSportsDB,
			BaseURL:    cfg.TheSportsDB.BaseURL,
			Timeout:    cfg.TheSportsDB.Timeout,
			MaxRetries: cfg.TheSportsDB.MaxRetries,
			UserAgent:  cfg.UserAgent,
			HTTPClient: httpClient,
			Logger:     logger,
			Breaker:    cfg.TheSportsDB.Breaker,
			Pacer:      limiter,
			Secrets:    pathKeySecrets(cfg.TheSportsDB.APIKey),
			CacheTTL:   cfg.ResponseCacheTTL,
		})
		clients = append(clients, client)
		adapters = append(adapters, thesportsdb.New(client, thesportsdb.Config{
			APIKey:  cfg.TheSportsDB.APIKey,
			Leagues: leagues,
			Pacer:   limiter,
			Logger:  logger.Named("thesportsdb"),
		}))
	}

	if cfg.FootballData.Enabled {
		competitions := make(map[string]string, len(cfg.Competitions))
		for _, item := range cfg.Competitions {
			competitions[item.Code] = item.FootballDataCode
		}
		client := providerhttp.New(providerhttp.Config{
			Source:     usecase.SourceFootballData,
			BaseURL:    cfg.FootballData.BaseURL,
			Timeout:    cfg.FootballData.Timeout,
			MaxRetries: cfg.FootballData.MaxRetries,
			UserAgent:  cfg.UserAgent,
			Headers:    map[string]string{"X-Auth-Token": cfg.FootballData.APIKey},
			HTTPClient: httpClient,
			Logger:     logger,
			Breaker:    cfg.FootballData.Breaker,
			Pacer:      limiter,
			Secrets:    []string{cfg.FootballData.APIKey},
			CacheTTL:   cfg.ResponseCacheTTL,
		})
		clients = append(clients, client)
		adapters = append(adapters, footballdata.New(client, footballdata.Config{
			Competitions: competitions,
			Logger:       logger.Named("football_data"),
		}))
	}

	return adapters, clients
}

func SyncConfig(cfg config.Config) usecase.SyncConfig {
	providerIDs := make(map[usecase.Source]string, 2)
	if cfg.TheSportsDB.Enabled && cfg.TheSportsDB.TeamID != "" {
		providerIDs[usecase.SourceTheSportsDB] = cfg.TheSportsDB.TeamID
	}
	if cfg.FootballData.Enabled && cfg.FootballData.TeamID != "" {
		providerIDs[usecase.SourceFootballData] = cfg.FootballData.TeamID
	}

	competitions := make([]season.Competition, 0, len(cfg.Competitions))
	for _, item := range cfg.Competitions {
		competitions = append(competitions, season.Competition{Code: item.Code, Name: item.Name})
	}

	return usecase.SyncConfig{
		Team: usecase.TeamRef{
			Name:        cfg.TeamName,
			ProviderIDs: providerIDs,
		},
		Competitions:     competitions,
		MaxWorkers:       cfg.MaxWorkers,
		RateLimitRetries: cfg.RateLimitRetries,
	}
}

// pathKeySecrets skips the public test key; scrubbing a single digit would
// mangle every logged URL.
func pathKeySecrets(key string) []string {
	key = strings.TrimSpace(key)
	if len(key) < 4 {
		return nil
	}
	return []string{key}
}
