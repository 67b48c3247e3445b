package app

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/neo4j"
	"github.com/playalore/playalore/internal/clients/openai"
	"github.com/playalore/playalore/internal/clients/redis"
	"github.com/playalore/playalore/internal/db"
	"github.com/playalore/playalore/internal/graph"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/pools"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/styling"
	"github.com/playalore/playalore/internal/temporalx"
	"github.com/playalore/playalore/internal/temporalx/capsulebuild"
	"github.com/playalore/playalore/internal/tools"
)

// App wires every layer: stores, clients, repos, services, tools.
// Optional backends (redis, neo4j, temporal, openai) degrade to nil and
// the services fall back accordingly.
type App struct {
	Log *logger.Logger
	DB  *gorm.DB

	Temporal temporalsdkclient.Client
	Neo4j    *neo4j.Client

	Pools       *pools.Service
	Builder     *styling.Builder
	Persona     *styling.PersonaService
	Maintenance *styling.Maintenance
	Locks       redis.LockService

	ToolHandlers *tools.Handlers
}

func New(log *logger.Logger) (*App, error) {
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	thePG := postgresService.DB()

	rdb, err := redis.NewClient(log)
	if err != nil {
		log.Warn("Redis init failed; cache and locks disabled", "error", err)
		rdb = nil
	}
	cache := redis.NewPayloadCache(rdb, log)
	locks := redis.NewLockService(rdb, log)

	neoClient, err := neo4j.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed; graph bridge falls back to relational", "error", err)
		neoClient = nil
	}

	embedder, err := openai.NewEmbedder(log)
	if err != nil {
		log.Warn("Embedder init failed; semantic search disabled", "error", err)
		embedder = nil
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Warn("Temporal init failed; async builds disabled", "error", err)
		tc = nil
	}

	itemRepo := repos.NewItemRepo(thePG, log)
	entityRepo := repos.NewEntityRepo(thePG, log)
	capsuleRepo := repos.NewStyleCapsuleRepo(thePG, log)

	var bridgeSource pools.BridgeSource
	if neoClient != nil {
		bridgeSource = graph.NewPoolBridge(neoClient, log)
	}
	poolsService := pools.NewService(thePG, itemRepo, entityRepo, embedder, bridgeSource, log)

	stylingCfg := styling.LoadConfig(log)
	resolver := styling.NewResolver(thePG, itemRepo, entityRepo, poolsService, embedder, log)
	collector := styling.NewCollector(thePG, itemRepo, entityRepo, embedder, log)
	builder := styling.NewBuilder(thePG, resolver, collector, capsuleRepo, cache, stylingCfg, log)

	var enqueuer styling.BuildEnqueuer
	if tc != nil {
		enqueuer = temporalx.NewEnqueuer(tc, builder, log)
	}
	persona := styling.NewPersonaService(builder, enqueuer, log)
	maintenance := styling.NewMaintenance(thePG, capsuleRepo, enqueuer, stylingCfg, log)

	handlers := tools.NewHandlers(poolsService, persona, log)

	return &App{
		Log:          log,
		DB:           thePG,
		Temporal:     tc,
		Neo4j:        neoClient,
		Pools:        poolsService,
		Builder:      builder,
		Persona:      persona,
		Maintenance:  maintenance,
		Locks:        locks,
		ToolHandlers: handlers,
	}, nil
}

// WorkerActivities bundles the dependencies the Temporal worker needs.
func (a *App) WorkerActivities() *capsulebuild.Activities {
	return &capsulebuild.Activities{
		Log:         a.Log,
		Builder:     a.Builder,
		Maintenance: a.Maintenance,
		Locks:       a.Locks,
	}
}

// Close releases client connections.
func (a *App) Close(ctx context.Context) {
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Neo4j != nil {
		if err := a.Neo4j.Close(ctx); err != nil {
			a.Log.Warn("Neo4j close failed", "error", err)
		}
	}
}
