// Package main provides the Loreforge combat service binary: the HTTP API
// over the encounter and turn engines, backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/config"
	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/dice"
	"github.com/loreforge/loreforge/internal/game/encounter"
	"github.com/loreforge/loreforge/internal/httpapi"
	"github.com/loreforge/loreforge/internal/observability"
	"github.com/loreforge/loreforge/internal/server"
	"github.com/loreforge/loreforge/internal/storage/postgres"
)

// poolHealth adapts the pool's bounded health check to the API's interface.
type poolHealth struct {
	pool *postgres.Pool
}

func (p poolHealth) Health(ctx context.Context) error {
	return p.pool.Health(ctx, 5*time.Second)
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cryptoSrc := dice.NewCryptoSource()
	diceRoller := dice.NewLoggedRoller(cryptoSrc, logger)

	// Load the condition catalog.
	catalogStart := time.Now()
	registry, err := condition.LoadDirectory(cfg.Combat.ConditionDir)
	if err != nil {
		logger.Fatal("loading condition catalog",
			zap.String("dir", cfg.Combat.ConditionDir), zap.Error(err))
	}
	logger.Info("condition catalog loaded",
		zap.Int("conditions", len(registry.All())),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	// Connect to PostgreSQL.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	charRepo := postgres.NewCharacterRepository(pool.DB())
	monsterRepo := postgres.NewMonsterRepository(pool.DB())
	combatRepo := postgres.NewCombatRepository(pool.DB())

	resolver := encounter.NewResolver(charRepo, monsterRepo, logger)
	encounters := encounter.NewService(resolver, combatRepo, logger)
	sessions := combat.NewManager(combatRepo, diceRoller, logger, cfg.Combat.SaveTimeout)

	api := httpapi.NewServer(
		cfg.HTTP, logger, encounters, combatRepo, sessions, registry,
		poolHealth{pool: pool},
	)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("http", api)

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("combat service initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
