package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/freebetlabs/match-engine/external/oddsfeed"
	"github.com/freebetlabs/match-engine/internal/config"
	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/domain/user"
	"github.com/freebetlabs/match-engine/internal/domain/wager"
	"github.com/freebetlabs/match-engine/internal/infrastructure/repository/memory"
	"github.com/freebetlabs/match-engine/internal/infrastructure/repository/postgres"
	"github.com/freebetlabs/match-engine/internal/interfaces/httpapi"
	"github.com/freebetlabs/match-engine/internal/notify"
	"github.com/freebetlabs/match-engine/internal/platform/cache"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
	"github.com/freebetlabs/match-engine/internal/platform/resilience"
	"github.com/freebetlabs/match-engine/internal/usecase"
)

// memoryStorageURL selects the in-memory repositories instead of
// postgres. Meant for local development without a database.
const memoryStorageURL = "memory"

func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zlog := logging.Default()

	var (
		matchRepo match.Repository
		wagerRepo wager.Repository
		userRepo  user.Repository
		closeDB   = func() error { return nil }
	)
	if strings.EqualFold(strings.TrimSpace(cfg.DBURL), memoryStorageURL) {
		users := memory.NewUserRepository(memory.SeedUsers())
		matchRepo = memory.NewMatchRepository()
		wagerRepo = memory.NewWagerRepository(users)
		userRepo = users
		logger.Info("storage configured", "kind", "memory")
	} else {
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := postgres.BootstrapSeed(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap seed: %w", err)
		}
		matchRepo = postgres.NewMatchRepository(db)
		wagerRepo = postgres.NewWagerRepository(db)
		userRepo = postgres.NewUserRepository(db)
		closeDB = db.Close
		logger.Info("storage configured", "kind", "postgres", "db", dbNameFromURL(cfg.DBURL))
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	feedClient := oddsfeed.NewClient(oddsfeed.ClientConfig{
		BaseURL:    cfg.OddsFeedBaseURL,
		APIKey:     cfg.OddsFeedAPIKey,
		SportKey:   cfg.OddsFeedSportKey,
		Regions:    cfg.OddsFeedRegions,
		Markets:    cfg.OddsFeedMarkets,
		OddsFormat: cfg.OddsFeedOddsFormat,
		Bookmakers: cfg.OddsFeedBookmakers,
		DaysFrom:   cfg.OddsFeedDaysFrom,
		Timeout:    cfg.OddsFeedTimeout,
		MaxRetries: cfg.OddsFeedMaxRetries,
		Logger:     zlog,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OddsFeedCircuitEnabled,
			FailureThreshold: cfg.OddsFeedCircuitFailureCount,
			OpenTimeout:      cfg.OddsFeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OddsFeedCircuitHalfOpenMaxReq,
		},
	})

	var senders []notify.Sender
	if cfg.TelegramEnabled {
		senders = append(senders, notify.NewTelegramSender(notify.TelegramConfig{
			Token:   cfg.TelegramBotToken,
			ChatID:  cfg.TelegramChatID,
			Timeout: cfg.TelegramTimeout,
		}))
	}
	notifier := notify.NewNotifier(senders, zlog)

	syncSvc := usecase.NewSyncService(feedClient, matchRepo, zlog)
	settlementSvc := usecase.NewSettlementService(matchRepo, wagerRepo, notifier, zlog)
	matchSvc := usecase.NewMatchService(matchRepo, store, zlog)
	wagerSvc := usecase.NewWagerService(matchRepo, wagerRepo, userRepo, zlog)
	fullSyncSvc := usecase.NewFullSyncService(syncSvc, settlementSvc, zlog)

	handler := httpapi.NewHandler(matchSvc, wagerSvc, syncSvc, settlementSvc, fullSyncSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeDB, nil
}
