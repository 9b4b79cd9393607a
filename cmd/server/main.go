package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/praxisdesk/praxisdesk/internal/application/port"
	"github.com/praxisdesk/praxisdesk/internal/application/service"
	"github.com/praxisdesk/praxisdesk/internal/config"
	"github.com/praxisdesk/praxisdesk/internal/export"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/notification"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/repository"
	"github.com/praxisdesk/praxisdesk/internal/infrastructure/persistence/sqlite"
	httpadapter "github.com/praxisdesk/praxisdesk/internal/interfaces/http"
	"github.com/praxisdesk/praxisdesk/pkg/database"
	"github.com/praxisdesk/praxisdesk/pkg/utils"
)

func main() {
	// Local .env overrides for development; absence is not an error.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting PraxisDesk",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	rawDB, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer rawDB.Close()

	migrator := database.NewMigrator(rawDB, logger)
	if err := migrator.Run(sqlite.Migrations()); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(rawDB.DB, logger)

	// Repositories
	docRepo := repository.NewDocumentRepository(db, logger)
	itemRepo := repository.NewLineItemRepository(db, logger)
	approvalRepo := repository.NewApprovalRepository(db, logger)
	timesheetRepo := repository.NewTimesheetRepository(db, logger)
	chargeRepo := repository.NewChargeRepository(db, logger)
	clientRepo := repository.NewClientRepository(db, logger)
	leadRepo := repository.NewLeadRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	seqRepo := repository.NewSequenceRepository(db, logger)

	// Notifier: Lark when credentials are configured, log-only otherwise.
	var notifier port.Notifier
	if cfg.Lark.AppID != "" {
		notifier = notification.NewLarkNotifier(notification.Config{
			AppID:         cfg.Lark.AppID,
			AppSecret:     cfg.Lark.AppSecret,
			APITimeout:    cfg.Lark.APITimeout,
			PortalBaseURL: cfg.Approval.PortalBaseURL,
		}, logger)
	} else {
		logger.Info("Lark credentials absent, using log-only notifier")
		notifier = notification.NewLogNotifier(logger)
	}

	// Services. The document service advances the workflow on consensus
	// signals, so the consensus engine receives it as its advancer.
	svcLogger := utils.SugarAdapter{S: logger.Sugar()}
	tokenService := service.NewTokenService(docRepo, userRepo, db, notifier, svcLogger)
	documentService := service.NewDocumentService(
		docRepo, clientRepo, leadRepo, userRepo, seqRepo, approvalRepo,
		tokenService, notifier, db, cfg.Company.DefaultCurrency, svcLogger)
	consensusService := service.NewConsensusService(
		docRepo, approvalRepo, userRepo, db, documentService, svcLogger)
	ledgerService := service.NewLedgerService(
		docRepo, itemRepo, timesheetRepo, chargeRepo, db, svcLogger)
	partyService := service.NewPartyService(
		clientRepo, leadRepo, userRepo, timesheetRepo, chargeRepo,
		cfg.Company.DefaultCurrency, svcLogger)

	statements := export.NewStatementWriter(cfg.Company.Name, logger)

	server := httpadapter.NewServer(
		httpadapter.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		documentService,
		ledgerService,
		consensusService,
		tokenService,
		partyService,
		statements,
		svcLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
