package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinmod/common"
	"coinmod/database"
	"coinmod/discordbot"
	"coinmod/modules/filtering"
	"coinmod/modules/ledger"
	"coinmod/modules/maintenance"
	"coinmod/modules/moderation"
	"coinmod/modules/payments"
	"coinmod/routes"

	"github.com/diamondburned/arikawa/v3/state"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "coinmod",
		Usage: "coin-backed moderation bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.json",
				Usage:   "path to the JSON config file",
				EnvVars: []string{"COINMOD_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "connect the bot and serve the operator API",
				Action: runBot,
			},
			{
				Name:   "migrate",
				Usage:  "create the database schema and exit",
				Action: runMigrate,
			},
			{
				Name:   "maintenance",
				Usage:  "run a single maintenance pass and exit",
				Action: runMaintenance,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type env struct {
	config *common.ConfigStr
	logger *zap.Logger
	db     *bun.DB
	store  *ledger.Store
}

func setup(cctx *cli.Context) (*env, error) {
	config, err := common.LoadConfig(cctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := common.NewLogger(config.LogLevel, config.Debug)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cctx.Context, config, logger)
	if err != nil {
		return nil, err
	}

	return &env{
		config: config,
		logger: logger,
		db:     db,
		store:  ledger.New(db, common.NewCache()),
	}, nil
}

func (e *env) close() {
	e.db.Close()
	e.logger.Sync()
}

func runMigrate(cctx *cli.Context) error {
	// InitDB creates the schema
	e, err := setup(cctx)
	if err != nil {
		return err
	}
	defer e.close()

	e.logger.Info("schema up to date")
	return nil
}

func runMaintenance(cctx *cli.Context) error {
	e, err := setup(cctx)
	if err != nil {
		return err
	}
	defer e.close()

	if e.config.BotToken == "" {
		return errors.New("bot_token is required to resync roles")
	}
	s := state.New("Bot " + e.config.BotToken)
	engine := newEngine(e, discordbot.NewFrontend(s, common.NewCache()), filtering.New(e.store, common.NewCache()))

	result, err := maintenance.New(e.store, engine, 0, e.logger).Run(cctx.Context)
	if err != nil {
		return err
	}
	e.logger.Info("maintenance done",
		zap.Int64("advertences", result.ExpiredAdvertences),
		zap.Int64("messages", result.ExpiredMessages),
		zap.Int("synced", result.Synced),
		zap.Int("failures", result.SyncFailures),
	)
	return nil
}

func newEngine(e *env, frontend moderation.Frontend, filter moderation.WordFilter) *moderation.Engine {
	return moderation.New(
		e.store,
		frontend,
		payments.NewClient(e.config.Coin, e.logger.Named("payments")),
		moderation.Options{
			Logger:          e.logger.Named("engine"),
			Filter:          filter,
			FrontendTimeout: e.config.FrontendTimeout(),
			PaymentTimeout:  e.config.PaymentTimeout(),
		},
	)
}

func runBot(cctx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(cctx)
	if err != nil {
		return err
	}
	defer e.close()

	if e.config.BotToken == "" {
		return errors.New("bot_token is required")
	}

	s := state.New("Bot " + e.config.BotToken)
	frontend := discordbot.NewFrontend(s, common.NewCache())
	filter := filtering.New(e.store, common.NewCache())
	engine := newEngine(e, frontend, filter)
	bot := discordbot.New(s, frontend, engine, filter, e.logger.Named("bot"))
	job := maintenance.New(e.store, engine, e.config.MaintenanceInterval(), e.logger.Named("maintenance"))

	registerLedgerGauges(e.store)
	srv := &http.Server{
		Addr: ":" + e.config.Port,
		Handler: routes.NewRouter(engine, job, routes.Options{
			AdminToken: e.config.AdminToken,
			Health:     e.db.PingContext,
			Logger:     e.logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		e.logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	if err := bot.Open(ctx); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	go job.Start(ctx)

	<-ctx.Done()
	e.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.logger.Warn("http shutdown", zap.Error(err))
	}
	return bot.Close()
}
