// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"carrental/internal/config"
	httptransport "carrental/internal/http"
	"carrental/internal/infra"
	"carrental/internal/modules/agreement"
	"carrental/internal/modules/billing"
	"carrental/internal/modules/charges"
	"carrental/internal/modules/costsheet"
	"carrental/internal/modules/inspection"
	"carrental/internal/modules/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("connect db")
	}
	defer dbPool.Close()
	if cfg.DB.AutoMigrate {
		if err := infra.Migrate(ctx, dbPool, cfg.DB.MigrationsDir); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	defer redisClient.Close()

	table, err := cfg.RateTable()
	if err != nil {
		log.WithError(err).Fatal("rate table")
	}
	calc := charges.New(table)

	agreementSvc := agreement.NewService(agreement.NewStore(dbPool))
	settlementSvc := settlement.NewService(
		settlement.NewStore(dbPool),
		inspection.NewStore(dbPool),
		calc,
		log.WithField("module", "settlement"),
	)
	costsheetSvc := costsheet.NewService(
		costsheet.NewStore(dbPool),
		agreementSvc,
		costsheet.NewRedisLocker(redisClient),
		costsheet.Options{AutoApprove: cfg.CostSheet.AutoApprove, LockTTL: cfg.CostSheet.LockTTL},
		log.WithField("module", "costsheet"),
	)
	billingSvc := billing.NewService(
		billing.NewStore(dbPool),
		calc,
		cfg.Billing.BatchConcurrency,
		log.WithField("module", "billing"),
	)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Settlement: settlementSvc,
		Agreement:  agreementSvc,
		CostSheet:  costsheetSvc,
		Billing:    billingSvc,
		Log:        log.WithField("module", "http"),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
}
