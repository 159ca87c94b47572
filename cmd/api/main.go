package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	httpadp "loan-workflow-engine/internal/adapter/http"
	"loan-workflow-engine/internal/adapter/middleware"
	"loan-workflow-engine/internal/adapter/repository/mysql"
	"loan-workflow-engine/internal/config"
	"loan-workflow-engine/internal/infrastructure/cache"
	"loan-workflow-engine/internal/infrastructure/db"
	"loan-workflow-engine/internal/usecase/approval"
	"loan-workflow-engine/internal/usecase/loan"
	"loan-workflow-engine/internal/usecase/repayment"
	"loan-workflow-engine/internal/usecase/risk"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := cfg.SQLitePath
	if cfg.DBDriver == "mysql" {
		dsn = cfg.MySQLDSN()
	}
	gdb, err := db.OpenGorm(db.Options{Driver: cfg.DBDriver, DSN: dsn, LogLevel: cfg.DBLogLevel, AutoMigrate: true})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	loans := mysql.NewLoanRepository(gdb)
	repayments := mysql.NewRepaymentRepository(gdb)
	requests := mysql.NewApprovalRepository(gdb)
	members := mysql.NewMemberDirectory(gdb)
	tx := mysql.NewGormUoW(gdb, cfg.LockWait)

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	h := httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "db", Ping: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Loans:      httpadp.NewLoanHandler(loan.NewUsecase(tx, loans, repayments, members, policy)),
		Repayments: httpadp.NewRepaymentHandler(repayment.NewUsecase(tx, loans, repayments, cfg.SettlementTolerance, cfg.OverpaymentMargin)),
		Approvals:  httpadp.NewApprovalHandler(approval.NewUsecase(tx, requests)),
		Reports:    httpadp.NewReportHandler(risk.NewUsecase(loans, repayments, cache.NewJSONCache(rdb, "risk:"), cfg.RiskCacheTTL)),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover(), middleware.HTTPMetrics())

	httpadp.Register(e, h, httpadp.RouteOptions{
		JWTSecret:      []byte(cfg.JWTSecret),
		Replays:        cache.NewJSONCache(rdb, "idemp:"),
		IdempotencyTTL: cfg.IdempotencyTTL(),
	})

	addr := ":" + cfg.AppPort
	go func() {
		log.Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
