package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpadp "girvi-backend/internal/adapter/http"
	"girvi-backend/internal/adapter/middleware"
	"girvi-backend/internal/adapter/repository/mysql"
	"girvi-backend/internal/auth"
	"girvi-backend/internal/config"
	entryDomain "girvi-backend/internal/domain/entry"
	userDomain "girvi-backend/internal/domain/user"
	"girvi-backend/internal/infrastructure/cache"
	"girvi-backend/internal/infrastructure/db"
	authUC "girvi-backend/internal/usecase/auth"
	entryUC "girvi-backend/internal/usecase/entry"
	reportUC "girvi-backend/internal/usecase/report"
	"girvi-backend/pkg/id"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(&entryDomain.Entry{}, &userDomain.User{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	entryRepo := mysql.NewEntryRepository(gdb)
	userRepo := mysql.NewUserRepository(gdb)
	if err := bootstrapAdmin(userRepo); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpHours)

	entries := entryUC.NewUsecaseWithCache(entryRepo, rdb, time.Duration(cfg.SuggestCacheMillis)*time.Millisecond)
	reports := reportUC.NewUsecase(entryRepo)
	sessions := authUC.NewUsecase(userRepo, jwtMgr)

	h := httpadp.NewHandler()
	entryHandler := httpadp.NewEntryHandler(entries)
	reportHandler := httpadp.NewReportHandler(reports)
	authHandler := httpadp.NewAuthHandler(sessions)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover(), middleware.Metrics())

	// public surface
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/api/auth/login", authHandler.Login)

	// everything else sits behind the session guard
	api := e.Group("/api",
		middleware.SessionGuard(jwtMgr),
		middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second),
	)
	api.POST("/entries", entryHandler.CreateEntry)
	api.GET("/entries/active", entryHandler.ListActive)
	api.GET("/entries/settled", entryHandler.ListSettled)
	api.GET("/entries/:entry_id", entryHandler.GetEntry)
	api.POST("/entries/:entry_id/settle", entryHandler.Settle)
	api.POST("/entries/:entry_id/renew", entryHandler.Renew)
	api.POST("/entries/:entry_id/revoke", entryHandler.Revoke)
	api.DELETE("/entries/:entry_id", entryHandler.DeleteEntry)
	api.GET("/customers/suggest", entryHandler.SuggestCustomers)
	api.GET("/reports/summary", reportHandler.Summary)
	api.GET("/reports/export", reportHandler.Export)
	api.POST("/reports/import", reportHandler.Import)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// bootstrapAdmin creates the first login from ADMIN_EMAIL/ADMIN_PASSWORD so a
// fresh deployment is reachable. No-op when unset or already present.
func bootstrapAdmin(users userDomain.Repository) error {
	email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, userDomain.ErrNotFound):
		return err
	}

	hash, err := authUC.HashPassword(password)
	if err != nil {
		return err
	}
	u := &userDomain.User{
		UserID:       id.NewID32(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	log.Printf("bootstrap admin %s created", email)
	return nil
}
