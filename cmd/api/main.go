package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/picknic/picknic-backend/internal/config"
	"github.com/picknic/picknic-backend/internal/db"
	"github.com/picknic/picknic-backend/internal/model"
	appredis "github.com/picknic/picknic-backend/internal/redis"
	"github.com/picknic/picknic-backend/internal/server"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := conn.AutoMigrate(
		&model.UserPoint{},
		&model.PointHistory{},
		&model.Reward{},
		&model.User{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	rds, err := appredis.NewClient(cfg.RedisURL, cfg.RedisTimeout)
	if err != nil {
		log.Fatalf("redis client error: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.RedisTimeout)
	if err := rds.Ping(pingCtx); err != nil {
		log.Warnf("redis unreachable at startup, degrading: %v", err)
	}
	cancel()

	srv := server.New(conn, rds, cfg)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server stopped: %v", err)
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown error: %v", err)
		}
		_ = rds.Close()
	}
}
