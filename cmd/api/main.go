package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/chainscribe-ledger/config"
	"github.com/swissborg/chainscribe-ledger/internal/api"
	"github.com/swissborg/chainscribe-ledger/internal/idempotency"
	"github.com/swissborg/chainscribe-ledger/internal/ledger"
	"github.com/swissborg/chainscribe-ledger/internal/taskqueue"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	log.Info("api service init...")
	defer log.Info("api service stop")

	ctx, cancelCancel := context.WithCancel(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	if err := godotenv.Load(".env"); err != nil {
		var pathError *fs.PathError
		if !errors.As(err, &pathError) {
			log.Fatalf("parsing .env file: %v", err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, keeping info")
	} else {
		log.SetLevel(level)
	}

	opts := []ledger.Option{ledger.WithNetwork(cfg.Ledger.Network)}
	if cfg.Ledger.Serialized() {
		queue := taskqueue.NewQueue()
		defer queue.Close()
		opts = append(opts, ledger.WithIssueQueue(queue))
	}
	store := ledger.NewStore(cfg.Ledger.Path, opts...)

	log.
		WithField("path", store.Path()).
		WithField("network", cfg.Ledger.Network).
		WithField("serializeIssuance", cfg.Ledger.Serialized()).
		Info("ledger configured")

	db, err := idempotency.OpenInMemory()
	if err != nil {
		log.Fatalf("failed to open badger %v", err)
	}
	defer db.Close()

	server := api.NewServer(store, idempotency.NewCache(db, cfg.Idempotency.TTL))

	go func() {
		if err := server.Start(cfg.APIConf); err != nil && (!errors.Is(err, http.ErrServerClosed)) {
			log.WithError(err).Fatal("shutting down the server")
		}
	}()

	waiting := make(chan struct{})
	go func() {
		defer close(waiting)
		select {
		case <-quit:
			log.Info("Gracefully stopping…")
			cancelCancel()

			if err := server.Stop(); err != nil {
				log.WithError(err).Fatal()
			}
		case <-ctx.Done():
			return
		}
	}()
	<-waiting
	log.Info("🏁 finished.")
}
