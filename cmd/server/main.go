package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"holdemsim-server/internal/config"
	"holdemsim-server/internal/jwt"
	"holdemsim-server/internal/mux"
	"holdemsim-server/pkg/db"
	"holdemsim-server/pkg/events"
	"holdemsim-server/pkg/room"
	"holdemsim-server/pkg/simulator"
	"holdemsim-server/pkg/store"
	"holdemsim-server/pkg/turntimer"
)

const readTimeout = time.Second * 5
const writeTimeout = time.Second * 10

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", ":5000", "the listen address")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	setupLogger(cfg)

	// fail fast
	signer, err := jwt.NewFromFiles(cfg.JWT.PublicKey, cfg.JWT.PrivateKey)
	if err != nil {
		logrus.WithError(err).Fatal("could not load JWT keys")
	}

	conn, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to database")
	}

	if err := db.Migrate(conn, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("could not run migrations")
	}

	logger := logrus.StandardLogger()
	gameStore := store.New(conn)
	hub := events.NewHub(logger)
	timer := turntimer.New(logger)
	dealer := room.NewDealer(gameStore, hub, timer, time.Duration(cfg.TurnTimeoutSeconds)*time.Second, logger)
	runner := simulator.NewRunner(gameStore, dealer, logger)

	// keep bot games moving
	go runner.Run(context.Background(), time.Duration(cfg.Simulator.ProcessIntervalMs)*time.Millisecond, cfg.Simulator.BatchSize)

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      loggingHandler(cfg, c.Handler(mux.NewMux(Version, signer, dealer, hub, runner, logger))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	logrus.WithField("addr", srv.Addr).Info("listening")
	logrus.Fatal(srv.ListenAndServe())
}

func loggingHandler(cfg config.Config, next http.Handler) http.Handler {
	if cfg.Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger(cfg config.Config) {
	if lvl := cfg.Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
