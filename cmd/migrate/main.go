package main

import (
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"holdemsim-server/internal/config"
	"holdemsim-server/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	conn := waitForDB(cfg.PGDSN)
	if err := db.Migrate(conn, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("could not run migrations")
	}
}

func waitForDB(dsn string) *sql.DB {
	timeout := time.NewTimer(time.Second * 10)
	for {
		select {
		case <-timeout.C:
			logrus.Fatal("could not connect to database")
			return nil
		default:
			conn, err := db.Connect(dsn)
			if err == nil {
				return conn
			}

			time.Sleep(time.Millisecond * 500)
		}
	}
}
