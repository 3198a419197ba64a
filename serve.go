package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"coe-console/internal/config"
	"coe-console/internal/db"
	"coe-console/internal/logging"
	"coe-console/internal/server"
)

// runServer starts the REST backend and blocks until SIGINT or SIGTERM.
func runServer(memory bool, addr string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}

	log, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxBackups: 5,
		Compress:   true,
		Stdout:     true,
	})
	if err != nil {
		log.WithError(err).Warn("logging to stdout only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store server.Store
	if memory {
		log.Warn("using the in-memory store, data is lost on exit")
		store = server.NewMemoryStore(server.DefaultDepartments)
	} else {
		connString := cfg.Database.ConnectionString()
		if err := db.Migrate(connString); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st, err := db.Open(ctx, connString)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.LoadDepartments(ctx)
		if err != nil {
			return fmt.Errorf("load departments: %w", err)
		}
		log.WithFields(logrus.Fields{
			"db":          st.ConnInfo(),
			"departments": n,
		}).Info("database ready")
		store = st
	}

	srv := server.New(store, log, server.Options{
		CORSOrigins: cfg.CORSOrigins,
		Debug:       logging.ParseLevel(cfg.LogLevel) == logrus.DebugLevel,
	})
	return srv.Run(ctx, cfg.ListenAddr)
}
