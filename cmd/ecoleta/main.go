package main

import (
	"errors"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/vbonduro/ecoleta/internal/api"
	"github.com/vbonduro/ecoleta/internal/config"
	"github.com/vbonduro/ecoleta/internal/form"
	"github.com/vbonduro/ecoleta/internal/logging"
	"github.com/vbonduro/ecoleta/internal/session"
	"github.com/vbonduro/ecoleta/internal/web"
	"github.com/vbonduro/ecoleta/internal/web/templates"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			_, _ = os.Stdout.WriteString(flagsErr.Message + "\n")
			os.Exit(0)
		}
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	backend := api.NewBackend(cfg.BackendURL)
	geography := api.NewGeography(cfg.GeographyURL)
	logger.Info("upstreams configured",
		"backend", backend.BaseURL(),
		"geography", geography.BaseURL(),
	)

	sessions := session.New(cfg.SessionCapacity, cfg.SessionTTL)
	defer sessions.Purge()

	newPage := func() *form.Page {
		return form.NewPage(backend, geography, logger)
	}
	server := web.NewServer(sessions, newPage, templates.FS, cfg.Map, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
