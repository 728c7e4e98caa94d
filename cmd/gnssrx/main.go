package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"gnssrx/internal/config"
	"gnssrx/internal/logging"
	"gnssrx/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "summarize" {
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: gnssrx summarize <capture.log>")
			os.Exit(2)
		}
		if err := printSummary(os.Stdout, os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "summarize failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var configPath string
	flag.StringVar(&configPath, "config", "./gnssrx.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logs := web.NewLogBuffer(2000)
	logger := logging.NewWriter(io.MultiWriter(os.Stderr, logs), cfg.Log)
	log.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().Str("config", configPath).Msg("gnssrx starting")
	if err := run(ctx, cfg, logger, logs); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("gnssrx stopped")
		os.Exit(1)
	}
	logger.Info().Msg("gnssrx stopping")
}
