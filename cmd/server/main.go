package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/config"
	"github.com/bh-premnath-git/bhui-sub000/internal/logging"
	"github.com/bh-premnath-git/bhui-sub000/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("FORMS_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if _, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("configuring logging")
	}

	srvCfg, err := server.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing server")
	}
	if err := server.Run(ctx, srvCfg); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
