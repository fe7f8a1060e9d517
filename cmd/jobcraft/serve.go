package main

import (
	"context"
	"fmt"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/metrics"
	"github.com/alnah/go-jobcraft/internal/server"
)

// runServe exposes generation over HTTP until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	log, err := newLogger(cfg, &f.common, env.Stderr)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc, err := env.NewService(cfg,
		jobcraft.WithLogger(log),
		jobcraft.WithMetrics(m),
		jobcraft.WithGetenv(env.Getenv),
	)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer func() { _ = svc.Close() }()

	srv := server.New(svc, server.WithLogger(log), server.WithMetrics(m))
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
