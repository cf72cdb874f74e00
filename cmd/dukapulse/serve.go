package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dukapulse/dukapulse/internal/application"
	"github.com/dukapulse/dukapulse/internal/config"
	"github.com/dukapulse/dukapulse/internal/domain/rules"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
	"github.com/dukapulse/dukapulse/internal/infrastructure/cache"
	"github.com/dukapulse/dukapulse/internal/infrastructure/providers"
	httpapi "github.com/dukapulse/dukapulse/internal/interfaces/http"
	"github.com/dukapulse/dukapulse/internal/telemetry/metrics"
)

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dsn, _ := cmd.Flags().GetString("dsn")
	redisAddr, _ := cmd.Flags().GetString("redis")
	port, _ := cmd.Flags().GetInt("port")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("no database DSN configured (set database.dsn or --dsn)")
	}

	thresholds := rules.DefaultThresholds()
	if cfg.Engine.ThresholdsPath != "" {
		loaded, err := rules.LoadThresholds(cfg.Engine.ThresholdsPath)
		if err != nil {
			return err
		}
		thresholds = loaded
	}

	pg, err := providers.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer pg.Close()

	snapCache := cache.NewAuto(cfg.Redis.Addr)
	provider := providers.NewCached(pg, snapCache, time.Duration(cfg.Redis.TTLSeconds)*time.Second)

	telem := metrics.NewRegistry()
	engine := application.New(provider, application.Options{
		Interval:     cfg.Engine.Interval(),
		HorizonDays:  cfg.Engine.HorizonDays,
		RetentionCap: cfg.Engine.RetentionCap,
		Thresholds:   thresholds,
		Metrics:      telem,
	})

	server := httpapi.NewServer(cfg.Server, engine, telem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go engine.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	thresholdsPath, _ := cmd.Flags().GetString("thresholds")
	horizon, _ := cmd.Flags().GetInt("horizon")

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	thresholds := rules.DefaultThresholds()
	if thresholdsPath != "" {
		loaded, err := rules.LoadThresholds(thresholdsPath)
		if err != nil {
			return err
		}
		thresholds = loaded
	}

	engine := application.New(providers.Static{Snapshot: snap}, application.Options{
		HorizonDays: horizon,
		Thresholds:  thresholds,
	})

	result := engine.Evaluate(snap, time.Now())

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
