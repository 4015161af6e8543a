// Command scanhub-api serves scan submission, session lifecycle and the
// real time event stream endpoints
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"scanhub/internal/modkit"
	"scanhub/internal/modkit/repokit"
	"scanhub/internal/platform/config"
	"scanhub/internal/platform/logger"
	phttp "scanhub/internal/platform/net/http"
	"scanhub/internal/platform/store"
	"scanhub/internal/services/api"
)

const shutdownGrace = 10 * time.Second

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("scanhub-api")

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgc := cfg.Prefix("SERVICE_PGSQL_")
	chc := cfg.Prefix("SERVICE_CLICKHOUSE_")
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled: true,
			URL:     pgc.MustString("URL"),
		},
		CH: store.CHConfig{
			Enabled:    chc.MayBool("ENABLED", false),
			URL:        chc.MayString("URL", ""),
			ClientName: chc.MayString("CLIENT_NAME", "scanhub"),
			ClientTag:  chc.MayString("CLIENT_TAG", "dev"),
		},
	}, store.WithLogger(*logger.Named("store")))
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	repokit.MustGuard(ctx, st)

	deps := modkit.Deps{
		Log: *log,
		Cfg: cfg,
		PG:  st.PG,
		CH:  st.CH,
	}

	srv := phttp.NewServer(cfg.Prefix("CORE_"))
	api.Mount(srv.Router(), deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("scanhub api stopped")
}
