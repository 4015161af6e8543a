package store

import (
	"context"
	"fmt"
	"time"

	"scanhub/internal/platform/store/ch"
	"scanhub/internal/platform/store/pg"
)

// pgPingAttempts bounds the startup wait for a cold database
const pgPingAttempts = 5

func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	client, err := pg.New(ctx, pg.Config{URL: cfg.PG.URL})
	if err != nil {
		return nil, fmt.Errorf("pg open: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= pgPingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = client.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			break
		}
		s.Log.Warn().Err(lastErr).Int("attempt", attempt).Msg("pg ping failed, retrying")
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	if lastErr != nil {
		client.Close()
		return nil, fmt.Errorf("pg ping: %w", lastErr)
	}

	tracer := pg.NewTracer(s.Log.With().Str("component", "pg").Logger())
	return &pgAdapter{client: client, tracer: tracer}, nil
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	client, err := ch.Open(ctx, ch.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &clickhouseAdapter{ch: client}, nil
}
