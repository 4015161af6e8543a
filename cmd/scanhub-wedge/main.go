// Command scanhub-wedge runs a keyboard-wedge scanner agent: keystrokes
// from stdin are classified into barcode tokens and submitted to the
// scan API over HTTP
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scanhub/internal/adapters/scanapi"
	"scanhub/internal/core/scanwedge"
	"scanhub/internal/platform/config"
	"scanhub/internal/platform/logger"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("scanhub-wedge")

	cfg := config.New().Prefix("WEDGE_")

	var (
		apiURL       = flag.String("api", cfg.MayString("API_URL", "http://localhost:4000"), "scan API base url")
		token        = flag.String("token", cfg.MayString("API_TOKEN", ""), "bearer token")
		sessionID    = flag.String("session", cfg.MayString("SESSION_ID", ""), "existing session id; empty starts one")
		jobID        = flag.String("job", cfg.MayString("JOB_ID", ""), "job id for started sessions and stream keying")
		cancelPrefix = flag.String("cancel-prefix", cfg.MayString("CANCEL_PREFIX", "CANCEL+"), "action barcode prefix that reverses a count")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := scanapi.New(scanapi.Options{BaseURL: *apiURL, Token: *token})

	ownSession := false
	if *sessionID == "" {
		id, err := client.StartSession(ctx, *jobID)
		if err != nil {
			log.Fatal().Err(err).Msg("could not start a session")
		}
		*sessionID = id
		ownSession = true
		log.Info().Str("session_id", id).Str("job_id", *jobID).Msg("session started")
	}

	sub := scanwedge.NewSubmitter(client, scanwedge.SubmitterConfig{})
	sub.SessionID = *sessionID
	sub.JobID = *jobID
	log.Info().Str("device_id", sub.DeviceID).Str("session_id", *sessionID).Msg("wedge ready")

	run(ctx, log, sub, os.Stdin, *cancelPrefix)

	if ownSession {
		endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.EndSession(endCtx, *sessionID); err != nil {
			log.Warn().Err(err).Msg("session end failed")
		} else {
			log.Info().Str("session_id", *sessionID).Msg("session ended")
		}
	}
}

// run pumps keystrokes through the classifier until input or ctx ends;
// tokens carrying the cancel prefix reverse a count, everything else is
// a scan
func run(ctx context.Context, log *logger.Logger, sub *scanwedge.Submitter, in io.Reader, cancelPrefix string) {
	cls := scanwedge.NewClassifier(scanwedge.Config{})

	keys := make(chan scanwedge.KeyEvent, 64)
	go readKeys(in, keys)

	// the inactivity flush covers scanners that send no terminator
	flush := time.NewTicker(50 * time.Millisecond)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			if tok, ok := cls.Flush(time.Now()); ok {
				dispatch(ctx, log, sub, tok, cancelPrefix)
			}
		case ev, open := <-keys:
			if !open {
				if tok, ok := cls.Flush(time.Now().Add(scanwedge.DefaultFlushAfter)); ok {
					dispatch(ctx, log, sub, tok, cancelPrefix)
				}
				return
			}
			if tok, ok := cls.Feed(ev); ok {
				dispatch(ctx, log, sub, tok, cancelPrefix)
			}
		}
	}
}

func readKeys(in io.Reader, keys chan<- scanwedge.KeyEvent) {
	defer close(keys)
	r := bufio.NewReader(in)
	for {
		ch, _, err := r.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Get().Warn().Err(err).Msg("stdin read failed")
			}
			return
		}
		keys <- scanwedge.KeyEvent{Rune: ch, Enter: ch == '\r' || ch == '\n', At: time.Now()}
	}
}

func dispatch(
	ctx context.Context,
	log *logger.Logger,
	sub *scanwedge.Submitter,
	tok scanwedge.Token,
	cancelPrefix string,
) {
	if code, found := strings.CutPrefix(tok.Value, cancelPrefix); found && code != "" {
		res := sub.Cancel(ctx, code)
		report(log, code, res)
		return
	}

	res, ok := sub.Submit(ctx, tok)
	if !ok {
		log.Debug().Str("barcode", tok.Value).Msg("duplicate dropped")
		return
	}
	report(log, tok.Value, res)
}

func report(log *logger.Logger, barcode string, res scanwedge.Result) {
	ev := log.Info()
	if !res.Success {
		ev = log.Warn().Str("error", res.Error)
	}
	ev.Str("barcode", barcode).Str("scan_id", res.ScanID).Msg(res.Message)
}
