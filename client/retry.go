package client

import (
	"context"
	"log/slog"
	"time"

	"chat-sync/errors"

	"github.com/cenkalti/backoff/v4"
)

// LoginWithRetry logs in, retrying with exponential backoff while the server
// is unreachable or its storage is unavailable. Any other failure is final.
func LoginWithRetry(ctx context.Context, syncer *Syncer, email, password string, maxElapsed time.Duration, log *slog.Logger) error {
	operation := func() error {
		err := syncer.Login(ctx, email, password)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.ErrTransport) || errors.Is(err, errors.ErrStorage) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("Login failed, retrying", "error", err, "wait", wait)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = maxElapsed
	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
}
