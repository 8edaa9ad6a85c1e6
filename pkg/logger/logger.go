package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options controls logger construction.
type Options struct {
	AppEnv    string
	SentryDSN string
	Release   string

	// Output defaults to stdout.
	Output io.Writer
}

// New returns a production-friendly structured logger.
// Errors are additionally forwarded to Sentry when a DSN is configured.
func New(opts Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.AppEnv == "local" || opts.AppEnv == "dev" {
		level = slog.LevelDebug
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	if opts.SentryDSN == "" {
		return slog.New(h), nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.SentryDSN,
		Environment:      opts.AppEnv,
		Release:          opts.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return slog.New(h), err
	}

	return slog.New(slogmulti.Fanout(
		h,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)), nil
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ShutdownFlush drains buffered Sentry events.
func ShutdownFlush(_ context.Context, timeout time.Duration) error {
	if sentry.CurrentHub().Client() == nil {
		return nil
	}
	sentry.Flush(timeout)
	return nil
}
