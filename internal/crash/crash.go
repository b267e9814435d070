// Package crash reports unexpected failures to Sentry when a DSN is configured.
package crash

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

var enabled bool

// Options configures crash reporting.
type Options struct {
	DSN     string
	Release string
	Tags    map[string]string

	// BeforeSend, when set, sees every event before it is sent. Tests use it
	// to observe events without a network.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// Init enables reporting. An empty DSN leaves reporting disabled and is not
// an error.
func Init(opts Options) error {
	if opts.DSN == "" {
		enabled = false
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          opts.Release,
		AttachStacktrace: true,
		BeforeSend:       opts.BeforeSend,
	})
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(opts.Tags)
	})
	enabled = true
	return nil
}

// Enabled reports whether Init configured a DSN.
func Enabled() bool { return enabled }

// Report captures err. It is a no-op when reporting is disabled.
func Report(err error) {
	if !enabled || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// ReportPanic captures a recovered panic value.
func ReportPanic(v any) {
	if !enabled || v == nil {
		return
	}
	sentry.CurrentHub().Recover(v)
}

// Flush waits for queued events to be delivered.
func Flush() {
	if !enabled {
		return
	}
	sentry.Flush(flushTimeout)
}
