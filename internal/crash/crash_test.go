package crash

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestInit_EmptyDSNDisables(t *testing.T) {
	if err := Init(Options{}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if Enabled() {
		t.Error("Enabled() = true, want false")
	}
	// Must not panic while disabled.
	Report(errors.New("ignored"))
	ReportPanic("ignored")
	Flush()
}

func TestInit_InvalidDSN(t *testing.T) {
	err := Init(Options{DSN: "::not a dsn"})
	if err == nil {
		t.Fatal("Init() expected error for invalid DSN")
	}
	t.Cleanup(func() { enabled = false })
}

func TestReport_SendsEvent(t *testing.T) {
	var events []*sentry.Event
	err := Init(Options{
		DSN:     "https://public@sentry.example.com/1",
		Release: "latexocr@test",
		Tags:    map[string]string{"backend": "pix2tex"},
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { enabled = false })

	Report(errors.New("model exploded"))
	ReportPanic("worker crashed")

	if len(events) != 2 {
		t.Fatalf("captured %d events, want 2", len(events))
	}
	if events[0].Release != "latexocr@test" {
		t.Errorf("Release = %q, want %q", events[0].Release, "latexocr@test")
	}
	if events[0].Tags["backend"] != "pix2tex" {
		t.Errorf("Tags[backend] = %q, want pix2tex", events[0].Tags["backend"])
	}
	if len(events[0].Exception) == 0 || events[0].Exception[0].Value != "model exploded" {
		t.Errorf("exception = %+v, want value %q", events[0].Exception, "model exploded")
	}
}
