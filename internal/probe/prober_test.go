package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/models"
)

// scriptedAdapter returns one scripted outcome per attempt.
type scriptedAdapter struct {
	samples []*models.LivenessSample
	errs    []error
	calls   int
}

func (a *scriptedAdapter) Attempt(_ context.Context, _ string, _ uint16) (*models.LivenessSample, error) {
	i := a.calls
	a.calls++
	if i >= len(a.errs) {
		i = len(a.errs) - 1
	}
	return a.samples[i], a.errs[i]
}

func testOpts() config.Probe {
	return config.Probe{
		Attempts: 3,
		Timeout:  100 * time.Millisecond,
		Delay:    time.Millisecond,
	}
}

func TestProbe_SuccessFirstAttempt(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{{CurrentPlayers: 17, BannerText: "hi"}},
		errs:    []error{nil},
	}

	sample := New(adapter, testOpts()).Probe(context.Background(), "mc.example.com", 25565)

	if !sample.Online {
		t.Error("expected online sample")
	}
	if sample.CurrentPlayers != 17 {
		t.Errorf("CurrentPlayers = %d, want 17", sample.CurrentPlayers)
	}
	if adapter.calls != 1 {
		t.Errorf("adapter called %d times, want 1", adapter.calls)
	}
	if sample.SampledAt.IsZero() {
		t.Error("SampledAt not set")
	}
}

func TestProbe_RetriesThenSuccess(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{nil, nil, {CurrentPlayers: 4}},
		errs:    []error{errors.New("timeout"), errors.New("refused"), nil},
	}

	sample := New(adapter, testOpts()).Probe(context.Background(), "mc.example.com", 25565)

	if !sample.Online {
		t.Error("expected online sample after retries")
	}
	if sample.CurrentPlayers != 4 {
		t.Errorf("CurrentPlayers = %d, want 4", sample.CurrentPlayers)
	}
	if adapter.calls != 3 {
		t.Errorf("adapter called %d times, want 3", adapter.calls)
	}
}

func TestProbe_ExhaustionReturnsOffline(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{nil},
		errs:    []error{errors.New("unreachable")},
	}

	sample := New(adapter, testOpts()).Probe(context.Background(), "mc.example.com", 25565)

	// Probe failure is a designed fallback, never an error
	if sample.Online {
		t.Error("expected offline sample")
	}
	if sample.CurrentPlayers != 0 {
		t.Errorf("CurrentPlayers = %d, want 0", sample.CurrentPlayers)
	}
	if sample.BannerImage != "" || sample.BannerText != "" {
		t.Error("offline sample must carry empty banners")
	}
	if adapter.calls != 3 {
		t.Errorf("adapter called %d times, want 3", adapter.calls)
	}
}

func TestProbe_NegativePlayersClamped(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{{CurrentPlayers: -3}},
		errs:    []error{nil},
	}

	sample := New(adapter, testOpts()).Probe(context.Background(), "mc.example.com", 25565)

	if sample.CurrentPlayers != 0 {
		t.Errorf("CurrentPlayers = %d, want 0", sample.CurrentPlayers)
	}
}

func TestProbe_SingleAttempt(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{nil},
		errs:    []error{errors.New("unreachable")},
	}
	opts := testOpts()
	opts.Attempts = 1

	sample := New(adapter, opts).Probe(context.Background(), "mc.example.com", 25565)

	if sample.Online {
		t.Error("expected offline sample")
	}
	if adapter.calls != 1 {
		t.Errorf("adapter called %d times, want 1", adapter.calls)
	}
}

func TestProbe_CancelledContextStopsRetrying(t *testing.T) {
	adapter := &scriptedAdapter{
		samples: []*models.LivenessSample{nil},
		errs:    []error{errors.New("unreachable")},
	}
	opts := testOpts()
	opts.Delay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan models.LivenessSample, 1)
	go func() {
		done <- New(adapter, opts).Probe(ctx, "mc.example.com", 25565)
	}()

	select {
	case sample := <-done:
		if sample.Online {
			t.Error("expected offline sample")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Probe did not return after context cancellation")
	}
}
