package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"
)

type fakeProber struct {
	doctorFn func(ctx context.Context) (*Capabilities, error)
}

func (f *fakeProber) RunDoctor(ctx context.Context) (*Capabilities, error) {
	return f.doctorFn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCachedDoctor_TTL(t *testing.T) {
	calls := 0
	fake := &fakeProber{
		doctorFn: func(ctx context.Context) (*Capabilities, error) {
			calls++
			return &Capabilities{HasFFmpeg: true, ProbedAt: time.Now()}, nil
		},
	}

	doc := NewCachedDoctor(fake, testLogger())
	doc.ttl = 100 * time.Millisecond
	ctx := context.Background()

	caps1, err := doc.Get(ctx)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if !caps1.HasFFmpeg {
		t.Error("expected HasFFmpeg=true")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	caps2, err := doc.Get(ctx)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if caps2.ProbedAt != caps1.ProbedAt {
		t.Error("expected cached result on second call")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (cached), got %d", calls)
	}

	time.Sleep(150 * time.Millisecond)

	_, err = doc.Get(ctx)
	if err != nil {
		t.Fatalf("third Get (after TTL): %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls after TTL expiry, got %d", calls)
	}
}

func TestCachedDoctor_Invalidate(t *testing.T) {
	calls := 0
	fake := &fakeProber{
		doctorFn: func(ctx context.Context) (*Capabilities, error) {
			calls++
			return &Capabilities{ProbedAt: time.Now()}, nil
		},
	}

	doc := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	doc.Get(ctx)
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	doc.Invalidate()
	doc.Get(ctx)
	if calls != 2 {
		t.Errorf("expected 2 calls after Invalidate, got %d", calls)
	}
}

func TestCachedDoctor_StaleOnError(t *testing.T) {
	calls := 0
	fake := &fakeProber{
		doctorFn: func(ctx context.Context) (*Capabilities, error) {
			calls++
			if calls > 1 {
				return nil, fmt.Errorf("probe exploded")
			}
			return &Capabilities{HasFFmpeg: true, ProbedAt: time.Now()}, nil
		},
	}

	doc := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	first, err := doc.Get(ctx)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}

	stale, err := doc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh with stale cache should not error: %v", err)
	}
	if stale.ProbedAt != first.ProbedAt {
		t.Error("expected stale cache to be returned on probe failure")
	}
}

func TestCachedDoctor_ErrorWithoutCache(t *testing.T) {
	fake := &fakeProber{
		doctorFn: func(ctx context.Context) (*Capabilities, error) {
			return nil, fmt.Errorf("probe exploded")
		},
	}

	doc := NewCachedDoctor(fake, testLogger())

	_, err := doc.Get(context.Background())
	if err == nil {
		t.Fatal("expected error when probe fails with no cache")
	}
}

func TestCachedDoctor_Peek(t *testing.T) {
	fake := &fakeProber{
		doctorFn: func(ctx context.Context) (*Capabilities, error) {
			return &Capabilities{HasFFmpeg: true, ProbedAt: time.Now()}, nil
		},
	}

	doc := NewCachedDoctor(fake, testLogger())

	if doc.Peek() != nil {
		t.Error("Peek() should be nil before first probe")
	}

	doc.Get(context.Background())

	if doc.Peek() == nil {
		t.Error("Peek() should return cached capabilities after Get")
	}
}

func TestCapabilities_CanRender(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want bool
	}{
		{"both tools", Capabilities{HasFFmpeg: true, HasFFprobe: true}, true},
		{"ffmpeg only", Capabilities{HasFFmpeg: true}, false},
		{"ffprobe only", Capabilities{HasFFprobe: true}, false},
		{"neither", Capabilities{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caps.CanRender(); got != tt.want {
				t.Errorf("CanRender() = %v, want %v", got, tt.want)
			}
		})
	}
}
