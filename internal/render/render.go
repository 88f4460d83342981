package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// ErrDisabled is returned by callers that have no renderer configured.
var ErrDisabled = errors.New("browser rendering disabled")

// Renderer produces the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) ([]byte, error)
}

// Browser is a launched browser process able to snapshot pages. Close must be
// safe to call more than once.
type Browser interface {
	Snapshot(ctx context.Context, pageURL string) ([]byte, error)
	Close() error
}

// Launcher starts browser processes.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Headless renders pages in a fresh browser per call. The browser is never
// pooled and is closed before Render returns, whatever the outcome.
type Headless struct {
	Launcher Launcher
	// MaxConcurrent caps simultaneously running browsers across all callers.
	// Zero means unlimited.
	MaxConcurrent int

	semOnce sync.Once
	sem     *semaphore.Weighted
}

// Render launches a browser, snapshots pageURL and closes the browser.
func (h *Headless) Render(ctx context.Context, pageURL string) ([]byte, error) {
	if h == nil || h.Launcher == nil {
		return nil, ErrDisabled
	}
	if sem := h.slots(); sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for browser slot: %w", err)
		}
		defer sem.Release(1)
	}

	b, err := h.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("browser close failed")
		}
	}()

	html, err := b.Snapshot(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return html, nil
}

func (h *Headless) slots() *semaphore.Weighted {
	if h.MaxConcurrent <= 0 {
		return nil
	}
	h.semOnce.Do(func() {
		h.sem = semaphore.NewWeighted(int64(h.MaxConcurrent))
	})
	return h.sem
}
