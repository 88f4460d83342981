package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// DefaultBlockedResources are request types that never contribute article
// text and only slow the render down.
var DefaultBlockedResources = []network.ResourceType{
	network.ResourceTypeImage,
	network.ResourceTypeStylesheet,
	network.ResourceTypeFont,
	network.ResourceTypeMedia,
}

// DefaultDismissSelectors target common cookie and modal dismiss controls.
var DefaultDismissSelectors = []string{
	"#onetrust-accept-btn-handler",
	"#didomi-notice-agree-button",
	".fc-cta-consent",
	"button[id*='accept']",
	"button[class*='accept']",
	"[class*='cookie'] button",
	"[class*='consent'] button",
	"button[aria-label='Close']",
	".modal .close",
}

// dismissLabels match button captions when no selector hits.
var dismissLabels = []string{"accept", "accept all", "i agree", "agree", "got it", "ok", "close"}

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	// ExecPath overrides Chrome discovery when non-empty.
	ExecPath  string
	UserAgent string
	// NoSandbox is needed when running as root inside containers.
	NoSandbox bool
	// NavTimeout bounds the navigation. Zero means 30s.
	NavTimeout time.Duration
	// SettleDelay is waited after load for client-side rendering. Zero means 2s.
	SettleDelay time.Duration
	// BlockedResources are failed at the network layer. Nil means
	// DefaultBlockedResources.
	BlockedResources []network.ResourceType
	// DismissSelectors are tried in order to close overlays. Nil means
	// DefaultDismissSelectors.
	DismissSelectors []string
}

// Launch starts a browser process bound to ctx.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1366, 900),
	)
	if l.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.UserAgent))
	}
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	if l.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}
	return &chromeBrowser{launcher: l, ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

type chromeBrowser struct {
	launcher    *ChromeLauncher
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancelTab()
		b.cancelAlloc()
		if errors.Is(b.closeErr, context.Canceled) {
			b.closeErr = nil
		}
	})
	return b.closeErr
}

func (b *chromeBrowser) Snapshot(ctx context.Context, pageURL string) ([]byte, error) {
	l := b.launcher
	tab := b.ctx
	// Stop work on the tab once the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = chromedp.Cancel(tab) })
	defer stop()

	blocked := l.BlockedResources
	if blocked == nil {
		blocked = DefaultBlockedResources
	}
	if len(blocked) > 0 {
		if err := blockResources(tab, blocked); err != nil {
			return nil, fmt.Errorf("enable request blocking: %w", err)
		}
	}

	navTimeout := l.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(tab, navTimeout)
	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(pageURL))
	cancel()
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Debug().Str("url", pageURL).Dur("timeout", navTimeout).Msg("navigation timed out; snapshotting partial page")
	case err != nil:
		return nil, fmt.Errorf("navigate: %w", err)
	case resp != nil && resp.Status >= 400:
		return nil, fmt.Errorf("navigate: unexpected status %d", resp.Status)
	}

	settle := l.SettleDelay
	if settle <= 0 {
		settle = 2 * time.Second
	}
	if err := chromedp.Run(tab, chromedp.Sleep(settle)); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	if dismissOverlays(tab, l.dismissSelectors()) {
		_ = chromedp.Run(tab, chromedp.Sleep(500*time.Millisecond))
	}

	var html string
	if err := chromedp.Run(tab, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read rendered html: %w", err)
	}
	return []byte(html), nil
}

func (l *ChromeLauncher) dismissSelectors() []string {
	if l.DismissSelectors == nil {
		return DefaultDismissSelectors
	}
	return l.DismissSelectors
}

// blockResources fails requests of the given types before they leave the
// browser.
func blockResources(tab context.Context, types []network.ResourceType) error {
	patterns := make([]*cdpfetch.RequestPattern, 0, len(types))
	for _, t := range types {
		patterns = append(patterns, &cdpfetch.RequestPattern{URLPattern: "*", ResourceType: t})
	}
	chromedp.ListenTarget(tab, func(ev interface{}) {
		paused, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tab)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tab, c.Target)
			_ = cdpfetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
		}()
	})
	return chromedp.Run(tab, cdpfetch.Enable().WithPatterns(patterns))
}

// dismissOverlays clicks the first visible element matching selectors, or
// failing that a button whose caption looks like a consent action. Missing
// overlays are not an error.
func dismissOverlays(tab context.Context, selectors []string) bool {
	sel, _ := json.Marshal(selectors)
	labels, _ := json.Marshal(dismissLabels)
	script := fmt.Sprintf(`(function(selectors, labels) {
  const visible = (el) => el && el.offsetParent !== null;
  for (const s of selectors) {
    let el = null;
    try { el = document.querySelector(s); } catch (e) { continue; }
    if (visible(el)) { el.click(); return true; }
  }
  for (const el of document.querySelectorAll('button, [role="button"]')) {
    const text = (el.textContent || '').trim().toLowerCase();
    if (labels.includes(text) && visible(el)) { el.click(); return true; }
  }
  return false;
})(%s, %s)`, sel, labels)

	var clicked bool
	if err := chromedp.Run(tab, chromedp.Evaluate(script, &clicked)); err != nil {
		log.Debug().Err(err).Msg("overlay dismissal skipped")
		return false
	}
	return clicked
}
