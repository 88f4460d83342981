package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/biascheck/internal/extract"
	"github.com/hyperifyio/biascheck/internal/fetch"
	"github.com/hyperifyio/biascheck/internal/render"
)

// ErrExtractionFailed is returned when every strategy failed to produce an
// article.
var ErrExtractionFailed = errors.New("article extraction failed")

// Strategy names.
const (
	StrategyStatic    = "static"
	StrategyRendered  = "rendered"
	StrategySelectors = "selectors"
)

// PageFetcher performs the static HTTP fetch.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Strategy is one step of the extraction chain.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, u *url.URL) (extract.Article, error)
}

// Scraper runs the extraction chain: static fetch with readability, rendered
// page with readability, then selector heuristics on the rendered page.
type Scraper struct {
	Fetcher  PageFetcher
	Renderer render.Renderer
	// Readability and Selectors default to extract.Readability and
	// extract.Selectors when nil.
	Readability extract.Extractor
	Selectors   extract.Extractor
}

// Extract returns the first article produced by the strategy chain. Strategy
// failures are logged and never returned; the only error is
// ErrExtractionFailed (or the context error when ctx is done).
func (s *Scraper) Extract(ctx context.Context, u *url.URL) (extract.Article, error) {
	for _, st := range s.Strategies(u) {
		if err := ctx.Err(); err != nil {
			return extract.Article{}, err
		}
		art, err := runStrategy(ctx, st, u)
		if err != nil {
			log.Debug().Err(err).Str("strategy", st.Name).Str("url", u.String()).Msg("strategy failed")
			continue
		}
		art.Strategy = st.Name
		log.Info().Str("strategy", st.Name).Str("url", u.String()).Int("chars", len(art.Content)).Msg("article extracted")
		return art, nil
	}
	return extract.Article{}, ErrExtractionFailed
}

// Strategies builds the ordered chain for one request. The rendered
// strategies share a single lazily acquired snapshot so the browser runs at
// most once per request, and only after the static strategy failed.
func (s *Scraper) Strategies(u *url.URL) []Strategy {
	readable := s.Readability
	if readable == nil {
		readable = extract.Readability{}
	}
	selectors := s.Selectors
	if selectors == nil {
		selectors = extract.Selectors{}
	}
	snap := &snapshot{renderer: s.Renderer, url: u.String()}

	return []Strategy{
		{Name: StrategyStatic, Run: func(ctx context.Context, u *url.URL) (extract.Article, error) {
			if s.Fetcher == nil {
				return extract.Article{}, errors.New("no fetcher configured")
			}
			page, err := s.Fetcher.Get(ctx, u.String())
			if err != nil {
				return extract.Article{}, fmt.Errorf("fetch: %w", err)
			}
			base := u
			if page.URL != nil {
				base = page.URL
			}
			return readable.Extract(page.Body, base)
		}},
		{Name: StrategyRendered, Run: func(ctx context.Context, u *url.URL) (extract.Article, error) {
			html, err := snap.get(ctx)
			if err != nil {
				return extract.Article{}, err
			}
			return readable.Extract(html, u)
		}},
		{Name: StrategySelectors, Run: func(ctx context.Context, u *url.URL) (extract.Article, error) {
			html, err := snap.get(ctx)
			if err != nil {
				return extract.Article{}, err
			}
			return selectors.Extract(html, u)
		}},
	}
}

func runStrategy(ctx context.Context, st Strategy, u *url.URL) (art extract.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", st.Name, r)
		}
	}()
	art, err = st.Run(ctx, u)
	if err == nil && art.Content == "" {
		err = extract.ErrNoArticle
	}
	return art, err
}

// snapshot memoizes the rendered HTML, including a render failure, for the
// duration of one request.
type snapshot struct {
	renderer render.Renderer
	url      string

	once sync.Once
	html []byte
	err  error
}

func (s *snapshot) get(ctx context.Context) ([]byte, error) {
	s.once.Do(func() {
		if s.renderer == nil {
			s.err = render.ErrDisabled
			return
		}
		// Stays set if Render panics.
		s.err = errors.New("render did not complete")
		s.html, s.err = s.renderer.Render(ctx, s.url)
	})
	return s.html, s.err
}
