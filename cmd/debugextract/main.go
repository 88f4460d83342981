package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/biascheck/internal/app"
	"github.com/hyperifyio/biascheck/internal/extract"
	"github.com/hyperifyio/biascheck/internal/fetch"
	"github.com/hyperifyio/biascheck/internal/render"
	"github.com/hyperifyio/biascheck/internal/scrape"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	target := "https://example.com"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}
	u, err := app.ValidateURL(target)
	if err != nil {
		fmt.Println("err:", err)
		os.Exit(2)
	}

	s := &scrape.Scraper{
		Fetcher: &fetch.Client{HTTPClient: &http.Client{Timeout: 20 * time.Second}, MaxAttempts: 1},
	}
	if os.Getenv("BROWSER_DISABLE") != "1" {
		s.Renderer = &render.Headless{Launcher: &render.ChromeLauncher{
			ExecPath:  os.Getenv("BROWSER_PATH"),
			NoSandbox: os.Getenv("BROWSER_NO_SANDBOX") == "1",
		}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	art, err := s.Extract(ctx, u)
	fmt.Println("err:", err)
	if err != nil {
		os.Exit(1)
	}
	preview := []rune(art.Content)
	if len(preview) > 400 {
		preview = preview[:400]
	}
	fmt.Printf("strategy: %s\ntitle: %s\nbyline: %s\nwords: %d\n\n%s\n", art.Strategy, art.Title, art.Byline, extract.WordCount(art.Content), string(preview))
}
