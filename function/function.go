// Package function exposes the analyze endpoint as a Google Cloud Function.
package function

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/biascheck/internal/app"
	"github.com/hyperifyio/biascheck/internal/server"
)

func init() {
	zerolog.DefaultContextLogger = &log.Logger
	functions.HTTP("Analyze", Analyze)
}

var (
	handlerOnce sync.Once
	handler     http.Handler
	handlerErr  error
)

// newHandler builds the routes once per instance from the environment.
var newHandler = func(ctx context.Context) (http.Handler, error) {
	if err := app.LoadEnvFiles(".env"); err != nil {
		return nil, err
	}
	cfg := app.Defaults()
	cfg.LLMModel = ""
	app.ApplyEnvOverrides(&cfg)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return server.New(a).Routes(), nil
}

// Analyze serves the HTTP API. A request to the function root is treated as
// an analyze call.
func Analyze(w http.ResponseWriter, r *http.Request) {
	handlerOnce.Do(func() {
		handler, handlerErr = newHandler(context.Background())
	})
	if handlerErr != nil {
		log.Error().Err(handlerErr).Msg("function init failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if r.URL.Path == "/" || r.URL.Path == "" {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/api/analyze"
		r = r2
	}
	handler.ServeHTTP(w, r)
}
