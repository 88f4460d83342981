// Command openai-stub is a minimal OpenAI-compatible server for local runs and
// smoke tests. Chat requests from the bias analyst get a fixed verdict.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultVerdict = `{"label":"Neutral","reasoning":"The article reports events with attributed sources and little loaded language.","confidence":0.82,"categories":["News"]}`

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	verdict := os.Getenv("STUB_VERDICT")
	if strings.TrimSpace(verdict) == "" {
		verdict = defaultVerdict
	}
	if os.Getenv("STUB_FENCED") == "1" {
		verdict = "```json\n" + verdict + "\n```"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, verdict)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model, verdict string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys := ""
		if len(req.Messages) > 0 {
			sys = strings.TrimSpace(req.Messages[0].Content)
		}
		if !strings.Contains(sys, "media bias analyst") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": verdict}, "finish_reason": "stop"},
			},
		})
	})
	return mux
}
