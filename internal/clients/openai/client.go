package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/utils"
)

// Embedder turns query strings into vectors matching the dimension of the
// items.embedding column. The semantic_search strategy is the only caller;
// everything else in the pipeline is deterministic.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewEmbedder builds an embeddings client from OPENAI_* variables.
// Returns (nil, nil) when OPENAI_API_KEY is unset; semantic search then
// degrades to zero results and the other four strategies carry the corpus.
func NewEmbedder(log *logger.Logger) (Embedder, error) {
	apiKey := utils.GetEnv("OPENAI_API_KEY", "", nil)
	if apiKey == "" {
		if log != nil {
			log.Warn("OPENAI_API_KEY not set; semantic_search strategy disabled")
		}
		return nil, nil
	}
	baseURL := utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log)
	model := utils.GetEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small", log)
	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 30, log)

	return &client{
		log:        log.With("client", "OpenAIEmbedder"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("openai embed: marshal: %w", err)
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		out, err := c.doEmbed(ctx, body, len(inputs))
		if err == nil {
			return out, nil
		}
		lastErr = err
		c.log.Warn("embeddings request failed", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *client) doEmbed(ctx context.Context, body []byte, n int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(raw))
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("openai embed: decode: %w", err)
	}
	if len(parsed.Data) != n {
		return nil, fmt.Errorf("openai embed: got %d vectors for %d inputs", len(parsed.Data), n)
	}

	out := make([][]float32, n)
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= n {
			return nil, fmt.Errorf("openai embed: index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	return out, nil
}
