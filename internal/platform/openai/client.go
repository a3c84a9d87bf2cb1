package openai

import (
	"bytes"
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

// Client is the embedding-provider and language-model collaborator.
// The same client instance must serve indexing and querying for a
// document's lifetime; Provider/EmbedModel identify it in index metadata.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	Provider() string
	EmbedModel() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client

	maxRetries int
}

func New(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(envutil.Str("OPENAI_API_KEY", ""))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	timeout := envutil.Int("OPENAI_TIMEOUT_SECONDS", 120)

	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    strings.TrimRight(envutil.Str("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		apiKey:     apiKey,
		model:      envutil.Str("OPENAI_MODEL", "gpt-4o"),
		embedModel: envutil.Str("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		maxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
	}, nil
}

func (c *client) Provider() string   { return "openai" }
func (c *client) EmbedModel() string { return c.embedModel }

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var he *httpError
	if stderrors.As(err, &he) {
		return isRetryableHTTP(he.StatusCode)
	}
	return false
}

// +/- 20% so synchronized callers don't hammer the provider in lockstep.
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	v := base.Seconds() - delta + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, op, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.External(op, "canceled", false, err)
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return errors.External(op, "decode response", false, uErr)
			}
			return nil
		}

		if !isRetryableErr(err) {
			return errors.External(op, "openai call failed", false, err)
		}
		if attempt == c.maxRetries {
			return errors.External(op, "openai retries exhausted", true, err)
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitter(sleepFor)

		c.log.Warn("openai request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-time.After(sleepFor):
		case <-ctx.Done():
			return errors.External(op, "canceled during backoff", false, ctx.Err())
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// ---- embeddings ----

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	const op = "openai.embed"
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	req := embeddingsRequest{Model: c.embedModel, Input: inputs}
	var resp embeddingsResponse
	if err := c.do(ctx, op, http.MethodPost, "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}
	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = vec
		}
	}
	for i := range out {
		if out[i] == nil {
			return nil, errors.External(op, fmt.Sprintf("missing embedding for index %d", i), false, nil)
		}
	}
	return out, nil
}

// ---- structured outputs ----

type responsesRequest struct {
	Model string `json:"model"`
	Input []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"input"`
	Text struct {
		Format map[string]any `json:"format"`
	} `json:"text"`
	Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

// GenerateJSON asks the model for a response conforming to a JSON schema
// and decodes it. The schema is the documented response format the
// composer and analyzer control; free-form parsing never happens here.
func (c *client) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	const op = "openai.generate"
	if schemaName == "" {
		return nil, errors.InvalidInput(op, "schemaName required")
	}
	if schema == nil {
		return nil, errors.InvalidInput(op, "schema required")
	}

	req := responsesRequest{
		Model: c.model,
		Input: []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.do(ctx, op, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return nil, err
	}
	if resp.Refusal != "" {
		return nil, errors.External(op, "model refused: "+resp.Refusal, false, nil)
	}

	var jsonText string
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, part := range item.Content {
				if part.Type == "output_text" && part.Text != "" {
					jsonText += part.Text
				}
			}
		}
	}
	if jsonText == "" {
		return nil, errors.External(op, "no output_text in response", false, nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, errors.External(op, "model returned unparseable JSON", false, err)
	}
	return obj, nil
}
