package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"locline/internal/domain"
	"locline/internal/ports"

	"github.com/go-resty/resty/v2"
)

// Client talks to any OpenAI-compatible endpoint: POST /chat/completions
// (streaming or single-shot) and GET /models.
type Client struct {
	BaseURL string
	APIKey  string
	http    *resty.Client
}

// New builds a client. timeout 0 disables the request deadline; a hung
// call then blocks its worker until the server gives up.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{BaseURL: baseURL, APIKey: apiKey, http: c}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, req ports.ChatRequest, onDelta func(string)) (string, error) {
	url := apiURL(c.BaseURL, "/chat/completions")
	body := map[string]any{
		"model": req.Model,
		"messages": []ports.ChatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"top_p":       req.TopP,
		"stream":      req.Stream,
	}
	if req.TopK > 0 {
		body["top_k"] = req.TopK
	}
	if req.Stream {
		return c.completeStream(ctx, url, body, onDelta)
	}
	var resp chatResponse
	rr, err := c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		Post(url)
	if err != nil {
		return "", err
	}
	if rr.IsError() {
		return "", fmt.Errorf("chat completions: %s; body: %s", rr.Status(), rr.String())
	}
	if len(resp.Choices) == 0 {
		// No usable translation; the caller treats an empty buffer as such.
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) completeStream(ctx context.Context, url string, body map[string]any, onDelta func(string)) (string, error) {
	rr, err := c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.APIKey).
		SetHeader("Content-Type", "application/json").
		SetDoNotParseResponse(true).
		SetBody(body).
		Post(url)
	if err != nil {
		return "", err
	}
	raw := rr.RawBody()
	defer raw.Close()
	if rr.StatusCode() >= 400 {
		b, _ := io.ReadAll(raw)
		return "", fmt.Errorf("chat completions: %s; body: %s", rr.Status(), string(b))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // malformed frames are skipped
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			full.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

func (c *Client) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	rr, err := c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.APIKey).
		Get(apiURL(c.BaseURL, "/models"))
	if err != nil {
		return nil, err
	}
	if rr.IsError() {
		return nil, fmt.Errorf("list models: %s; body: %s", rr.Status(), rr.String())
	}
	body := rr.Body()
	var wrapped struct {
		Data []domain.ModelInfo `json:"data"`
	}
	var out []domain.ModelInfo
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		out = wrapped.Data
	} else {
		var bare []domain.ModelInfo
		if err := json.Unmarshal(body, &bare); err != nil {
			return nil, fmt.Errorf("parse models: %w", err)
		}
		out = bare
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func apiURL(base, tail string) string {
	return strings.TrimRight(base, "/") + tail
}
