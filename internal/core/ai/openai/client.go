package openai

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	client *resty.Client
	cfg    *config.OpenAIConfig
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage ai.Usage `json:"usage"`
}

// NewClient creates the provider client.
func NewClient(cfg *config.OpenAIConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{
		client: client,
		cfg:    cfg,
	}
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate performs a batch-mode call and returns the full raw text.
func (c *Client) Generate(ctx context.Context, instructions, userContent string, temperature float64) (*ai.Result, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: instructions},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: temperature,
	}

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")

	if err != nil {
		common.LogError("provider request failed",
			zap.Error(err),
			zap.String("model", c.cfg.Model),
		)
		return nil, common.ErrProviderUnavailable.WithCause(err)
	}
	if resp.StatusCode() != http.StatusOK {
		common.LogError("provider returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.String("model", c.cfg.Model),
		)
		return nil, common.ErrProviderUnavailable.WithCause(fmt.Errorf("provider status %d: %s", resp.StatusCode(), resp.String()))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, common.ErrProviderUnavailable.WithCause(fmt.Errorf("empty provider response"))
	}

	return &ai.Result{
		Content: out.Choices[0].Message.Content,
		Usage:   out.Usage,
		Model:   c.cfg.Model,
	}, nil
}

// GenerateStream opens a server-sent-events token stream. The returned
// stream's Close aborts the outbound connection, not just the local read.
func (c *Client) GenerateStream(ctx context.Context, instructions, userContent string, temperature float64) (*ai.Stream, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: instructions},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: temperature,
		Stream:      true,
	}

	streamCtx, cancel := context.WithCancel(ctx)

	resp, err := c.client.R().
		SetContext(streamCtx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/chat/completions")

	if err != nil {
		cancel()
		return nil, common.ErrProviderUnavailable.WithCause(err)
	}
	if resp.StatusCode() != http.StatusOK {
		resp.RawBody().Close()
		cancel()
		return nil, common.ErrProviderUnavailable.WithCause(fmt.Errorf("provider status %d", resp.StatusCode()))
	}

	stream := ai.NewStream(16, cancel)

	go func() {
		defer stream.Finish()
		defer resp.RawBody().Close()

		scanner := bufio.NewScanner(resp.RawBody())
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				stream.Emit(streamCtx, ai.Fragment{Done: true})
				return
			}
			delta := gjson.Get(payload, "choices.0.delta.content").String()
			if delta == "" {
				continue
			}
			if !stream.Emit(streamCtx, ai.Fragment{Delta: delta}) {
				return
			}
		}

		if err := scanner.Err(); err != nil && streamCtx.Err() == nil {
			stream.Emit(streamCtx, ai.Fragment{Err: common.ErrStreamTransport.WithCause(err)})
			return
		}
		// EOF without [DONE]: treat a clean close as done.
		if streamCtx.Err() == nil {
			stream.Emit(streamCtx, ai.Fragment{Done: true})
		}
	}()

	return stream, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
