package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Recognizer turns an image into a flat list of product names. An empty
// result means nothing was confidently recognized; callers decide how to
// report that.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte, mimeType string) ([]string, error)
}

const recognizeInstructions = `You are a food recognition assistant. Identify every food product visible in the photo.

Respond with JSON only, exactly this shape:
{"products": ["name", "name"]}

Rules:
- Product names in lowercase English, singular where natural.
- Generic names only (e.g. "tomato", not a brand).
- Skip non-food objects, packaging and utensils.
- If no food is visible, return {"products": []}.`

// Client recognizes products via the provider's multimodal endpoint.
type Client struct {
	http  *resty.Client
	model string
}

func NewClient(cfg *config.OpenAIConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: http, model: cfg.Model}
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Recognize sends the image and returns canonical, deduplicated product
// names sorted alphabetically.
func (c *Client) Recognize(ctx context.Context, imageData []byte, mimeType string) ([]string, error) {
	if len(imageData) == 0 {
		return nil, common.NewError(common.ErrCodeInvalidRequest, "image payload is empty", http.StatusBadRequest, nil)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	req := visionRequest{
		Model: c.model,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: recognizeInstructions},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: 500,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, common.ErrProviderUnavailable.WithCause(err)
	}
	if resp.IsError() {
		common.LogWarn("vision call rejected",
			zap.Int("status", resp.StatusCode()),
		)
		return nil, common.ErrProviderUnavailable
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content").String()
	return parseProducts(content)
}

// parseProducts extracts the product list from provider text, tolerating
// fenced or prefixed JSON.
func parseProducts(content string) ([]string, error) {
	raw := common.ExtractJSON(content)
	if raw == "" {
		return nil, common.ErrMalformedOutput
	}

	var payload struct {
		Products []string `json:"products"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, common.ErrMalformedOutput.WithCause(err)
	}

	seen := make(map[string]struct{}, len(payload.Products))
	products := make([]string, 0, len(payload.Products))
	for _, p := range payload.Products {
		name := ingredient.Canonical(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		products = append(products, name)
	}
	sort.Strings(products)
	return products, nil
}
