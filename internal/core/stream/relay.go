package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/core/analytics"
	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/core/prompt"
	"fridgechef/internal/infrastructure/metrics"
	"fridgechef/internal/pkg/common"

	"go.uber.org/zap"
)

// Frame is one line of the relay protocol. Exactly one of the three shapes
// is populated: a delta, a done frame with the accumulated text, or an
// error frame.
type Frame struct {
	Delta    string `json:"delta,omitempty"`
	Done     bool   `json:"done,omitempty"`
	FullText string `json:"fullText,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FrameWriter delivers frames to the caller. Implementations must flush
// each frame immediately; the relay does no buffering of its own.
type FrameWriter interface {
	WriteFrame(Frame) error
}

// Relay converts a live token stream into line-delimited frames. It is a
// presentation path: output is never validated and never cached.
type Relay struct {
	client   ai.Client
	sink     *analytics.Sink
	defaults []string
}

// NewRelay wires the stream pipeline. defaults is the product set used when
// the caller sends none, same as the batch path.
func NewRelay(client ai.Client, sink *analytics.Sink, defaults []string) *Relay {
	return &Relay{client: client, sink: sink, defaults: defaults}
}

// Request is the stream pipeline input.
type Request struct {
	Products  []ingredient.Input
	Variant   prompt.Variant
	SessionID string
}

// Run opens a token stream and forwards fragments to w until the provider
// finishes, the transport fails, or ctx is cancelled. On cancellation the
// provider connection is aborted and no terminal frame is written.
func (r *Relay) Run(ctx context.Context, req Request, w FrameWriter) error {
	products := req.Products
	canonicalItems := ingredient.CanonicalNames(products)
	if len(canonicalItems) == 0 {
		products = make([]ingredient.Input, 0, len(r.defaults))
		for _, n := range r.defaults {
			products = append(products, ingredient.Input{Name: n})
		}
		canonicalItems = ingredient.CanonicalNames(products)
	}
	p := prompt.BuildStream(req.Variant, canonicalItems, stockLines(products))

	s, err := r.client.GenerateStream(ctx, p.Instructions, p.UserContent, p.Temperature)
	if err != nil {
		metrics.StreamSessions.WithLabelValues("failed").Inc()
		if werr := w.WriteFrame(Frame{Error: common.ErrProviderUnavailable.Message}); werr != nil {
			return werr
		}
		return err
	}
	defer s.Close()

	var full strings.Builder
	for {
		select {
		case <-ctx.Done():
			// Caller went away: abort the provider call, emit nothing.
			metrics.StreamSessions.WithLabelValues("cancelled").Inc()
			common.LogDebug("stream cancelled by caller",
				zap.Int("accumulated_chars", full.Len()),
			)
			return ctx.Err()
		case f, ok := <-s.Frames():
			if !ok {
				// Producer closed without a terminal fragment; treat as
				// a transport failure rather than inventing a done frame.
				metrics.StreamSessions.WithLabelValues("failed").Inc()
				return w.WriteFrame(Frame{Error: common.ErrStreamTransport.Message})
			}
			if f.Err != nil {
				metrics.StreamSessions.WithLabelValues("failed").Inc()
				common.LogWarn("stream transport error",
					zap.Error(f.Err),
					zap.Int("accumulated_chars", full.Len()),
				)
				return w.WriteFrame(Frame{Error: common.ErrStreamTransport.Message})
			}
			if f.Done {
				metrics.StreamSessions.WithLabelValues("completed").Inc()
				text := full.String()
				r.sink.Track(analytics.EventTokenSpent, map[string]interface{}{
					"variant":       string(req.Variant),
					"chars":         len(text),
					"approx_tokens": approxTokens(text),
				}, req.SessionID)
				return w.WriteFrame(Frame{Done: true, FullText: text})
			}
			full.WriteString(f.Delta)
			if err := w.WriteFrame(Frame{Delta: f.Delta}); err != nil {
				// The write side is gone; same treatment as cancellation.
				metrics.StreamSessions.WithLabelValues("cancelled").Inc()
				return err
			}
		}
	}
}

// stockLines renders the caller's items with their quantities for the
// prompt, one line per item.
func stockLines(items []ingredient.Input) []string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		name := ingredient.Canonical(it.Name)
		if name == "" {
			continue
		}
		if it.Quantity == nil {
			lines = append(lines, name)
			continue
		}
		qty := strconv.FormatFloat(*it.Quantity, 'f', -1, 64)
		if it.Unit != "" {
			lines = append(lines, fmt.Sprintf("%s: %s %s", name, qty, it.Unit))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", name, qty))
		}
	}
	return lines
}

// approxTokens estimates token usage from character count; exact counters
// are unavailable in streaming mode.
func approxTokens(text string) int {
	return len(text) / 4
}
