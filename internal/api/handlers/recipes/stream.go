package recipes

import (
	"encoding/json"
	"net/http"

	"fridgechef/internal/core/prompt"
	"fridgechef/internal/core/stream"
	"fridgechef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ndjsonWriter writes one JSON object per line and flushes after each so
// frames reach the client as they are produced.
type ndjsonWriter struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func newNDJSONWriter(w gin.ResponseWriter) *ndjsonWriter {
	flusher, _ := w.(http.Flusher)
	return &ndjsonWriter{enc: json.NewEncoder(w), flusher: flusher}
}

func (w *ndjsonWriter) WriteFrame(f stream.Frame) error {
	if err := w.enc.Encode(f); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// HandleStream serves POST /api/v1/recipes/stream. The response is
// line-delimited JSON; a client disconnect aborts the provider call.
func (h *Handler) HandleStream(c *gin.Context) {
	requestID := ensureRequestID(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("invalid request body",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	err := h.relay.Run(c.Request.Context(), stream.Request{
		Products:  toInputs(req.Products),
		Variant:   prompt.ParseVariant(req.Variant),
		SessionID: sessionID(c),
	}, newNDJSONWriter(c.Writer))
	if err != nil {
		// Headers are already out; the terminal frame (or its absence,
		// on cancellation) is the caller-visible outcome.
		common.LogDebug("stream ended with error",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
	}
}
