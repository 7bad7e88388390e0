package recipes

import (
	"errors"
	"net/http"

	"fridgechef/internal/core/analytics"
	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/core/prompt"
	"fridgechef/internal/core/recipe"
	"fridgechef/internal/core/stream"
	"fridgechef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateRequest is the batch and stream request body.
type GenerateRequest struct {
	Products []ProductInput `json:"products"`
	Variant  string         `json:"variant,omitempty"`
}

// ProductInput mirrors the caller-facing ingredient shape. Quantity and
// unit are optional; unit is one of mass, volume, count.
type ProductInput struct {
	Name     string   `json:"name" binding:"required"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

// Handler serves the generation endpoints.
type Handler struct {
	service *recipe.Service
	relay   *stream.Relay
	sink    *analytics.Sink
}

func NewHandler(service *recipe.Service, relay *stream.Relay, sink *analytics.Sink) *Handler {
	return &Handler{service: service, relay: relay, sink: sink}
}

// HandleGenerate serves POST /api/v1/recipes.
func (h *Handler) HandleGenerate(c *gin.Context) {
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

	resp, err := h.service.Generate(c.Request.Context(), recipe.GenerateRequest{
		Products:  toInputs(req.Products),
		Variant:   prompt.ParseVariant(req.Variant),
		SessionID: sessionID(c),
		NoCache:   c.Query("nocache") == "1",
		Debug:     c.Query("debug") == "1",
	})
	if err != nil {
		writeError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func toInputs(products []ProductInput) []ingredient.Input {
	inputs := make([]ingredient.Input, 0, len(products))
	for _, p := range products {
		inputs = append(inputs, ingredient.Input{
			Name:     p.Name,
			Quantity: p.Quantity,
			Unit:     ingredient.Unit(p.Unit),
		})
	}
	return inputs
}

func ensureRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

func sessionID(c *gin.Context) string {
	return c.GetHeader("X-Session-ID")
}

func writeError(c *gin.Context, requestID string, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.LogError("request failed",
			zap.String("request_id", requestID),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
		c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	common.LogError("request failed",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
		"code":  common.ErrCodeInternalError,
	})
}
