package recipes

import (
	"encoding/base64"
	"net/http"
	"strings"

	"fridgechef/internal/core/analytics"
	"fridgechef/internal/core/vision"
	"fridgechef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanRequest carries the photo as a data URI or bare base64 string.
type ScanRequest struct {
	Image string `json:"image" binding:"required"`
}

// ScanResponse is the recognized product list.
type ScanResponse struct {
	Products []string `json:"products"`
}

// ScanHandler serves the vision endpoint.
type ScanHandler struct {
	recognizer vision.Recognizer
	sink       *analytics.Sink
}

func NewScanHandler(recognizer vision.Recognizer, sink *analytics.Sink) *ScanHandler {
	return &ScanHandler{recognizer: recognizer, sink: sink}
}

// HandleScan serves POST /api/v1/scan.
func (h *ScanHandler) HandleScan(c *gin.Context) {
	requestID := ensureRequestID(c)

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	data, mimeType, err := decodeImage(req.Image)
	if err != nil {
		common.LogWarn("undecodable image payload",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "image must be a data URI or base64 string",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	products, err := h.recognizer.Recognize(c.Request.Context(), data, mimeType)
	if err != nil {
		writeError(c, requestID, err)
		return
	}

	h.sink.Track(analytics.EventPhotoUploaded, map[string]interface{}{
		"products_found": len(products),
	}, sessionID(c))

	if len(products) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "no products recognized, add them manually or try another photo",
			"code":  common.ErrCodeMalformedOutput,
		})
		return
	}
	c.JSON(http.StatusOK, ScanResponse{Products: products})
}

// decodeImage accepts "data:image/...;base64,..." or a bare base64 body.
func decodeImage(image string) ([]byte, string, error) {
	mimeType := ""
	payload := image

	if strings.HasPrefix(image, "data:") {
		header, rest, found := strings.Cut(image, ";base64,")
		if !found {
			return nil, "", common.ErrInvalidRequest
		}
		mimeType = strings.TrimPrefix(header, "data:")
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}
