package recipes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"fridgechef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	products []string
	err      error
	gotMime  string
	gotData  []byte
}

func (s *stubRecognizer) Recognize(ctx context.Context, imageData []byte, mimeType string) ([]string, error) {
	s.gotData = imageData
	s.gotMime = mimeType
	return s.products, s.err
}

func scanRouter(rec *stubRecognizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/scan", NewScanHandler(rec, nil).HandleScan)
	return r
}

func TestHandleScanDataURI(t *testing.T) {
	rec := &stubRecognizer{products: []string{"egg", "onion"}}
	r := scanRouter(rec)

	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	payload := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	body, _ := json.Marshal(map[string]string{"image": payload})

	w := postJSON(t, r, "/api/v1/scan", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, image, rec.gotData)
	assert.Equal(t, "image/jpeg", rec.gotMime)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"egg", "onion"}, resp.Products)
}

func TestHandleScanBareBase64(t *testing.T) {
	rec := &stubRecognizer{products: []string{"milk"}}
	r := scanRouter(rec)

	body, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	})

	w := postJSON(t, r, "/api/v1/scan", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":["milk"]}`, w.Body.String())
	assert.Empty(t, rec.gotMime)
}

func TestHandleScanNothingRecognized(t *testing.T) {
	rec := &stubRecognizer{products: []string{}}
	r := scanRouter(rec)

	body, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	})

	w := postJSON(t, r, "/api/v1/scan", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeMalformedOutput)
}

func TestHandleScanRejectsGarbage(t *testing.T) {
	r := scanRouter(&stubRecognizer{})

	w := postJSON(t, r, "/api/v1/scan", `{"image":"not base64 at all!!!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, r, "/api/v1/scan", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScanRecognizerErrorMapped(t *testing.T) {
	rec := &stubRecognizer{err: common.ErrProviderUnavailable}
	r := scanRouter(rec)

	body, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString([]byte{1}),
	})

	w := postJSON(t, r, "/api/v1/scan", string(body))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "PROVIDER_UNAVAILABLE")
}
