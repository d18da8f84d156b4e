package server

import (
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
)

func uploadRequest(t *testing.T, path string, extra map[string]string) *http.Request {
	t.Helper()
	data, err := encodeImageToPNG(testutil.CreateTestImage(40, 30, color.Gray{Y: 128}))
	require.NoError(t, err)
	req, err := createMultipartFormRequest(path, "image", data, "photo.png", extra)
	require.NoError(t, err)
	return req
}

func TestServer_ImageHandlers_MethodValidation(t *testing.T) {
	s := newTestServer(&mockScanner{result: foundResult()})
	handlers := map[string]http.HandlerFunc{
		"/v1/detect":   s.detectHandler,
		"/v1/scan":     s.scanHandler,
		"/v1/scan/pdf": s.scanPDFHandler,
		"/v1/batch":    s.batchHandler,
	}
	for path, h := range handlers {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(method, path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", method, path)
		}
	}
}

func TestServer_ParseImageRequest_Errors(t *testing.T) {
	s := newTestServer(&mockScanner{result: foundResult()})

	t.Run("missing image field", func(t *testing.T) {
		req, err := createMultipartFormRequest("/v1/scan", "file", []byte("x"), "a.png", nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()

		s.scanHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No image file provided")
	})

	t.Run("not an image", func(t *testing.T) {
		req, err := createMultipartFormRequest("/v1/scan", "image", []byte("plain text"), "a.png", nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()

		s.scanHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid image format")
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		s.scanHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		small := newTestServer(&mockScanner{result: foundResult()})
		small.maxUploadMB = 1
		big := make([]byte, 2*1024*1024)
		req, err := createMultipartFormRequest("/v1/scan", "image", big, "big.png", nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()

		small.scanHandler(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestServer_DetectHandler(t *testing.T) {
	mock := &mockScanner{result: foundResult()}
	s := newTestServer(mock)

	t.Run("json report", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.detectHandler(w, uploadRequest(t, "/v1/detect", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response ScanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		require.NotNil(t, response.Result)
		assert.Equal(t, "photo.png", response.Result.File)
		assert.Equal(t, detector.Found, response.Result.Detection.Status)
		assert.Len(t, response.Result.Detection.Corners, 4)
	})

	t.Run("overlay", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.detectHandler(w, uploadRequest(t, "/v1/detect", map[string]string{"overlay": "1"}))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		img, err := decodeResponseImage(w.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
	})

	assert.Equal(t, 2, mock.detectCall)
	assert.Zero(t, mock.scanCall)
}

func TestServer_DetectHandler_NoDocument(t *testing.T) {
	// Detection reports a miss as a NotFound result without an error.
	miss := notFoundScanner()
	miss.err = nil
	s := newTestServer(miss)

	w := httptest.NewRecorder()
	s.detectHandler(w, uploadRequest(t, "/v1/detect", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "no_document", response.Kind)
	require.NotNil(t, response.Result)
	assert.Equal(t, "photo.png", response.Result.File)
	assert.Equal(t, detector.NotFound, response.Result.Detection.Status)

	t.Run("overlay still drawn", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.detectHandler(w, uploadRequest(t, "/v1/detect", map[string]string{"overlay": "1"}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	})
}

func TestServer_ScanHandler_Formats(t *testing.T) {
	s := newTestServer(&mockScanner{result: foundResult()})

	tests := []struct {
		format      string
		contentType string
	}{
		{"", "image/png"},
		{"png", "image/png"},
		{"jpg", "image/jpeg"},
		{"pdf", "application/pdf"},
		{"json", "application/json"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			extra := map[string]string{}
			if tt.format != "" {
				extra["format"] = tt.format
			}
			w := httptest.NewRecorder()
			s.scanHandler(w, uploadRequest(t, "/v1/scan", extra))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, "200", w.Header().Get("X-Document-Width"))
			assert.Equal(t, "100", w.Header().Get("X-Document-Height"))
			assert.Equal(t, "50,50;250,50;250,150;50,150", w.Header().Get("X-Document-Corners"))

			switch tt.contentType {
			case "image/png", "image/jpeg":
				img, err := decodeResponseImage(w.Body.Bytes())
				require.NoError(t, err)
				assert.Equal(t, 200, img.Bounds().Dx())
				assert.Equal(t, 100, img.Bounds().Dy())
			case "application/pdf":
				assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
			case "application/json":
				var response ScanResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, 200, response.Result.OutputWidth)
				assert.Len(t, response.Result.OrderedCorners, 4)
			}
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.scanHandler(w, uploadRequest(t, "/v1/scan", map[string]string{"format": "gif"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_ScanHandler_NoDocument(t *testing.T) {
	s := newTestServer(notFoundScanner())

	w := httptest.NewRecorder()
	s.scanHandler(w, uploadRequest(t, "/v1/scan", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "no_document", response.Kind)
	require.NotNil(t, response.Result)
	assert.Equal(t, detector.NotFound, response.Result.Detection.Status)
}

func TestServer_ScanHandler_OverlayOnMiss(t *testing.T) {
	s := newTestServer(notFoundScanner())

	w := httptest.NewRecorder()
	s.scanHandler(w, uploadRequest(t, "/v1/scan", map[string]string{"overlay": "true"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestServer_ScanHandler_InternalError(t *testing.T) {
	s := newTestServer(&mockScanner{err: errors.New("warp exploded")})

	w := httptest.NewRecorder()
	s.scanHandler(w, uploadRequest(t, "/v1/scan", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "warp exploded")
}

func TestServer_ScanHandler_NilPipeline(t *testing.T) {
	s := newTestServer(nil)

	w := httptest.NewRecorder()
	s.scanHandler(w, uploadRequest(t, "/v1/scan", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_ScanHandler_RealPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full pipeline")
	}
	s, err := realTestServer()
	require.NoError(t, err)

	data, err := scenePNG()
	require.NoError(t, err)
	req, err := createMultipartFormRequest("/v1/scan", "image", data, "scene.png", map[string]string{"format": "json"})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Result)
	assert.Equal(t, detector.Found, response.Result.Detection.Status)
	assert.InDelta(t, 800, response.Result.OutputWidth, 15)
	assert.InDelta(t, 600, response.Result.OutputHeight, 15)
}
