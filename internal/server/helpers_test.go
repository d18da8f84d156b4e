package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/rectify"
	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// mockScanner returns canned results and counts calls.
type mockScanner struct {
	mu         sync.Mutex
	result     *pipeline.ScanResult
	err        error
	detectCall int
	scanCall   int
}

func (m *mockScanner) Detect(_ context.Context, _ image.Image) (*pipeline.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detectCall++
	if m.result == nil {
		return nil, m.err
	}
	res := *m.result
	res.Document, res.Warped = nil, nil
	return &res, m.err
}

func (m *mockScanner) Scan(_ context.Context, _ image.Image) (*pipeline.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCall++
	return m.result, m.err
}

// foundResult is a 200x100 page detected in a 400x300 image.
func foundResult() *pipeline.ScanResult {
	doc := testutil.CreateTestImage(200, 100, color.White)
	return &pipeline.ScanResult{
		Detection: detector.Result{
			Status:      detector.Found,
			Corners:     [4]image.Point{{50, 50}, {250, 50}, {250, 150}, {50, 150}},
			Source:      detector.SourcePolygon,
			ContourArea: 20000,
			ImageWidth:  400,
			ImageHeight: 300,
		},
		Document: doc,
		Warped:   doc,
		Corners: rectify.Quad{
			{X: 50, Y: 50}, {X: 250, Y: 50}, {X: 250, Y: 150}, {X: 50, Y: 150},
		},
	}
}

// notFoundScanner mimics the pipeline on an image without a page.
func notFoundScanner() *mockScanner {
	return &mockScanner{
		result: &pipeline.ScanResult{Detection: detector.Result{
			Status: detector.NotFound, ImageWidth: 400, ImageHeight: 300,
		}},
		err: docerr.NoDocument("pipeline.Scan"),
	}
}

func newTestServer(p scanner) *Server {
	cfg := DefaultConfig()
	cfg.TimeoutSec = 0
	return newServer(p, cfg)
}

// realTestServer runs the actual pipeline with enhancement off for speed.
func realTestServer() (*Server, error) {
	cfg := DefaultConfig()
	cfg.Pipeline.Rectify.Enhance = false
	return NewServer(cfg)
}

func encodeImageToPNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	return buf.Bytes(), err
}

func scenePNG() ([]byte, error) {
	return encodeImageToPNG(testutil.GenerateScene(testutil.DefaultSceneConfig()))
}

// createMultipartFormRequest builds a POST to path with data in field.
func createMultipartFormRequest(
	path, field string,
	data []byte,
	filename string,
	extraFields map[string]string,
) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(data); err != nil {
		return nil, err
	}

	for key, value := range extraFields {
		if err = writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}

	if err = writer.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func decodeResponseImage(body []byte) (image.Image, error) {
	return utils.DecodeImage(bytes.NewReader(body))
}
