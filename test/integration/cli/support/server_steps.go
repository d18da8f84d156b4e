package support

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/AinsleeWang/smart-doc-scan/internal/server"
)

var errNoServer = errors.New("no test server running")

// RegisterServerSteps registers the HTTP API steps. The server runs on an
// httptest listener with the production handler.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the scan server is running$`, testCtx.theScanServerIsRunning)
	sc.Step(`^the scan server is running with a limit of (\d+) requests? per minute$`, testCtx.theScanServerIsRunningWithLimit)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I upload "([^"]*)" as "([^"]*)" to "([^"]*)"$`, testCtx.iUploadAsTo)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response content type should be "([^"]*)"$`, testCtx.theResponseContentTypeShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
}

func (testCtx *TestContext) startServer(cfg server.Config) error {
	testCtx.StopServer()
	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.HTTPServer = httptest.NewServer(srv.Handler())
	return nil
}

func (testCtx *TestContext) theScanServerIsRunning() error {
	return testCtx.startServer(server.DefaultConfig())
}

func (testCtx *TestContext) theScanServerIsRunningWithLimit(perMinute int) error {
	cfg := server.DefaultConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = perMinute
	return testCtx.startServer(cfg)
}

func (testCtx *TestContext) iGET(path string) error {
	if testCtx.HTTPServer == nil {
		return errNoServer
	}
	resp, err := http.Get(testCtx.HTTPServer.URL + path) //nolint:noctx // test helper
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return testCtx.recordResponse(resp)
}

// iUploadAsTo posts the scenario file in the named multipart field. The path
// may carry a query string such as /v1/scan?format=json.
func (testCtx *TestContext) iUploadAsTo(name, field, path string) error {
	if testCtx.HTTPServer == nil {
		return errNoServer
	}
	data, err := os.ReadFile(testCtx.path(name)) //nolint:gosec // G304: scenario file
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := http.Post(testCtx.HTTPServer.URL+path, mw.FormDataContentType(), &body) //nolint:noctx // test helper
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = resp.Header
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseContentTypeShouldBe(contentType string) error {
	got := testCtx.LastHTTPHeaders.Get("Content-Type")
	if !strings.HasPrefix(got, contentType) {
		return fmt.Errorf("expected content type %s, got %s", contentType, got)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != want {
		return fmt.Errorf("header %s is %q, want %q", name, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(field, want string) error {
	return jsonFieldEquals(testCtx.LastHTTPResponse, field, want)
}
