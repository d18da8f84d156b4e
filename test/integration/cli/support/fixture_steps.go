package support

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// RegisterFixtureSteps registers the steps that create input files.
func (testCtx *TestContext) RegisterFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a document photo "([^"]*)"$`, testCtx.aDocumentPhoto)
	sc.Step(`^a rotated document photo "([^"]*)"$`, testCtx.aRotatedDocumentPhoto)
	sc.Step(`^a blank photo "([^"]*)"$`, testCtx.aBlankPhoto)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)
	sc.Step(`^a PDF "([^"]*)" with (\d+) document photos?$`, testCtx.aPDFWithDocumentPhotos)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
}

func (testCtx *TestContext) writeImage(name string, img image.Image) error {
	path := testCtx.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return utils.SaveImage(path, img, 95)
}

// documentScene is a 640x480 photo with a page covering most of the frame.
func documentScene() *image.NRGBA {
	cfg := testutil.DefaultSceneConfig()
	cfg.Size = testutil.MediumSize
	cfg.Corners = testutil.RectCorners(image.Rect(80, 60, 560, 420))
	cfg.Text = []string{"INVOICE 2024-117", "Total due: 42.00"}
	return testutil.GenerateScene(cfg)
}

func (testCtx *TestContext) aDocumentPhoto(name string) error {
	return testCtx.writeImage(name, documentScene())
}

func (testCtx *TestContext) aRotatedDocumentPhoto(name string) error {
	cfg := testutil.DefaultSceneConfig()
	cfg.Size = testutil.MediumSize
	cfg.Corners = testutil.RotatedCorners(image.Pt(320, 240), 400, 280, 15)
	return testCtx.writeImage(name, testutil.GenerateScene(cfg))
}

func (testCtx *TestContext) aBlankPhoto(name string) error {
	return testCtx.writeImage(name, testutil.CreateTestImage(320, 240, color.Black))
}

func (testCtx *TestContext) aCorruptImage(name string) error {
	return os.WriteFile(testCtx.path(name), []byte("not an image"), 0o600)
}

func (testCtx *TestContext) aPDFWithDocumentPhotos(name string, pages int) error {
	images := make([]image.Image, pages)
	for i := range images {
		images[i] = documentScene()
	}
	if err := pdf.WriteDocumentFile(testCtx.path(name), images...); err != nil {
		return fmt.Errorf("failed to write PDF fixture: %w", err)
	}
	return nil
}

func (testCtx *TestContext) aConfigFileWith(name string, content *godog.DocString) error {
	return os.WriteFile(testCtx.path(name), []byte(testCtx.substituteVariables(content.Content)), 0o600)
}
