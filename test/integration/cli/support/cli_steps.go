package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/AinsleeWang/smart-doc-scan/cmd/docscan/cmd"
	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
)

// commandTimeout bounds a single CLI invocation.
const commandTimeout = 60 * time.Second

// RegisterCLISteps registers the steps that run docscan and check its output.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^stderr should contain "([^"]*)"$`, testCtx.stderrShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the output should have (\d+) CSV rows$`, testCtx.theOutputShouldHaveCSVRows)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^(\d+) files? matching "([^"]*)" should exist$`, testCtx.filesMatchingShouldExist)
	sc.Step(`^the PDF "([^"]*)" should have (\d+) pages?$`, testCtx.thePDFShouldHavePages)
}

// iRunCommand runs a docscan command line in process. The leading "docscan"
// is optional and {tmp} expands to the scenario directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteVariables(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) > 0 && parts[0] == "docscan" {
		parts = parts[1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetArgs(parts)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	start := time.Now()
	err := root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = cmd.ExitCode(err)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theExitCodeShouldBe(code int) error {
	if testCtx.LastExitCode != code {
		return fmt.Errorf("expected exit code %d, got %d (error: %v)", code, testCtx.LastExitCode, testCtx.LastError)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteVariables(expectedText)
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError != nil && strings.Contains(testCtx.LastError.Error(), errorText) {
		return nil
	}
	if strings.Contains(testCtx.LastStderr, errorText) {
		return nil
	}
	return fmt.Errorf("error does not mention '%s'\nError: %v\nStderr: %s", errorText, testCtx.LastError, testCtx.LastStderr)
}

func (testCtx *TestContext) stderrShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("stderr does not contain '%s'\nStderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBe(field, want string) error {
	return jsonFieldEquals(testCtx.LastOutput, field, testCtx.substituteVariables(want))
}

// jsonFieldEquals looks up a dotted path such as "0.detection.status" in the
// JSON document and compares its rendering to want.
func jsonFieldEquals(doc, field, want string) error {
	var current any
	if err := json.Unmarshal([]byte(doc), &current); err != nil {
		return fmt.Errorf("not valid JSON: %w\n%s", err, doc)
	}
	for _, part := range strings.Split(field, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return fmt.Errorf("field %q not found at %q", field, part)
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return fmt.Errorf("field %q: bad index %q for array of %d", field, part, len(v))
			}
			current = v[i]
		default:
			return fmt.Errorf("field %q: cannot descend into %T at %q", field, current, part)
		}
	}
	if got := fmt.Sprint(current); got != want {
		return fmt.Errorf("field %q is %q, want %q", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldHaveCSVRows(rows int) error {
	lines := strings.Split(strings.TrimSpace(testCtx.LastOutput), "\n")
	// The first line is the header.
	if got := len(lines) - 1; got != rows {
		return fmt.Errorf("expected %d CSV rows, got %d\nOutput: %s", rows, got, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := testCtx.path(testCtx.substituteVariables(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	path := testCtx.path(testCtx.substituteVariables(name))
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario file
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", path, expected, data)
	}
	return nil
}

func (testCtx *TestContext) filesMatchingShouldExist(count int, pattern string) error {
	matches, err := filepath.Glob(testCtx.path(testCtx.substituteVariables(pattern)))
	if err != nil {
		return err
	}
	if len(matches) != count {
		return fmt.Errorf("expected %d files matching %s, found %d: %v", count, pattern, len(matches), matches)
	}
	return nil
}

func (testCtx *TestContext) thePDFShouldHavePages(name string, pages int) error {
	f, err := os.Open(testCtx.path(testCtx.substituteVariables(name))) //nolint:gosec // G304: scenario file
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	got, err := pdf.PageCount(f)
	if err != nil {
		return fmt.Errorf("failed to read PDF: %w", err)
	}
	if got != pages {
		return fmt.Errorf("expected %d pages, got %d", pages, got)
	}
	return nil
}
