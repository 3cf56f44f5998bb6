package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/amptab/internal/markers"
	"github.com/dshills/amptab/internal/stream"
	"github.com/dshills/amptab/internal/stream/streamtest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--color", "off", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRegionCommand(t *testing.T) {
	path := writeFile(t, "notes.txt", "one\ntwo\nthree\nfour\nfive\n")

	out, err := run(t, "region", "--line", "3", "--col", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: fallback")
	assert.Contains(t, out, "three")
}

func TestPromptCommand(t *testing.T) {
	path := writeFile(t, "notes.txt", "one\ntwo\nthree\n")

	out, err := run(t, "prompt", "--line", "2", "--col", "4", path)
	require.NoError(t, err)
	assert.Contains(t, out, markers.EditableRegionStart)
	assert.Contains(t, out, "two"+markers.UserCursor)
	assert.Contains(t, out, "tokens, region lines")
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "region", filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestCompleteCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		full := streamtest.Rewrite(stream.Request{
			Prompt:        gjson.GetBytes(body, "prompt").String(),
			CodeToRewrite: gjson.GetBytes(body, "prediction.content").String(),
		}, "return 1")

		w.Header().Set("Content-Type", "text/event-stream")
		chunk, _ := sjson.Set(`{}`, "choices.0.text", full)
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	t.Setenv("AMPTAB_TEST_KEY", "secret")
	cfgPath := writeFile(t, "amptab.toml", fmt.Sprintf(`
[api]
endpoint = %q
key_env = "AMPTAB_TEST_KEY"

[preload]
enabled = false
`, srv.URL))
	path := writeFile(t, "f.txt", "def f():\n    \n")

	out, err := run(t, "--config", cfgPath, "complete", "--line", "2", "--col", "5", path)
	require.NoError(t, err)
	assert.Contains(t, out, "return 1")

	out, err = run(t, "--config", cfgPath, "complete", "--accept", "--line", "2", "--col", "5", path)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    return 1\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    \n", string(data))
}

func TestCompleteReportsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	t.Setenv("AMPTAB_TEST_KEY", "secret")
	cfgPath := writeFile(t, "amptab.toml", fmt.Sprintf("[api]\nendpoint = %q\nkey_env = \"AMPTAB_TEST_KEY\"\n", srv.URL))
	path := writeFile(t, "f.txt", "x\n")

	_, err := run(t, "--config", cfgPath, "complete", path)
	var serr *stream.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.NotErrorIs(t, err, errNoCompletion)
}

func TestCompleteWithoutCredential(t *testing.T) {
	cfgPath := writeFile(t, "amptab.toml", "[api]\nkey_env = \"AMPTAB_UNSET_KEY\"\n")
	path := writeFile(t, "f.txt", "x\n")

	_, err := run(t, "--config", cfgPath, "complete", path)
	assert.ErrorIs(t, err, stream.ErrNoCredential)
}
