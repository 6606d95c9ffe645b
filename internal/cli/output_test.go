package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	called := false
	err := formatter.Success(map[string]string{"result": "success"}, func(io.Writer) { called = true })
	require.NoError(t, err)
	assert.False(t, called, "text renderer is unused in json format")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"result": "success"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("ignored", func(w io.Writer) { fmt.Fprint(w, "rendered") }))
	assert.Equal(t, "rendered", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(NewExitError(ExitCommandError, "bad flag")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ExitCommandError, resp.Error.Code)
	assert.Equal(t, "bad flag", resp.Error.Message)

	buf.Reset()
	text := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, text.Error(errors.New("boom")))
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open session database", cause)

	assert.Equal(t, "failed to open session database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "x"))))
}
