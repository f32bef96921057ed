package executor

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/model"
)

func writeEngine(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func testJob() model.PlatformJob {
	return model.PlatformJob{
		Type: "publish_content",
		Payload: model.JobPayload{
			Platform:   "reddit",
			CampaignID: "c1",
		},
	}
}

func TestExecuteSuccessParsesLastLine(t *testing.T) {
	bin := writeEngine(t, `
echo "booting engine"
echo ""
echo '{"ok":true,"platform":"reddit","postId":"p1","permalink":"https://r/p1"}'
`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	result, err := exec.Execute(context.Background(), testJob())

	require.NoError(t, err)
	assert.Equal(t, "reddit", result.Platform)
	assert.Equal(t, "p1", result.PostID)
	assert.Equal(t, "https://r/p1", result.Permalink)
}

func TestExecutePassesBase64JobArgument(t *testing.T) {
	bin := writeEngine(t, `printf '{"ok":true,"postId":"%s"}\n' "$1"`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())
	job := testJob()

	result, err := exec.Execute(context.Background(), job)
	require.NoError(t, err)

	payload, err := job.EngineBytes()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), result.PostID)
}

func TestExecuteSetsNonInteractiveFlag(t *testing.T) {
	bin := writeEngine(t, `printf '{"ok":true,"postId":"%s"}\n' "$AUTOMATION_NO_PROMPT"`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	result, err := exec.Execute(context.Background(), testJob())

	require.NoError(t, err)
	assert.Equal(t, "1", result.PostID)
}

func TestExecuteNonZeroExit(t *testing.T) {
	bin := writeEngine(t, `
echo "login refused" >&2
exit 3
`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	_, err := exec.Execute(context.Background(), testJob())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "login refused")
}

func TestExecuteNotOK(t *testing.T) {
	bin := writeEngine(t, `echo '{"ok":false,"error":"rate limited"}'`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	_, err := exec.Execute(context.Background(), testJob())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestExecuteUnparsableResult(t *testing.T) {
	bin := writeEngine(t, `echo 'published maybe?'`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	_, err := exec.Execute(context.Background(), testJob())
	require.Error(t, err)
}

func TestExecuteEmptyOutput(t *testing.T) {
	bin := writeEngine(t, `true`)
	exec := NewProcessExecutor(bin, 5*time.Second, zerolog.Nop())

	_, err := exec.Execute(context.Background(), testJob())
	require.Error(t, err)
}

func TestExecuteTimeout(t *testing.T) {
	bin := writeEngine(t, `sleep 10`)
	exec := NewProcessExecutor(bin, 200*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := exec.Execute(context.Background(), testJob())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseResultLastNonEmptyLine(t *testing.T) {
	result, err := parseResult([]byte("log line\n{\"ok\":true,\"postId\":\"x\"}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", result.PostID)
}
