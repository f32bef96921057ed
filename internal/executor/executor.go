// Package executor runs platform jobs through the external automation
// engine.
package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
)

// Executor abstracts the automation engine so tests can substitute an
// in-memory fake for the subprocess implementation.
type Executor interface {
	Execute(ctx context.Context, job model.PlatformJob) (*model.ExecutionResult, error)
}

// ProcessExecutor spawns the engine binary once per job: one argv of
// base64-encoded JSON in, one JSON result as the final stdout line out.
type ProcessExecutor struct {
	bin     string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewProcessExecutor(bin string, timeout time.Duration, logger zerolog.Logger) *ProcessExecutor {
	return &ProcessExecutor{
		bin:     bin,
		timeout: timeout,
		logger:  logger.With().Str("component", "executor").Logger(),
	}
}

func (e *ProcessExecutor) Execute(ctx context.Context, job model.PlatformJob) (*model.ExecutionResult, error) {
	payload, err := job.EngineBytes()
	if err != nil {
		return nil, fmt.Errorf("encoding job: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.bin, encoded)
	// The engine must never block on a prompt when driven by the worker.
	cmd.Env = append(os.Environ(), "AUTOMATION_NO_PROMPT=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	e.logger.Debug().
		Str("platform", job.Payload.Platform).
		Str("duration", time.Since(start).String()).
		Msg("Engine run finished")

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("engine timed out after %s", e.timeout)
	}
	if runErr != nil {
		return nil, fmt.Errorf("engine exited abnormally: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	return parseResult(stdout.Bytes())
}

// parseResult extracts the engine's result from its stdout. The engine
// may emit incidental log lines first; only the last non-empty line is
// the result.
func parseResult(out []byte) (*model.ExecutionResult, error) {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			last = trimmed
			break
		}
	}
	if last == "" {
		return nil, fmt.Errorf("engine produced no result line")
	}

	var result model.ExecutionResult
	if err := json.Unmarshal([]byte(last), &result); err != nil {
		return nil, fmt.Errorf("unparsable engine result %q: %w", last, err)
	}
	if !result.OK {
		if result.Error != "" {
			return nil, fmt.Errorf("engine reported failure: %s", result.Error)
		}
		return nil, fmt.Errorf("engine reported failure: %s", last)
	}
	return &result, nil
}
