package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

// RateLimitError reports a provider-side throttle. Callers detect it
// with errors.As; the loops just treat it as an empty cycle.
type RateLimitError struct {
	RawResponse string
}

func (e *RateLimitError) Error() string {
	return "engine rate limit exceeded"
}

// Client runs the reasoning engine as a CLI subprocess:
// <command> -p <prompt> --output-format json --model <model>.
type Client struct {
	command string
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ ports.ReasoningEngine = (*Client)(nil)

func NewClient(command, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if command == "" {
		command = "claude"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{command: command, model: model, timeout: timeout, logger: logger}
}

type cliError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type cliResponse struct {
	Result        json.RawMessage `json:"result"`
	Error         *cliError       `json:"error,omitempty"`
	IsRateLimited bool            `json:"is_rate_limited,omitempty"`
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"-p", prompt, "--output-format", "json"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("engine timed out after %v: %w", c.timeout, ctx.Err())
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("engine call canceled: %w", ctx.Err())
		}
		if looksRateLimited(stderr.String()) {
			return "", &RateLimitError{RawResponse: stderr.String()}
		}
		return "", fmt.Errorf("engine command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	text, err := parseResponse(stdout.Bytes())
	if err != nil {
		return "", err
	}

	c.logger.Debug("engine completed",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_bytes", len(text)))

	return text, nil
}

func parseResponse(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("parse engine response: %w", domain.ErrEngineEmpty)
	}

	var resp cliResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode engine response: %w", err)
	}

	if resp.IsRateLimited {
		return "", &RateLimitError{RawResponse: string(data)}
	}
	if resp.Error != nil {
		if looksRateLimited(resp.Error.Message) || looksRateLimited(resp.Error.Type) {
			return "", &RateLimitError{RawResponse: resp.Error.Message}
		}
		return "", fmt.Errorf("engine error: %s (type: %s)", resp.Error.Message, resp.Error.Type)
	}

	text := strings.TrimSpace(extractText(resp.Result))
	if text == "" {
		return "", domain.ErrEngineEmpty
	}

	return text, nil
}

// extractText copes with both result shapes the CLI has used: a plain
// string, or an object whose content array holds typed text blocks.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var structured struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return ""
	}

	var builder strings.Builder
	for _, block := range structured.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}

func looksRateLimited(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429")
}
