// Package semantic delegates progress parsing to an external command,
// typically an LLM session runner, and decodes its loosely structured answer.
//
// Every failure mode (missing binary, non-zero exit, timeout, malformed
// output) is reported as "no reading" so callers can fall back to the local
// extractor.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/progress"
)

// DefaultTimeout bounds a single parser invocation.
const DefaultTimeout = 60 * time.Second

// PromptPlaceholder is replaced by the prompt text in Config.Command.
const PromptPlaceholder = "{prompt}"

// DefaultCommand is the argv used when Config.Command is empty.
func DefaultCommand() []string {
	return []string{"openclaw", "sessions", "spawn", "--task", PromptPlaceholder, "--cleanup", "delete"}
}

// Config configures the external parser.
type Config struct {
	// Command is the argv template; PromptPlaceholder marks the prompt argument.
	// If no argument contains the placeholder, the prompt is appended.
	Command []string
	// Timeout bounds each invocation (default 60s).
	Timeout time.Duration
	// WindowLines is the number of trailing output lines sent (default 50).
	WindowLines int
}

// Parser runs the external command and decodes its response.
type Parser struct {
	config Config
	logger *log.Logger
}

// New creates a Parser. A nil logger discards diagnostics.
func New(cfg Config, logger *log.Logger) *Parser {
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultCommand()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WindowLines <= 0 {
		cfg.WindowLines = progress.DefaultWindowLines
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Parser{config: cfg, logger: logger}
}

// Parse implements progress.Parser.
func (p *Parser) Parse(ctx context.Context, label, text string) (progress.Reading, bool) {
	window := strings.Join(progress.Window(text, p.config.WindowLines), "\n")
	if strings.TrimSpace(window) == "" {
		return progress.Reading{}, false
	}

	out, err := p.run(ctx, BuildPrompt(label, window, p.config.WindowLines))
	if err != nil {
		p.logger.Debug("semantic parser unavailable", map[string]any{
			"error": err.Error(),
		})
		return progress.Reading{}, false
	}

	r, ok := Decode(out)
	if !ok {
		p.logger.Debug("semantic parser returned no reading", map[string]any{
			"bytes": len(out),
		})
	}
	return r, ok
}

func (p *Parser) run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	argv := make([]string, 0, len(p.config.Command)+1)
	substituted := false
	for _, arg := range p.config.Command {
		if strings.Contains(arg, PromptPlaceholder) {
			arg = strings.ReplaceAll(arg, PromptPlaceholder, prompt)
			substituted = true
		}
		argv = append(argv, arg)
	}
	if !substituted {
		argv = append(argv, prompt)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out after %s", argv[0], p.config.Timeout)
		}
		return "", fmt.Errorf("%s: %w", argv[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BuildPrompt renders the task sent to the external parser.
func BuildPrompt(label, window string, lines int) string {
	return fmt.Sprintf(`You are a progress parser. Analyze this process output and extract progress information.

Process label: %q

Output (last %d lines):
`+"```"+`
%s
`+"```"+`

Respond with ONLY a JSON object (no markdown, no explanation):
{"percent": <0-100 or null if unknown>, "current": <current step or null>, "total": <total steps or null>, "summary": "<1-line status summary with key metrics>"}

Rules:
- percent: estimate completion 0-100. Use step/total if available, or infer from context. null if truly unknown.
- current/total: extract if there's a clear X/Y pattern (epochs, steps, batches, files, etc). null otherwise.
- summary: concise 1-line status. Include key metrics (loss, accuracy, speed, ETA) if visible.
- If output shows an error or crash, set percent to null and describe the error in summary.
- If output has no discernible progress, set percent to null.`, label, lines, window)
}

// Verify Parser implements progress.Parser.
var _ progress.Parser = (*Parser)(nil)
