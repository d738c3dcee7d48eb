// Package types defines core domain types shared by the supervise packages.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultLabel is used when no label is given and the command is empty.
const DefaultLabel = "process"

// RunMeta contains the identity of a single supervised run.
type RunMeta struct {
	// RunID uniquely identifies the run in logs and published reports.
	RunID string
	// Label is the human-readable name used in notifications.
	Label string
	// Command is the child argv.
	Command []string
	// PID is the child process ID, zero until the child has started.
	PID int
}

// NewRunMeta creates run metadata with a fresh run ID.
// An empty label is derived from the command.
func NewRunMeta(label string, command []string) *RunMeta {
	if strings.TrimSpace(label) == "" {
		label = LabelFor(command)
	}
	return &RunMeta{
		RunID:   uuid.New().String(),
		Label:   label,
		Command: command,
	}
}

// LabelFor derives a label from the base name of the command's executable.
func LabelFor(command []string) string {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return DefaultLabel
	}
	base := filepath.Base(command[0])
	if base == "." || base == string(filepath.Separator) {
		return DefaultLabel
	}
	return base
}

// Validate checks that the run has an ID, a label and a command.
func (r *RunMeta) Validate() error {
	if r.RunID == "" {
		return errors.New("run_id must be non-empty")
	}
	if r.Label == "" {
		return errors.New("label must be non-empty")
	}
	if len(r.Command) == 0 || r.Command[0] == "" {
		return errors.New("command must be non-empty")
	}
	return nil
}
