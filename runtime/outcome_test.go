package runtime

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOutcome_ExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    int
		success bool
	}{
		{"clean exit", Outcome{Kind: OutcomeExited, Code: 0}, 0, true},
		{"error exit", Outcome{Kind: OutcomeExited, Code: 3}, 3, false},
		{"sigkill", Outcome{Kind: OutcomeSignaled, Signal: 9}, 137, false},
		{"sigterm", Outcome{Kind: OutcomeSignaled, Signal: 15}, 143, false},
		{"launch failure", Outcome{Kind: OutcomeLaunchFailed, Code: -1, Err: errors.New("nope")}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.ExitStatus(); got != tt.want {
				t.Errorf("ExitStatus() = %d, want %d", got, tt.want)
			}
			if got := tt.outcome.Success(); got != tt.success {
				t.Errorf("Success() = %v, want %v", got, tt.success)
			}
		})
	}
}

func TestOutcome_LikelyOOM(t *testing.T) {
	if !(Outcome{Kind: OutcomeSignaled, Signal: 9}).LikelyOOM() {
		t.Error("SIGKILL should hint OOM")
	}
	if (Outcome{Kind: OutcomeSignaled, Signal: 15}).LikelyOOM() {
		t.Error("SIGTERM should not hint OOM")
	}
	if (Outcome{Kind: OutcomeExited, Code: 9}).LikelyOOM() {
		t.Error("exit code 9 is not a signal")
	}
}

func TestDetermineOutcome(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name   string
		script string
		want   Outcome
	}{
		{"exit 0", "exit 0", Outcome{Kind: OutcomeExited, Code: 0}},
		{"exit 5", "exit 5", Outcome{Kind: OutcomeExited, Code: 5}},
		{"self kill", "kill -9 $$", Outcome{Kind: OutcomeSignaled, Signal: 9}},
		{"self term", "kill -15 $$", Outcome{Kind: OutcomeSignaled, Signal: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command("sh", "-c", tt.script)
			err := cmd.Run()
			got := DetermineOutcome(cmd.ProcessState, err)
			if got.Kind != tt.want.Kind || got.Code != tt.want.Code || got.Signal != tt.want.Signal {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetermineOutcome_NoProcessState(t *testing.T) {
	got := DetermineOutcome(nil, errors.New("wait failed"))
	if got.Kind != OutcomeLaunchFailed || got.ExitStatus() != 1 {
		t.Errorf("got %+v", got)
	}
}
