package command

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/justapithecus/supervise/notify"
)

func TestNew_RequiresRouting(t *testing.T) {
	if _, err := New(Config{Channel: "discord"}); err == nil {
		t.Error("expected error without target")
	}
	if _, err := New(Config{Target: "channel:1"}); err == nil {
		t.Error("expected error without channel")
	}
	tr, err := New(Config{Channel: "discord", Target: "channel:1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tr.config.Binary != DefaultBinary {
		t.Errorf("binary = %q, want %q", tr.config.Binary, DefaultBinary)
	}
}

func TestArgs(t *testing.T) {
	tr, _ := New(Config{Channel: "discord", Target: "channel:123"})

	args := tr.Args(&notify.Message{Text: "📊 **job** — 30%"})
	want := []string{"message", "send", "--channel", "discord", "--target", "channel:123", "--message", "📊 **job** — 30%"}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestArgs_AttachmentOnlyWhenPresent(t *testing.T) {
	tr, _ := New(Config{Channel: "discord", Target: "channel:123"})
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.png")
	args := tr.Args(&notify.Message{Text: "x", Attachment: missing})
	if slices.Contains(args, "--media") {
		t.Errorf("missing attachment should be skipped: %v", args)
	}

	plot := filepath.Join(dir, "loss.png")
	if err := os.WriteFile(plot, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	args = tr.Args(&notify.Message{Text: "x", Attachment: plot})
	if !slices.Contains(args, "--media") || args[len(args)-1] != plot {
		t.Errorf("existing attachment should be passed: %v", args)
	}

	args = tr.Args(&notify.Message{Text: "x", Attachment: dir})
	if slices.Contains(args, "--media") {
		t.Errorf("directory attachment should be skipped: %v", args)
	}
}

// fakeCLI writes a shell script that records its arguments.
func fakeCLI(t *testing.T, exitCode int) (binary, record string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	record = filepath.Join(dir, "args.txt")
	binary = filepath.Join(dir, "fake-openclaw")
	script := "#!/bin/sh\nfor a in \"$@\"; do printf '%s\\n' \"$a\" >> '" + record + "'; done\necho 'sent'\nexit " + string(rune('0'+exitCode)) + "\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return binary, record
}

func TestSend_InvokesBinary(t *testing.T) {
	binary, record := fakeCLI(t, 0)
	tr, _ := New(Config{Binary: binary, Channel: "telegram", Target: "user:456"})

	if err := tr.Send(context.Background(), &notify.Message{Text: "✅ **job** finished in 3s"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"message", "send", "--channel", "telegram", "--target", "user:456", "--message", "✅ **job** finished in 3s"}
	if !slices.Equal(got, want) {
		t.Errorf("recorded args = %v, want %v", got, want)
	}
}

func TestSend_FailureReturnsOutput(t *testing.T) {
	binary, _ := fakeCLI(t, 2)
	tr, _ := New(Config{Binary: binary, Channel: "telegram", Target: "user:456"})

	err := tr.Send(context.Background(), &notify.Message{Text: "x"})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "sent") {
		t.Errorf("error should include CLI output, got %v", err)
	}
}

// scriptCLI writes a shell script CLI with the given body.
func scriptCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	binary := filepath.Join(t.TempDir(), "fake-openclaw")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return binary
}

func TestDryRun_Args(t *testing.T) {
	binary, record := fakeCLI(t, 0)
	tr, _ := New(Config{Binary: binary, Channel: "discord", Target: "channel:1"})

	if err := tr.DryRun(context.Background()); err != nil {
		t.Fatalf("dry run: %v", err)
	}

	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	if got[len(got)-1] != "--dry-run" {
		t.Errorf("last arg = %q, want --dry-run", got[len(got)-1])
	}
	if !slices.Equal(got[:6], []string{"message", "send", "--channel", "discord", "--target", "channel:1"}) {
		t.Errorf("recorded args = %v", got)
	}
}

func TestDryRun_UnknownChannel(t *testing.T) {
	binary := scriptCLI(t, "echo 'Error: Unknown channel: discord' >&2\nexit 1\n")
	tr, _ := New(Config{Binary: binary, Channel: "discord", Target: "channel:1"})

	err := tr.DryRun(context.Background())
	if !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("err = %v, want ErrUnknownChannel", err)
	}
}

func TestDryRun_OtherFailure(t *testing.T) {
	binary := scriptCLI(t, "echo 'gateway offline'\nexit 3\n")
	tr, _ := New(Config{Binary: binary, Channel: "discord", Target: "channel:1"})

	err := tr.DryRun(context.Background())
	if err == nil {
		t.Fatal("expected error for failed dry-run")
	}
	if errors.Is(err, ErrUnknownChannel) {
		t.Errorf("unexpected ErrUnknownChannel: %v", err)
	}
	if !strings.Contains(err.Error(), "gateway offline") {
		t.Errorf("error should include CLI output, got %v", err)
	}
}

func TestAvailable(t *testing.T) {
	if Available("definitely-not-a-real-binary-xyz") {
		t.Error("nonexistent binary reported available")
	}
}
