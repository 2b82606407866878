package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { Log.SetLevel(logrus.InfoLevel) })

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", Log.GetLevel())
	}

	if err := SetLevel("bogus"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestWithDevice_WithOperation(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	WithDevice("scale_1").Info("connected")
	WithOperation("manager.reconcile").Info("reconciled")
	WithCommand(WithDevice("scale_1"), "readGross").Warn("classification mismatch")

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("device=scale_1")) {
		t.Errorf("expected device field in log output, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("operation=manager.reconcile")) {
		t.Errorf("expected operation field in log output, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("command=readGross")) {
		t.Errorf("expected command field in log output, got %q", out)
	}
}
