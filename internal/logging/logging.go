// Package logging wires every package's diagnostics through one process-wide
// logrus logger, scoped by the two things that matter most when a scale
// misbehaves: which device, and what command or operation was in flight
// against it.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Packages write through it directly for
// events that aren't scoped to a device or operation (daemon startup,
// catalog load, listener bind) and through the With* helpers below
// otherwise.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel parses and applies level, e.g. "debug", "info", "warn", "error".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, chiefly for tests.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// SetJSONFormat switches to structured JSON output, for deployments that
// ship logs to a collector rather than a terminal.
func SetJSONFormat() {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithDevice scopes a logger entry to the device_id a command was sent to
// or a connection was attempted against. Chain WithCommand off the result
// when the event concerns one specific command rather than the device as a
// whole (a reconnect attempt, a fault transition).
func WithDevice(deviceID string) *logrus.Entry {
	return Log.WithField("device", deviceID)
}

// WithCommand narrows a device-scoped entry to the logical command name
// that was in flight, e.g. the classification mismatch the adapter logs
// when a frame's own code disagrees with the command that elicited it.
func WithCommand(entry *logrus.Entry, command string) *logrus.Entry {
	return entry.WithField("command", command)
}

// WithOperation scopes a logger entry to a manager- or core-level operation
// name (e.g. "manager.reconcile", "catalog.watch") rather than a single
// device.
func WithOperation(op string) *logrus.Entry {
	return Log.WithField("operation", op)
}
