package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"pagotrack/internal/config"
	"pagotrack/internal/log"
)

func TestSetupLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := SetupLogger(log.ComponentWorker)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	if logger.Component() != log.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}
}

func TestOpenState(t *testing.T) {
	dir := t.TempDir()
	settings := `{"name":"Ana","weeklyPaymentDay":1,"expectedAmount":1800,"startDate":"2024-01-01"}`
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0o600); err != nil {
		t.Fatal(err)
	}
	logger := log.New(log.Config{Output: &bytes.Buffer{}})

	state, res, err := OpenState(context.Background(), logger, &config.Config{
		DataBackend:   "memory",
		MemorySeedDir: dir,
	})
	if err != nil {
		t.Fatalf("OpenState: %v", err)
	}
	defer res.Close()

	got, err := state.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got.Name != "Ana" || got.ExpectedAmount.String() != "1800.00" {
		t.Errorf("settings = %+v", got)
	}
}

func TestOpenStateRejectsUnknownBackend(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	if _, _, err := OpenState(context.Background(), logger, &config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error")
	}
}
