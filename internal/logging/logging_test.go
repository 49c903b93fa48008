package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	tests := []struct {
		name, configured, exeDir, want string
	}{
		{"Configured", "/var/log/jitrca", "/opt/jitrca", "/var/log/jitrca"},
		{"NextToBinary", "", "/opt/jitrca", filepath.Join("/opt/jitrca", "logs")},
		{"Relative", "", "", "logs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dir(tt.configured, tt.exeDir); got != tt.want {
				t.Errorf("Dir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_WritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)
	var console bytes.Buffer

	logger := New(&console, true, file)
	logger.Info().Str("dataset", "d1").Msg("Dataset loaded")

	if !strings.Contains(console.String(), "Dataset loaded") {
		t.Errorf("console sink missing the event: %q", console.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"dataset":"d1"`) {
		t.Errorf("file sink must hold JSON lines, got %q", data)
	}
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("ensureWritable() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Errorf("probe file must be removed")
	}
}
