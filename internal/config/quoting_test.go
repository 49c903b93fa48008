package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

// Windows-style paths with spaces are the usual reason to quote a value.
func TestDotenvQuoting(t *testing.T) {
	content := "CATALOG_PATH='C:\\Program Files\\jitrca\\catalog \"prod\".yaml'\nTARGET_SLA=\"96.5\"\n"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	tests := map[string]string{
		"CATALOG_PATH": `C:\Program Files\jitrca\catalog "prod".yaml`,
		"TARGET_SLA":   "96.5",
	}
	for key, want := range tests {
		if env[key] != want {
			t.Errorf("%s: expected %s, got %s", key, want, env[key])
		}
	}
}
