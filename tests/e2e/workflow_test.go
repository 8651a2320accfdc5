package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const (
	testAPIKey   = "hf_e2e0123456789abcdef"
	testEmail    = "e2e@example.com"
	testPassword = "e2e-password"
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	binDir := os.Getenv("HABITFLOW_BIN_DIR")
	if binDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			t.Fatalf("Failed to get cwd: %v", err)
		}
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "habitflow")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it first with: go build -o bin/habitflow ./cmd/habitflow", cliPath)
	}

	// Create temp home for isolation
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "habitflow", "config.yaml")
	dbPath := filepath.Join(tempDir, "habitflow", "habitflow.db")

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "HABITFLOW_") {
			env = append(env, e)
		}
	}
	env = append(env,
		"HOME="+tempDir,
		"HABITFLOW_CONFIG="+configPath,
		"HABITFLOW_API_KEY="+testAPIKey,
		"HABITFLOW_PASSWORD="+testPassword,
		"HABITFLOW_TIMEZONE=UTC",
	)

	// 2. Initialize against a SQLite backend
	runCmd(t, cliPath, env, "init", "--endpoint", dbPath)
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("init did not write %s: %v", configPath, err)
	}

	// 3. Sign up. The session lives in the OS keyring.
	out, err := tryCmd(cliPath, env, "auth", "signup", "--email", testEmail)
	if err != nil {
		if strings.Contains(strings.ToLower(out), "keyring") {
			t.Skipf("OS keyring unavailable: %s", out)
		}
		t.Fatalf("signup failed: %v\nOutput: %s", err, out)
	}
	defer func() { _, _ = tryCmd(cliPath, env, "auth", "signout") }()

	// 4. Track a habit and a task
	runCmd(t, cliPath, env, "habit", "add", "Meditate", "--category", "mind")
	runCmd(t, cliPath, env, "habit", "done", "Meditate")

	out, err = tryCmd(cliPath, env, "habit", "done", "Meditate")
	if err == nil {
		t.Fatalf("second completion on the same day should fail\nOutput: %s", out)
	}
	if !strings.Contains(out, "already completed today") {
		t.Errorf("expected duplicate message, got: %s", out)
	}

	runCmd(t, cliPath, env, "task", "add", "File taxes", "--category", "admin", "--priority", "high")
	runCmd(t, cliPath, env, "task", "toggle", "File taxes")

	// 5. Reports reflect the writes
	out = runCmd(t, cliPath, env, "dashboard", "--json")
	var dash map[string]interface{}
	if err := json.Unmarshal([]byte(out), &dash); err != nil {
		t.Fatalf("dashboard --json is not JSON: %v\nOutput: %s", err, out)
	}

	// 6. Export round trip
	exportPath := filepath.Join(tempDir, "export.json")
	runCmd(t, cliPath, env, "export", "-o", exportPath)
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var doc struct {
		Habits       []json.RawMessage `json:"habits"`
		Tasks        []json.RawMessage `json:"tasks"`
		HabitEntries []json.RawMessage `json:"habitEntries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(doc.Habits) != 1 || len(doc.Tasks) != 1 || len(doc.HabitEntries) != 1 {
		t.Errorf("unexpected export counts: %d habits, %d tasks, %d entries",
			len(doc.Habits), len(doc.Tasks), len(doc.HabitEntries))
	}
	runCmd(t, cliPath, env, "import", exportPath)

	// 7. Diagnostics pass
	out = runCmd(t, cliPath, env, "doctor")
	if !strings.Contains(out, "All diagnostics passed!") {
		t.Errorf("doctor did not pass:\n%s", out)
	}
}

func tryCmd(path string, env []string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	out, err := tryCmd(path, env, args...)
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return out
}
