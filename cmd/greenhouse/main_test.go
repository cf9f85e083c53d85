package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(base, "data") + `"
images_dir = "` + filepath.Join(base, "images") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[generator]
api_key = "test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite refuses to clobber the file.
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestPlantAddListShow(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "plant", "add", "Monstera", "--species", "Monstera deliciosa")
	if err != nil {
		t.Fatalf("plant add: %v", err)
	}
	requireContains(t, out, "Added plant")

	out, err = runCLI(t, configPath, "plant", "list")
	if err != nil {
		t.Fatalf("plant list: %v", err)
	}
	requireContains(t, out, "Monstera")
	requireContains(t, out, "pending")

	out, err = runCLI(t, configPath, "plant", "show", "1")
	if err != nil {
		t.Fatalf("plant show: %v", err)
	}
	requireContains(t, out, "Monstera deliciosa")
}

func TestEnqueueAndQueueList(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "plant", "add", "Pothos"); err != nil {
		t.Fatalf("plant add: %v", err)
	}

	out, err := runCLI(t, configPath, "enqueue", "1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued 3 items")

	// Idempotent per plant: a second enqueue replaces the batch.
	out, err = runCLI(t, configPath, "enqueue", "1")
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued 3 items")

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Pothos")
	requireContains(t, out, "thumbnail")
	if got := strings.Count(out, "pending"); got != 3 {
		t.Fatalf("expected 3 pending rows after idempotent enqueue, got %d:\n%s", got, out)
	}

	out, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Plants")
	requireContains(t, out, "Queue")
}

func TestEnqueueUnknownPlant(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "enqueue", "42"); err == nil {
		t.Fatal("expected error for unknown plant")
	}
}

func TestQueueListFilters(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "plant", "add", "Ivy"); err != nil {
		t.Fatalf("plant add: %v", err)
	}
	if _, err := runCLI(t, configPath, "enqueue", "1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, err := runCLI(t, configPath, "queue", "list", "--kind", "thumbnail")
	if err != nil {
		t.Fatalf("queue list --kind: %v", err)
	}
	requireContains(t, out, "thumbnail")
	if got := strings.Count(out, "pending"); got != 1 {
		t.Fatalf("expected 1 row for kind filter, got %d:\n%s", got, out)
	}

	out, err = runCLI(t, configPath, "queue", "list", "--status", "completed")
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	requireContains(t, out, "No matching work items")

	_, err = runCLI(t, configPath, "queue", "list", "--status", "bogus")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !strings.Contains(err.Error(), "pending, processing, completed, failed") {
		t.Fatalf("expected error to list valid statuses, got: %v", err)
	}
}

func TestQueueRemove(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "plant", "add", "Palm"); err != nil {
		t.Fatalf("plant add: %v", err)
	}
	if _, err := runCLI(t, configPath, "enqueue", "1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, err := runCLI(t, configPath, "queue", "remove", "2")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed work item 2")

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if got := strings.Count(out, "pending"); got != 2 {
		t.Fatalf("expected 2 pending rows after remove, got %d:\n%s", got, out)
	}

	if _, err := runCLI(t, configPath, "queue", "remove", "99"); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if !strings.Contains(out, "only") {
		t.Fatalf("expected cell content in output:\n%s", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("short row was not padded with empty cells:\n%s", out)
	}
}

func TestQueueClearAndCleanup(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "plant", "add", "Fern"); err != nil {
		t.Fatalf("plant add: %v", err)
	}
	if _, err := runCLI(t, configPath, "enqueue", "1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, err := runCLI(t, configPath, "queue", "cleanup")
	if err != nil {
		t.Fatalf("queue cleanup: %v", err)
	}
	requireContains(t, out, "Removed 0 old items")

	out, err = runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 0 terminal items")
}
