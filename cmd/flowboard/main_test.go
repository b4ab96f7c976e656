package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes a fresh command tree against the given config file and
// captures combined output. Every invocation opens and releases the data
// store, mirroring real sequential CLI usage.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	contents := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func TestChannelLifecycleThroughCLI(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "channel", "create", "Video", "--columns", "Idea,Edit,Publish")
	if err != nil {
		t.Fatalf("channel create failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created channel Video") {
		t.Fatalf("unexpected create output: %s", out)
	}

	out, err = runCLI(t, configPath, "channel", "list")
	if err != nil {
		t.Fatalf("channel list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Video") {
		t.Fatalf("channel missing from listing: %s", out)
	}

	out, err = runCLI(t, configPath, "channel", "show", "Video")
	if err != nil {
		t.Fatalf("channel show failed: %v\n%s", err, out)
	}
	for _, column := range []string{"Idea", "Edit", "Publish"} {
		if !strings.Contains(out, column) {
			t.Fatalf("column %s missing from show output: %s", column, out)
		}
	}
}

func TestAdvanceBlockedAndUnblockedThroughCLI(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCLI(t, configPath, "channel", "create", "Video", "--columns", "Edit,Review"); err != nil {
		t.Fatalf("channel create failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "field", "add", "Video", "Script", "--type", "link"); err != nil {
		t.Fatalf("field add failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "field", "require", "Video", "Script", "Edit"); err != nil {
		t.Fatalf("field require failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "task", "add", "Video", "Teaser"); err != nil {
		t.Fatalf("task add failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, configPath, "advance", "Teaser")
	if err == nil {
		t.Fatalf("expected blocked advance to fail:\n%s", out)
	}
	if !strings.Contains(out, "Script") {
		t.Fatalf("blocked advance should name the missing field: %s", out)
	}

	out, err = runCLI(t, configPath, "checklist", "Teaser")
	if err != nil {
		t.Fatalf("checklist failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Script") {
		t.Fatalf("checklist should name the blocking field: %s", out)
	}

	if out, err := runCLI(t, configPath, "task", "set", "Teaser", "Script", "https://docs.example/script"); err != nil {
		t.Fatalf("task set failed: %v\n%s", err, out)
	}
	out, err = runCLI(t, configPath, "advance", "Teaser")
	if err != nil {
		t.Fatalf("advance after filling field failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Moved Teaser to Review") {
		t.Fatalf("unexpected advance output: %s", out)
	}

	// Second advance leaves the last column: the task finalizes.
	out, err = runCLI(t, configPath, "advance", "Teaser")
	if err != nil {
		t.Fatalf("finalizing advance failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Finalized Teaser") {
		t.Fatalf("unexpected finalize output: %s", out)
	}

	out, err = runCLI(t, configPath, "archive")
	if err != nil {
		t.Fatalf("archive failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Teaser") || !strings.Contains(out, "Review") {
		t.Fatalf("archive should list the snapshot with its final column: %s", out)
	}

	out, err = runCLI(t, configPath, "history", "--channel", "Video")
	if err != nil {
		t.Fatalf("history failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "stage_completed") || !strings.Contains(out, "finalized") {
		t.Fatalf("history should show both event types: %s", out)
	}
}

func TestTaskSetHonorsFieldPermissions(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCLI(t, configPath, "channel", "create", "Video", "--columns", "Edit"); err != nil {
		t.Fatalf("channel create failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "field", "add", "Video", "Budget", "--type", "number"); err != nil {
		t.Fatalf("field add failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "field", "permit", "Video", "Budget", "--role", "role-manager"); err != nil {
		t.Fatalf("field permit failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "user", "add", "Priya", "--role", "role-member"); err != nil {
		t.Fatalf("user add failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "task", "add", "Video", "Pilot"); err != nil {
		t.Fatalf("task add failed: %v\n%s", err, out)
	}

	userList, err := runCLI(t, configPath, "user", "list", "--json")
	if err != nil {
		t.Fatalf("user list failed: %v\n%s", err, userList)
	}
	priyaID := extractUserID(t, userList, "Priya")

	out, err := runCLI(t, configPath, "--as", priyaID, "task", "set", "Pilot", "Budget", "1200")
	if err == nil {
		t.Fatalf("expected restricted edit to fail:\n%s", out)
	}

	// The default admin has no grant either; the owner role is not listed.
	if out, err := runCLI(t, configPath, "task", "set", "Pilot", "Budget", "1200"); err == nil {
		t.Fatalf("expected unlisted role edit to fail:\n%s", out)
	}

	if out, err := runCLI(t, configPath, "field", "permit", "Video", "Budget", "--open"); err != nil {
		t.Fatalf("field permit --open failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "--as", priyaID, "task", "set", "Pilot", "Budget", "1200"); err != nil {
		t.Fatalf("open field edit failed: %v\n%s", err, out)
	}
}

// extractUserID pulls a user's id out of `user list --json` output.
func extractUserID(t *testing.T, jsonOut, name string) string {
	t.Helper()

	marker := fmt.Sprintf("%q: %q", "name", name)
	idx := strings.Index(jsonOut, marker)
	if idx < 0 {
		t.Fatalf("user %s not found in output: %s", name, jsonOut)
	}
	idKey := `"id": "`
	idIdx := strings.LastIndex(jsonOut[:idx], idKey)
	if idIdx < 0 {
		t.Fatalf("id not found before user %s: %s", name, jsonOut)
	}
	rest := jsonOut[idIdx+len(idKey):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("malformed id in output: %s", jsonOut)
	}
	return rest[:end]
}

func TestChannelCreateRequiresOwnerRole(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCLI(t, configPath, "user", "add", "Priya", "--role", "role-member"); err != nil {
		t.Fatalf("user add failed: %v\n%s", err, out)
	}
	userList, err := runCLI(t, configPath, "user", "list", "--json")
	if err != nil {
		t.Fatalf("user list failed: %v\n%s", err, userList)
	}
	priyaID := extractUserID(t, userList, "Priya")

	if out, err := runCLI(t, configPath, "--as", priyaID, "channel", "create", "Rogue", "--columns", "A,B"); err == nil {
		t.Fatalf("expected member channel create to fail:\n%s", out)
	}
	if out, err := runCLI(t, configPath, "channel", "list"); err != nil || strings.Contains(out, "Rogue") {
		t.Fatalf("rejected channel must not be listed (err %v):\n%s", err, out)
	}

	if out, err := runCLI(t, configPath, "channel", "create", "Docs", "--columns", "Draft,Publish"); err != nil {
		t.Fatalf("owner channel create failed: %v\n%s", err, out)
	}
}

func TestTaskAddRequiresChannelAccess(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCLI(t, configPath, "channel", "create", "Video", "--columns", "Edit"); err != nil {
		t.Fatalf("channel create failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "user", "add", "Priya", "--role", "role-member"); err != nil {
		t.Fatalf("user add failed: %v\n%s", err, out)
	}
	userList, err := runCLI(t, configPath, "user", "list", "--json")
	if err != nil {
		t.Fatalf("user list failed: %v\n%s", err, userList)
	}
	priyaID := extractUserID(t, userList, "Priya")

	if out, err := runCLI(t, configPath, "--as", priyaID, "task", "add", "Video", "Pilot"); err == nil {
		t.Fatalf("expected non-member task add to fail:\n%s", out)
	}

	if out, err := runCLI(t, configPath, "channel", "member", "add", "Video", priyaID); err != nil {
		t.Fatalf("member add failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, configPath, "--as", priyaID, "task", "add", "Video", "Pilot"); err != nil {
		t.Fatalf("member task add failed: %v\n%s", err, out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, err := runCLI(t, target, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	if out, err := runCLI(t, target, "config", "init", "--path", target); err == nil {
		t.Fatalf("expected second init without --overwrite to fail:\n%s", out)
	}
}
