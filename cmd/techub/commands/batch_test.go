package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLoginsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logins.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write logins file: %v", err)
	}
	return path
}

func TestLoadLoginsDedupes(t *testing.T) {
	path := writeLoginsFile(t, `["octocat", "Hubot", " OCTOCAT ", "hubot", "monalisa"]`)

	logins, err := loadLogins(path)
	if err != nil {
		t.Fatalf("loadLogins failed: %v", err)
	}

	want := []string{"octocat", "hubot", "monalisa"}
	if len(logins) != len(want) {
		t.Fatalf("Expected %v, got %v", want, logins)
	}
	for i, login := range want {
		if logins[i] != login {
			t.Errorf("Expected %q at %d, got %q", login, i, logins[i])
		}
	}
}

func TestLoadLoginsRejectsEmptyEntries(t *testing.T) {
	path := writeLoginsFile(t, `["octocat", "  "]`)
	if _, err := loadLogins(path); err == nil {
		t.Error("Expected error for blank login")
	}
}

func TestLoadLoginsRejectsEmptyFile(t *testing.T) {
	path := writeLoginsFile(t, `[]`)
	if _, err := loadLogins(path); err == nil {
		t.Error("Expected error for empty list")
	}
}

func TestLoadLoginsRejectsBadJSON(t *testing.T) {
	path := writeLoginsFile(t, `{"not": "a list"}`)
	if _, err := loadLogins(path); err == nil {
		t.Error("Expected error for non-array JSON")
	}
}
