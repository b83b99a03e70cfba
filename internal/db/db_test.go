package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "data", "askdocs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var name string
	err = database.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='chat_messages'`,
	).Scan(&name)
	if err != nil {
		t.Fatalf("chat_messages table missing: %v", err)
	}
}

func TestRoleConstraint(t *testing.T) {
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	_, err = database.Exec(
		`INSERT INTO chat_messages (id, session_id, role, content) VALUES ('m1', 's1', 'system', 'hi')`,
	)
	if err == nil {
		t.Error("expected CHECK constraint to reject role 'system'")
	}
}
