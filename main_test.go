package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"minitwit/config"
	"minitwit/database"
	"minitwit/logger"
	"minitwit/testutil"
)

func TestInitDBCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "minitwit.db")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", path)

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		if err := run([]string{"initdb"}, &out); err != nil {
			t.Fatalf("initdb #%d: %v", i+1, err)
		}
		if got := strings.TrimSpace(out.String()); got != "Initialized the database." {
			t.Errorf("unexpected output %q", got)
		}
	}

	cfg := &config.Config{DBType: config.DBTypeSQLite, DBPath: path}
	db, err := database.Open(context.Background(), cfg, nil, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if n := testutil.CountRows(t, testutil.Accessor(t, db), `"user"`, "", nil); n != 0 {
		t.Errorf("expected an empty user table, got %d rows", n)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"migrate"}, &out)
	if err == nil || !strings.Contains(err.Error(), `unknown command "migrate"`) {
		t.Errorf("expected an unknown command error, got %v", err)
	}
	if err := run([]string{"serve", "initdb"}, &out); err == nil {
		t.Error("expected an error for two commands")
	}
}

func TestRunMissingEnvFile(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "initdb"}, &out)
	if err == nil || !strings.Contains(err.Error(), "loading env file") {
		t.Errorf("expected an env file error, got %v", err)
	}
}
