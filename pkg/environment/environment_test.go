package environment

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	content := "APP_ENV=prod\nPORT=8080\nDATABASE=firestore\nDAY_TIME=04:00\nSECRET=abc\n"
	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	env, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if !env.IsProduction() {
		t.Errorf("expected production environment, got %s", env.Environment)
	}

	if env.Port != "8080" || env.Database != DatabaseFirestore || env.DayTime != "04:00" || env.Secret != "abc" {
		t.Errorf("unexpected environment %+v", env)
	}

	if env.DatabaseName != "tapas" {
		t.Errorf("expected default database name, got %s", env.DatabaseName)
	}
}

func TestLoad_FallsBackToProcessEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DAY_TIME", "")

	env, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}

	if env.Port != "9090" {
		t.Errorf("expected port from process environment, got %s", env.Port)
	}

	if env.Database != DatabaseMongo || env.Environment != Dev || env.DayTime != "00:00" {
		t.Errorf("defaults were not applied: %+v", env)
	}
}
