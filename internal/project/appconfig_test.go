package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/framefill/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultScaleMode = model.ScaleContain
	cfg.DefaultRotateToMatch = false
	cfg.Theme = "dark"
	cfg.LastImageFolder = "/photos"
	cfg.RecentDocuments = []string{"/tmp/a.framefill.json", "/tmp/b.framefill.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultScaleMode != model.ScaleContain {
		t.Errorf("expected contain, got %s", loaded.DefaultScaleMode)
	}
	if loaded.DefaultRotateToMatch {
		t.Error("expected DefaultRotateToMatch=false")
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.Theme)
	}
	if loaded.LastImageFolder != "/photos" {
		t.Errorf("expected last folder /photos, got %s", loaded.LastImageFolder)
	}
	if len(loaded.RecentDocuments) != 2 {
		t.Errorf("expected 2 recent documents, got %d", len(loaded.RecentDocuments))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Theme != "system" {
		t.Errorf("expected theme=system, got %s", cfg.Theme)
	}
	if !cfg.DefaultRotateToMatch {
		t.Error("expected rotation on by default")
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"theme":"light","recent_documents":null}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if !cfg.DefaultRotateToMatch {
		t.Error("missing key should keep the default rotate flag")
	}
	if cfg.DefaultScaleMode != model.ScaleCover {
		t.Errorf("expected cover, got %s", cfg.DefaultScaleMode)
	}
	if cfg.RecentDocuments == nil {
		t.Error("RecentDocuments should not be nil after loading")
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}
