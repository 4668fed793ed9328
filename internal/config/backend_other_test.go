//go:build !darwin

package config

import (
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devfolio", "config.json")

	b := newFileBackend(path)
	if err := b.SetString("backend.base_url", "https://api.example.com"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := b.SetInt("view.tag_limit", 3); err != nil {
		t.Fatalf("SetInt: %v", err)
	}

	reloaded := newFileBackend(path)
	s, ok, err := reloaded.GetString("backend.base_url")
	if err != nil || !ok || s != "https://api.example.com" {
		t.Errorf("GetString = %q, %v, %v", s, ok, err)
	}
	i, ok, err := reloaded.GetInt("view.tag_limit")
	if err != nil || !ok || i != 3 {
		t.Errorf("GetInt = %d, %v, %v", i, ok, err)
	}
}
