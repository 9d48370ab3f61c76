package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aihelper/aihelper-cli/internal/configstore"
)

func TestConfigUse_LocalStoresBackendURL(t *testing.T) {
	dir := isolate(t)

	stdout, stderr, err := runCLIArgs(t, "config", "use", "local", "--pretty")
	if err != nil {
		t.Fatalf("config use failed: %v\nstdout:\n%s\nstderr:\n%s", err, stdout, stderr)
	}
	decodeEnvelope(t, stdout)

	st, err := configstore.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.BackendURL != configstore.DefaultLocalBackendURL {
		t.Fatalf("expected stored backend url %q, got %q", configstore.DefaultLocalBackendURL, st.BackendURL)
	}

	stdout, _, err = runCLIArgs(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, stdout)
	}
	env := decodeEnvelope(t, stdout)
	data, _ := env["data"].(map[string]any)
	if data["backendUrl"] != configstore.DefaultLocalBackendURL {
		t.Fatalf("expected stored url to resolve, got %#v", data["backendUrl"])
	}
	meta, _ := env["meta"].(map[string]any)
	sources, _ := meta["sources"].(map[string]any)
	if sources["BACKEND_URL"] != "config" {
		t.Fatalf("expected BACKEND_URL from config, got %#v", sources)
	}
}

func TestConfigUse_KeepsOtherFields(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := configstore.SaveAtomic(path, &configstore.Store{LogFile: filepath.Join(dir, "custom.log")}); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	if _, _, err := runCLIArgs(t, "config", "use", "https://helper.example.com/"); err != nil {
		t.Fatalf("config use failed: %v", err)
	}
	st, err := configstore.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.BackendURL != "https://helper.example.com" {
		t.Fatalf("expected trimmed url, got %q", st.BackendURL)
	}
	if st.LogFile == "" {
		t.Fatalf("expected log_file preserved")
	}
}

func TestConfigUse_RejectsNonHTTP(t *testing.T) {
	dir := isolate(t)
	if _, _, err := runCLIArgs(t, "config", "use", "ftp://nope"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected no config written, stat err=%v", err)
	}
}

func TestConfigShow_EnvWinsOverFile(t *testing.T) {
	dir := isolate(t)
	if err := configstore.SaveAtomic(filepath.Join(dir, "config.yaml"), &configstore.Store{BackendURL: "http://file"}); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	t.Setenv("BACKEND_URL", "http://env")

	stdout, _, err := runCLIArgs(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	data, _ := decodeEnvelope(t, stdout)["data"].(map[string]any)
	if data["backendUrl"] != "http://env" {
		t.Fatalf("expected env to win, got %#v", data["backendUrl"])
	}

	stdout, _, err = runCLIArgs(t, "--backend", "http://flag", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	data, _ = decodeEnvelope(t, stdout)["data"].(map[string]any)
	if data["backendUrl"] != "http://flag" {
		t.Fatalf("expected flag to win, got %#v", data["backendUrl"])
	}
}
