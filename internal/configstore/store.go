package configstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocalBackendURL is what `config use local` writes.
const DefaultLocalBackendURL = "http://localhost:8000"

// EnvPath overrides DefaultPath.
const EnvPath = "AIHELPER_CONFIG"

// Store is the persisted user configuration. It never holds tokens.
type Store struct {
	BackendURL       string `yaml:"backend_url,omitempty"`
	IdentityURL      string `yaml:"identity_url,omitempty"`
	IdentityTokenURL string `yaml:"identity_token_url,omitempty"`
	LogFile          string `yaml:"log_file,omitempty"`
}

func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("cannot determine user config dir")
	}
	return filepath.Join(dir, "aihelper", "config.yaml"), nil
}

func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st Store
	if err := yaml.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	st.BackendURL = strings.TrimSpace(st.BackendURL)
	st.IdentityURL = strings.TrimSpace(st.IdentityURL)
	st.IdentityTokenURL = strings.TrimSpace(st.IdentityTokenURL)
	st.LogFile = strings.TrimSpace(st.LogFile)
	return &st, nil
}

// LoadOptional is Load that treats a missing file as an empty store.
func LoadOptional(path string) (*Store, error) {
	st, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Store{}, nil
	}
	return st, err
}

func SaveAtomic(path string, st *Store) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("missing path")
	}
	if st == nil {
		return errors.New("missing store")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	payload, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
