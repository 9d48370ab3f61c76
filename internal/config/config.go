// Package config resolves runtime settings from flags, the environment,
// .env files and the YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/configstore"

	"github.com/joho/godotenv"
)

const (
	EnvBackendURL       = "BACKEND_URL"
	EnvIdentityConfig   = "IDENTITY_CONFIG"
	EnvIdentityURL      = "IDENTITY_URL"
	EnvIdentityTokenURL = "IDENTITY_TOKEN_URL"
	EnvInitialAuthToken = "INITIAL_AUTH_TOKEN"
	EnvLogFile          = "AIHELPER_LOG_FILE"
	EnvDebug            = "AIHELPER_DEBUG"
)

// Source names where a resolved value came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceDotenv  Source = "dotenv"
	SourceFile    Source = "config"
	SourceDefault Source = "default"
)

// dotenvFiles are read in order; earlier files win.
var dotenvFiles = []string{".env.local", ".env"}

type Settings struct {
	BackendURL       string
	IdentityConfig   string
	IdentityURL      string
	IdentityTokenURL string
	InitialAuthToken string
	LogFile          string
	Debug            bool

	ConfigPath string
	Sources    map[string]Source
}

// Overrides carries explicit command-line values. Empty strings are unset.
type Overrides struct {
	BackendURL string
	LogFile    string
	Debug      bool
}

type Loader struct {
	// Dir is where .env files are looked up. Empty means the working directory.
	Dir string
	// ConfigPath is the YAML file. Empty means configstore.DefaultPath.
	ConfigPath string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (l Loader) Resolve(o Overrides) (Settings, error) {
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenv, err := readDotenv(l.Dir)
	if err != nil {
		return Settings{}, err
	}

	path := strings.TrimSpace(l.ConfigPath)
	if path == "" {
		if p, ok := lookup(configstore.EnvPath); ok && strings.TrimSpace(p) != "" {
			path = strings.TrimSpace(p)
		} else if path, err = configstore.DefaultPath(); err != nil {
			path = ""
		}
	}
	file := &configstore.Store{}
	if path != "" {
		file, err = configstore.LoadOptional(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	s := Settings{ConfigPath: path, Sources: map[string]Source{}}
	pick := func(key, flag, fromFile string) string {
		if v := strings.TrimSpace(flag); v != "" {
			s.Sources[key] = SourceFlag
			return v
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			s.Sources[key] = SourceEnv
			return strings.TrimSpace(v)
		}
		if v := strings.TrimSpace(dotenv[key]); v != "" {
			s.Sources[key] = SourceDotenv
			return v
		}
		if v := strings.TrimSpace(fromFile); v != "" {
			s.Sources[key] = SourceFile
			return v
		}
		return ""
	}

	s.BackendURL = pick(EnvBackendURL, o.BackendURL, file.BackendURL)
	s.IdentityConfig = pick(EnvIdentityConfig, "", "")
	s.IdentityURL = pick(EnvIdentityURL, "", file.IdentityURL)
	s.IdentityTokenURL = pick(EnvIdentityTokenURL, "", file.IdentityTokenURL)
	s.InitialAuthToken = pick(EnvInitialAuthToken, "", "")
	s.LogFile = pick(EnvLogFile, o.LogFile, file.LogFile)

	debug := pick(EnvDebug, "", "")
	if o.Debug {
		s.Debug = true
		s.Sources[EnvDebug] = SourceFlag
	} else if debug != "" {
		s.Debug, _ = strconv.ParseBool(debug)
	}
	return s, nil
}

// Resolve uses the default Loader.
func Resolve(o Overrides) (Settings, error) {
	return Loader{}.Resolve(o)
}

func readDotenv(dir string) (map[string]string, error) {
	out := map[string]string{}
	for _, name := range dotenvFiles {
		vals, err := godotenv.Read(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vals {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}
