// Package config handles .stringsync.yaml and environment configuration.
//
// The configuration only selects policy (encoding, strict source reading,
// comment stripping, lock tracking) and optionally names the file sets to
// sync when stringsync is run without arguments. A missing default file is
// not an error: all settings fall back to their defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/stringsync/stringsfile"
)

// FileName is the default config file name.
const FileName = ".stringsync.yaml"

// EnvFileName is the optional dotenv file read next to the config file.
const EnvFileName = ".env"

// Environment variables that override the config file.
const (
	EnvEncoding      = "STRINGSYNC_ENCODING"
	EnvStrictSource  = "STRINGSYNC_STRICT_SOURCE"
	EnvStripComments = "STRINGSYNC_STRIP_COMMENTS"
	EnvLock          = "STRINGSYNC_LOCK"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .stringsync.yaml structure.
type File struct {
	// Encoding of all .strings files: utf-16 (default), utf-16le, utf-16be, utf-8.
	Encoding string `yaml:"encoding,omitempty"`
	// StrictSource aborts the run when a target file cannot be read.
	StrictSource bool `yaml:"strict_source,omitempty"`
	// StripComments drops comment and blank lines from rewritten targets.
	StripComments bool `yaml:"strip_comments,omitempty"`
	// Lock enables stringsync.lock tracking of stale translations.
	Lock bool `yaml:"lock,omitempty"`
	// Sets are the base/targets groups synced when no paths are given.
	Sets []Set `yaml:"sets,omitempty"`
}

// Set is one base file and the locale files kept in sync with it.
type Set struct {
	// Name is a label shown in logs.
	Name string `yaml:"name"`
	// Base is the base file, relative to the config file.
	Base string `yaml:"base"`
	// Targets are the locale files, relative to the config file. When
	// empty, sibling .lproj bundles holding a file of the same name are used.
	Targets []string `yaml:"targets,omitempty"`
}

// ---------------------------------------------------------------------------
// Resolved configuration
// ---------------------------------------------------------------------------

// Config is the effective configuration after defaults and overrides.
type Config struct {
	Encoding      stringsfile.Encoding
	StrictSource  bool
	StripComments bool
	Lock          bool
	Sets          []Set

	// Path is the config file that was read, empty if none.
	Path string
	// Dir is the directory holding the config file (or the working
	// directory when there is none). Relative paths and the lock file
	// are resolved against it.
	Dir string
}

// Load reads the config file at path. An empty path means FileName in the
// working directory, and a missing default file yields the defaults. An
// explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Encoding: stringsfile.UTF16, Dir: filepath.Dir(absPath)}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	enc, err := stringsfile.ParseEncoding(f.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Encoding = enc
	cfg.StrictSource = f.StrictSource
	cfg.StripComments = f.StripComments
	cfg.Lock = f.Lock
	cfg.Path = absPath

	// Validate & resolve sets
	for i := range f.Sets {
		s := f.Sets[i]
		if s.Name == "" {
			return nil, fmt.Errorf("%s: set #%d has no name", path, i+1)
		}
		if s.Base == "" {
			return nil, fmt.Errorf("%s: set %q has no base", path, s.Name)
		}
		s.Base = cfg.resolve(s.Base)
		if len(s.Targets) == 0 {
			s.Targets = DetectTargets(s.Base)
			if len(s.Targets) == 0 {
				return nil, fmt.Errorf("%s: set %q has no targets and none were found next to %s", path, s.Name, s.Base)
			}
		} else {
			targets := make([]string, len(s.Targets))
			for j, t := range s.Targets {
				targets[j] = cfg.resolve(t)
			}
			s.Targets = targets
		}
		cfg.Sets = append(cfg.Sets, s)
	}

	return cfg, nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ApplyEnv overrides settings from the environment. Values from an
// optional .env file in the config directory are used for variables that
// are not set in the real environment.
func (c *Config) ApplyEnv() error {
	dotenv := map[string]string{}
	envPath := filepath.Join(c.Dir, EnvFileName)
	if _, err := os.Stat(envPath); err == nil {
		m, err := godotenv.Read(envPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", envPath, err)
		}
		dotenv = m
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvEncoding); ok {
		enc, err := stringsfile.ParseEncoding(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvEncoding, err)
		}
		c.Encoding = enc
	}
	for _, b := range []struct {
		key string
		dst *bool
	}{
		{EnvStrictSource, &c.StrictSource},
		{EnvStripComments, &c.StripComments},
		{EnvLock, &c.Lock},
	} {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", b.key, v)
		}
		*b.dst = parsed
	}
	return nil
}

// ---------------------------------------------------------------------------
// Target detection
// ---------------------------------------------------------------------------

// DetectTargets finds locale files for a base inside an .lproj bundle:
// for Resources/en.lproj/Localizable.strings it returns every existing
// Resources/<lang>.lproj/Localizable.strings except the base itself and
// Xcode's Base.lproj.
// Bases outside an .lproj directory have no detectable targets.
func DetectTargets(base string) []string {
	bundle := filepath.Dir(base)
	if !strings.HasSuffix(bundle, ".lproj") {
		return nil
	}
	parent := filepath.Dir(bundle)
	name := filepath.Base(base)

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil
	}

	var targets []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lproj") {
			continue
		}
		dir := filepath.Join(parent, entry.Name())
		if dir == bundle || entry.Name() == "Base.lproj" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			targets = append(targets, candidate)
		}
	}
	sort.Strings(targets)
	return targets
}
