package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/promote"
)

// DefaultMarker is the comment that flags a package reference
// as bumpable.
const DefaultMarker = "#Nuget_To_Bump"

// DefaultLimit is how many package versions are offered.
const DefaultLimit = 20

// FileNames are the recognised config file names in lookup
// order.
var FileNames = []string{"nubu.conf", "nubu.toml", "nubu.yaml", "nubu.yml"}

// DefaultFile is written when no config file exists.
const DefaultFile = `# nubu configuration.
# Keys under [project] apply to every repository. Add a
# [project.<repository>] table to override them for one.
[project]
branches = ["develop", "release", "master"]
remote = "origin"
marker = "#Nuget_To_Bump"
provider = "none"
title = "bumping nugets to {{environment}}"
limit = 20
`

// ErrNoBranches reports an empty branch chain.
var ErrNoBranches = errors.New("no branches configured")

// Settings are the resolved values for one repository.
type Settings struct {
	// Branches is the environment chain, lowest first.
	Branches []string

	// Remote is the git remote to fetch from and push to.
	Remote string

	// Marker flags the package references to bump.
	Marker string

	// Package overrides the package name read from the
	// marked reference.
	Package string

	// Source is the package feed queried for versions.
	// Empty uses the sources configured for dotnet.
	Source string

	// Provider names the pull request provider.
	Provider string

	// Title is the pull request title template.
	Title string

	// Limit caps the number of versions offered.
	Limit int
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Branches: []string{"develop", "release", "master"},
		Remote:   git.DefaultRemote,
		Marker:   DefaultMarker,
		Provider: "none",
		Title:    promote.DefaultTitle,
		Limit:    DefaultLimit,
	}
}

// Chain returns the branches as a promotion chain.
func (s Settings) Chain() promote.Chain {
	return promote.Chain(s.Branches)
}

// Config is a parsed settings file. It is read once and not
// modified afterwards.
type Config struct {
	// Path is the file the config was read from.
	Path string

	global   map[string]any
	projects map[string]map[string]any
}

type document struct {
	Project map[string]any `toml:"project" yaml:"project"`
}

var knownKeys = map[string]bool{
	"branches": true,
	"remote":   true,
	"marker":   true,
	"package":  true,
	"source":   true,
	"provider": true,
	"title":    true,
	"limit":    true,
}

// SearchDirs returns the lookup directories in order of
// preference.
func SearchDirs() []string {
	var dirs []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, xdg)
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config"))
	}

	return dirs
}

// Find returns the first existing config file in dirs.
func Find(dirs []string) (string, bool) {
	for _, dir := range dirs {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)

			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, true
			}
		}
	}

	return "", false
}

// LoadOrInit loads the first config file found in dirs. When
// there is none it writes DefaultFile to the first directory
// and returns the built-in defaults.
func LoadOrInit(dirs []string) (*Config, error) {
	const errCtx = "loading config"

	if path, ok := Find(dirs); ok {
		return Load(path)
	}

	if len(dirs) == 0 {
		return nil, fmt.Errorf("%s: no config directory", errCtx)
	}

	path := filepath.Join(dirs[0], FileNames[0])

	if err := os.MkdirAll(dirs[0], 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(path, []byte(DefaultFile), 0o644); err != nil {
		return nil, fmt.Errorf("%s: writing default: %w", errCtx, err)
	}

	slog.Info("wrote default config", "path", path)

	return &Config{
		Path:     path,
		global:   map[string]any{},
		projects: map[string]map[string]any{},
	}, nil
}

// Load reads the config file at path. The format follows the
// file extension.
func Load(path string) (*Config, error) {
	const errCtx = "loading config"

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var doc document

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		_, err = toml.Decode(string(raw), &doc)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: parsing %s: %w", errCtx, path, err)
	}

	cfg, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	cfg.Path = path

	return cfg, nil
}

func build(doc document) (*Config, error) {
	cfg := &Config{
		global:   map[string]any{},
		projects: map[string]map[string]any{},
	}

	for key, val := range doc.Project {
		if table, ok := val.(map[string]any); ok {
			for k := range table {
				if !knownKeys[k] {
					return nil, fmt.Errorf(
						"project %s: unknown key %q", key, k,
					)
				}
			}

			cfg.projects[key] = table

			continue
		}

		if !knownKeys[key] {
			return nil, fmt.Errorf("unknown key %q", key)
		}

		cfg.global[key] = val
	}

	return cfg, nil
}

// Projects returns the names of the repositories that have an
// override table, sorted.
func (c *Config) Projects() []string {
	names := make([]string, 0, len(c.projects))
	for name := range c.projects {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Settings resolves the settings for project.
func (c *Config) Settings(project string) (Settings, error) {
	const errCtx = "resolving settings"

	s := Defaults()

	var err error

	for _, step := range []struct {
		key string
		set func(any) error
	}{
		{"branches", func(v any) error { return setList(&s.Branches, v) }},
		{"remote", func(v any) error { return setString(&s.Remote, v) }},
		{"marker", func(v any) error { return setString(&s.Marker, v) }},
		{"package", func(v any) error { return setString(&s.Package, v) }},
		{"source", func(v any) error { return setString(&s.Source, v) }},
		{"provider", func(v any) error { return setString(&s.Provider, v) }},
		{"title", func(v any) error { return setString(&s.Title, v) }},
		{"limit", func(v any) error { return setInt(&s.Limit, v) }},
	} {
		val, ok := c.lookup(project, step.key)
		if !ok {
			continue
		}

		if err = step.set(val); err != nil {
			return Settings{}, fmt.Errorf(
				"%s: %s: %w", errCtx, step.key, err,
			)
		}
	}

	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return s, nil
}

func (c *Config) lookup(project, key string) (any, bool) {
	if table, ok := c.projects[project]; ok {
		if val, ok := table[key]; ok {
			return val, true
		}
	}

	val, ok := c.global[key]

	return val, ok
}

func (s Settings) validate() error {
	if len(s.Branches) == 0 {
		return ErrNoBranches
	}

	seen := make(map[string]bool, len(s.Branches))

	for _, b := range s.Branches {
		if strings.TrimSpace(b) == "" {
			return errors.New("empty branch name")
		}

		if seen[b] {
			return fmt.Errorf("branch %q listed twice", b)
		}

		seen[b] = true
	}

	if strings.TrimSpace(s.Marker) == "" {
		return errors.New("marker must not be empty")
	}

	if s.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", s.Limit)
	}

	return nil
}

func setString(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected a string, got %T", v)
	}

	*dst = s

	return nil
}

func setList(dst *[]string, v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected a list, got %T", v)
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return fmt.Errorf("expected a string item, got %T", item)
		}

		out = append(out, s)
	}

	*dst = out

	return nil
}

func setInt(dst *int, v any) error {
	switch n := v.(type) {
	case int:
		*dst = n
	case int64:
		*dst = int(n)
	case uint64:
		*dst = int(n)
	case float64:
		*dst = int(n)
	default:
		return fmt.Errorf("expected a number, got %T", v)
	}

	return nil
}
