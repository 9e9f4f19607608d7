package dotnet

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	json "github.com/goccy/go-json"

	"github.com/Tompish/nubu/bump/exec"
)

// ErrNoVersions reports a package search without results.
var ErrNoVersions = errors.New("no package versions found")

// CLI drives the dotnet command line tool.
type CLI struct {
	// Run overrides the command runner. Defaults to
	// exec.Ex.
	Run exec.Runner
}

func (c CLI) run(name string, arg ...string) (string, error) {
	if c.Run == nil {
		return exec.Ex("", name, arg...)
	}

	return c.Run("", name, arg...)
}

// Build runs dotnet build on the project file. A missing
// dotnet executable surfaces as *exec.MissingToolError.
func (c CLI) Build(path string) error {
	const errCtx = "building project"

	slog.Info("building", "project", path)

	if _, err := c.run("dotnet", "build", path); err != nil {
		return fmt.Errorf("%s %s: %w", errCtx, path, err)
	}

	slog.Info("build succeeded", "project", path)

	return nil
}

type searchOutput struct {
	SearchResult []struct {
		SourceName string `json:"sourceName"`
		Packages   []struct {
			ID            string `json:"id"`
			Version       string `json:"version"`
			LatestVersion string `json:"latestVersion"`
		} `json:"packages"`
	} `json:"searchResult"`
}

// SearchVersions lists the published versions of pkg, newest
// first, capped at limit. An empty source queries the feeds
// dotnet is configured with.
func (c CLI) SearchVersions(pkg, source string, limit int) ([]string, error) {
	const errCtx = "searching package versions"

	args := []string{
		"package", "search", pkg,
		"--exact-match",
		"--prerelease",
		"--format", "json",
	}

	if source != "" {
		args = append(args, "--source", source)
	}

	out, err := c.run("dotnet", args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	versions, err := parseSearch(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, pkg, ErrNoVersions)
	}

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	return versions, nil
}

// parseSearch extracts the distinct versions from dotnet
// package search JSON output and orders them newest first.
func parseSearch(out string) ([]string, error) {
	// dotnet may print notices ahead of the document.
	raw := []byte(out)
	if i := bytes.IndexByte(raw, '{'); i > 0 {
		raw = raw[i:]
	}

	var doc searchOutput
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding search output: %w", err)
	}

	seen := map[string]bool{}

	var versions []string

	for _, src := range doc.SearchResult {
		for _, p := range src.Packages {
			v := p.Version
			if v == "" {
				v = p.LatestVersion
			}

			if v == "" || seen[v] {
				continue
			}

			seen[v] = true
			versions = append(versions, v)
		}
	}

	sortNewestFirst(versions)

	return versions, nil
}

// sortNewestFirst orders versions newest first. Release parts
// are compared numerically, so four-part assembly versions sort
// alongside semantic versions. On equal parts a release beats
// its pre-releases.
func sortNewestFirst(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return compare(versions[i], versions[j]) > 0
	})
}

func compare(a, b string) int {
	if c := compareParts(a, b); c != 0 {
		return c
	}

	pa, pb := prerelease(a), prerelease(b)

	switch {
	case pa == pb:
		return 0
	case pa == "":
		return 1
	case pb == "":
		return -1
	}

	va, errA := semver.NewVersion("0.0.0-" + pa)
	vb, errB := semver.NewVersion("0.0.0-" + pb)

	if errA == nil && errB == nil {
		return va.Compare(vb)
	}

	return strings.Compare(pa, pb)
}

// prerelease returns the label after the first '-', without
// build metadata.
func prerelease(v string) string {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}

	if i := strings.IndexByte(v, '-'); i >= 0 {
		return v[i+1:]
	}

	return ""
}

func compareParts(a, b string) int {
	pa := splitParts(a)
	pb := splitParts(b)

	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}

		if i < len(pb) {
			y = pb[i]
		}

		if x != y {
			if x > y {
				return 1
			}

			return -1
		}
	}

	return 0
}

func splitParts(v string) []int {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	var parts []int

	for _, s := range strings.Split(v, ".") {
		n, err := strconv.Atoi(s)
		if err != nil {
			break
		}

		parts = append(parts, n)
	}

	return parts
}
