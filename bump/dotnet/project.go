// Package dotnet edits .csproj package references and drives
// the dotnet CLI to build projects and list package versions.
package dotnet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNoProjects reports a directory without project files.
var ErrNoProjects = errors.New("no .csproj files found")

// ErrEmptyMarker reports a blank marker, which would match
// every line of a project file.
var ErrEmptyMarker = errors.New("marker must not be empty")

// ErrNoMarkedReferences reports a project file without a
// marked package reference.
var ErrNoMarkedReferences = errors.New("no marked package references")

var (
	includeAttr = regexp.MustCompile(`Include="([^"]*)"`)
	versionAttr = regexp.MustCompile(`Version="([^"]*)"`)
)

// skipDirs are never searched for project files.
var skipDirs = map[string]bool{".git": true, "bin": true, "obj": true}

// Reference is a package reference line carrying the marker.
type Reference struct {
	// Line is 1-based.
	Line    int
	Package string
	Version string
}

// FindProjects returns every *.csproj below dir, sorted.
func FindProjects(dir string) ([]string, error) {
	const errCtx = "finding projects"

	var found []string

	err := filepath.WalkDir(
		dir,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != dir && skipDirs[d.Name()] {
					return filepath.SkipDir
				}

				return nil
			}

			if strings.EqualFold(filepath.Ext(path), ".csproj") {
				found = append(found, path)
			}

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sort.Strings(found)

	return found, nil
}

// MarkedReferences returns the lines of the project file that
// contain marker.
func MarkedReferences(path, marker string) ([]Reference, error) {
	const errCtx = "reading references"

	if strings.TrimSpace(marker) == "" {
		return nil, fmt.Errorf("%s: %w", errCtx, ErrEmptyMarker)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var refs []Reference

	for i, line := range strings.Split(string(raw), "\n") {
		if !strings.Contains(line, marker) {
			continue
		}

		ref := Reference{Line: i + 1}

		if m := includeAttr.FindStringSubmatch(line); m != nil {
			ref.Package = m[1]
		}

		if m := versionAttr.FindStringSubmatch(line); m != nil {
			ref.Version = m[1]
		}

		refs = append(refs, ref)
	}

	return refs, nil
}

// Patch sets the Version attribute of every marked line in the
// project file to version and returns the number of lines
// changed. Unmarked lines and line endings are left untouched.
func Patch(path, marker, version string) (int, error) {
	const errCtx = "patching project"

	if strings.TrimSpace(marker) == "" {
		return 0, fmt.Errorf("%s: %w", errCtx, ErrEmptyMarker)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	version = strings.TrimSpace(version)
	lines := strings.SplitAfter(string(raw), "\n")
	changed := 0

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}

		loc := versionAttr.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		patched := line[:loc[2]] + version + line[loc[3]:]
		if patched != line {
			lines[i] = patched
			changed++
		}
	}

	if changed == 0 {
		return 0, nil
	}

	err = os.WriteFile(path, []byte(strings.Join(lines, "")), info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return changed, nil
}
