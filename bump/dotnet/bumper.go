package dotnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Tompish/nubu/bump/promote"
	"github.com/Tompish/nubu/bump/prompt"
)

// Bumper picks a project file and a package version, patches
// the marked references and builds the result.
type Bumper struct {
	// Chooser asks which project and which version to use.
	Chooser prompt.Chooser

	// Marker flags the references to bump.
	Marker string

	// Package overrides the package name taken from the
	// first marked reference.
	Package string

	// Source is the feed to search. Empty uses the dotnet
	// defaults.
	Source string

	// Limit caps the number of versions offered.
	Limit int

	// CLI runs dotnet.
	CLI CLI
}

var _ promote.Bumper = (*Bumper)(nil)

// Bump edits and builds the project found below dir.
func (b *Bumper) Bump(_ context.Context, dir string) error {
	const errCtx = "bumping packages"

	projects, err := FindProjects(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(projects) == 0 {
		return fmt.Errorf("%s: %s: %w", errCtx, dir, ErrNoProjects)
	}

	project := projects[0]

	if len(projects) > 1 {
		names := make([]string, len(projects))
		for i, p := range projects {
			names[i] = relativeTo(dir, p)
		}

		i, err := b.Chooser.Choose(
			"Found multiple project files. Pick one.", names,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		project = projects[i]
	}

	refs, err := MarkedReferences(project, b.Marker)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(refs) == 0 {
		return fmt.Errorf(
			"%s: %s: marker %q: %w",
			errCtx, project, b.Marker, ErrNoMarkedReferences,
		)
	}

	for _, ref := range refs {
		slog.Info(
			"reference to update",
			"package", ref.Package,
			"version", ref.Version,
			"line", ref.Line,
		)
	}

	pkg := b.Package
	if pkg == "" {
		pkg = refs[0].Package
	}

	if pkg == "" {
		return fmt.Errorf(
			"%s: %s: %w",
			errCtx, project,
			errors.New("marked reference has no Include attribute"),
		)
	}

	versions, err := b.CLI.SearchVersions(pkg, b.Source, b.Limit)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	i, err := b.Chooser.Choose(
		fmt.Sprintf("Version of %s", pkg), versions,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	n, err := Patch(project, b.Marker, versions[i])
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"updated project file",
		"project", project,
		"version", versions[i],
		"references", n,
	)

	if err := b.CLI.Build(project); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}

	return rel
}
