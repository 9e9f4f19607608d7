// Command nubu promotes a NuGet package bump to one of the
// configured environment branches. It prepares the bump
// branch, patches and builds the project, pushes the result
// and opens a pull request on the configured git hosting
// platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tompish/nubu/bump/config"
	"github.com/Tompish/nubu/bump/dotnet"
	"github.com/Tompish/nubu/bump/exec"
	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/promote"
	"github.com/Tompish/nubu/bump/prompt"
)

var version = "dev"

type options struct {
	root        string
	configPath  string
	environment string
	provider    string
	dryRun      bool
	logLevel    string
	creds       providerFlags
}

func main() {
	os.Exit(exitCode(newRootCmd().Execute(), os.Stderr))
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nubu",
		Short: "Promote a NuGet bump to an environment branch",
		Long: `nubu prepares a bump-nugets-<environment> branch, merges the
previous environment into it, lets you pick a package version,
builds the project, pushes the branch and opens a pull request.

Run it from a clone or from a directory holding several clones.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&opts.root, "root", ".", "clone or directory of clones to search")
	fl.StringVar(&opts.configPath, "config", "", "config file (default: XDG lookup)")
	fl.StringVarP(&opts.environment, "environment", "e", "", "target environment, skips the prompt")
	fl.StringVar(&opts.provider, "provider", "", "PR provider: azure, github, gitlab, bitbucket or none (default: from config)")
	fl.BoolVar(&opts.dryRun, "dry-run", false, "bump and build without committing, pushing or opening a PR")
	fl.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	fl.BoolVar(&opts.creds.azOpen, "az-open", false, "open the new Azure DevOps PR in a browser")
	fl.StringVar(&opts.creds.ghToken, "github-token", os.Getenv("GITHUB_TOKEN"), "GitHub access token")
	fl.StringVar(&opts.creds.ghBaseURL, "github-url", "", "GitHub Enterprise base URL")
	fl.StringVar(&opts.creds.glToken, "gitlab-token", os.Getenv("GITLAB_TOKEN"), "GitLab access token")
	fl.StringVar(&opts.creds.glHost, "gitlab-url", "", "GitLab instance URL")
	fl.StringVar(&opts.creds.bbBaseURL, "bitbucket-url", "", "Bitbucket Server base URL")
	fl.StringVar(&opts.creds.bbUser, "bitbucket-user", os.Getenv("BITBUCKET_USER"), "Bitbucket user")
	fl.StringVar(&opts.creds.bbPassword, "bitbucket-password", os.Getenv("BITBUCKET_PASSWORD"), "Bitbucket password or token")

	return cmd
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	const errCtx = "running nubu"

	if err := setupLogging(opts.logLevel); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	chooser := prompt.Menu{}

	// Step 1: Pick the repository.
	repos, err := git.FindRepos(opts.root)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	dir, err := chooseRepo(chooser, repos)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	project := projectName(dir)

	settings, err := cfg.Settings(project)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	repo, err := git.Open(dir, settings.Remote)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 2: Pick the environment.
	ordinal, err := chooseEnvironment(
		chooser, settings.Branches, opts.environment,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 3: Build the PR provider.
	providerName := settings.Provider
	if opts.provider != "" {
		providerName = opts.provider
	}

	provider, err := newGitProvider(providerName, repo, opts.creds)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 4: Promote.
	sum, err := promote.Run(ctx, promote.Config{
		Repo:    repo,
		Dir:     dir,
		Chain:   settings.Chain(),
		Ordinal: ordinal,
		Bumper: &dotnet.Bumper{
			Chooser: chooser,
			Marker:  settings.Marker,
			Package: settings.Package,
			Source:  settings.Source,
			Limit:   settings.Limit,
		},
		Provider:      provider,
		TitleTemplate: settings.Title,
		DryRun:        opts.dryRun,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	printSummary(out, sum)

	return nil
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: lvl},
	)))

	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	return config.LoadOrInit(config.SearchDirs())
}

func chooseRepo(c prompt.Chooser, repos []string) (string, error) {
	switch len(repos) {
	case 0:
		return "", errors.New("no git repositories found")
	case 1:
		return repos[0], nil
	}

	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = filepath.Base(r)
	}

	i, err := c.Choose("Which repository?", names)
	if err != nil {
		return "", err
	}

	return repos[i], nil
}

func chooseEnvironment(
	c prompt.Chooser,
	branches []string,
	preset string,
) (int, error) {
	if preset != "" {
		i := slices.Index(branches, preset)
		if i < 0 {
			return 0, fmt.Errorf(
				"environment %q is not one of %s",
				preset, strings.Join(branches, ", "),
			)
		}

		return i, nil
	}

	return c.Choose("To what branch would you like to push?", branches)
}

// projectName is the key of the per-repository config table.
func projectName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}

	return filepath.Base(abs)
}

func printSummary(w io.Writer, sum *promote.Summary) {
	fmt.Fprintf(w, "branch:     %s -> %s\n", sum.Branch, sum.Target)

	if ids := sum.WorkItems.IDs(); len(ids) > 0 {
		fmt.Fprintf(w, "work items: #%s\n", strings.Join(ids, ", #"))
	}

	fmt.Fprintf(w, "pushed:     %t\n", sum.Pushed)
	fmt.Fprintf(w, "pr created: %t\n", sum.PRCreated)
}

// exitCode reports err on w and maps it to the process exit
// status. Leaving a menu is a clean exit.
func exitCode(err error, w io.Writer) int {
	if err == nil || errors.Is(err, prompt.ErrQuit) {
		return 0
	}

	var (
		missing *exec.MissingToolError
		opErr   *git.OperationError
		cmdErr  *exec.CommandError
	)

	switch {
	case errors.As(err, &missing):
		fmt.Fprintf(w, "nubu: %s is not installed or not on PATH\n", missing.Name)
	case errors.As(err, &opErr):
		fmt.Fprintf(w, "nubu: %v\n", err)
		writeOutput(w, opErr.Output)
	case errors.As(err, &cmdErr):
		fmt.Fprintf(w, "nubu: %v\n", err)
		writeOutput(w, cmdErr.Output)
	default:
		fmt.Fprintf(w, "nubu: %v\n", err)
	}

	return 1
}

func writeOutput(w io.Writer, out string) {
	if strings.TrimSpace(out) == "" {
		return
	}

	fmt.Fprintln(w, strings.TrimRight(out, "\n"))
}
