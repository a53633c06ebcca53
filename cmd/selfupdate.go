package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"todosmoke/pkg/logging"
)

// githubRepoSlug is the GitHub repository releases are fetched from
var githubRepoSlug = "todosmoke/todosmoke"

// release is the part of a selfupdate.Release the command reads.
type release interface {
	LessOrEqual(other string) bool
	Version() string
}

// Mockable for testing
var (
	detectLatest = func(ctx context.Context, slug string) (release, bool, error) {
		latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(slug))
		if err != nil || !found {
			return nil, found, err
		}
		return latest, true, nil
	}
	executablePath = selfupdate.ExecutablePath
	installRelease = func(ctx context.Context, rel release, exe string) error {
		latest, ok := rel.(*selfupdate.Release)
		if !ok {
			return fmt.Errorf("unsupported release type %T", rel)
		}
		return selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe)
	}
)

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update todosmoke to the latest version",
		Long: `Checks for the latest release of todosmoke on GitHub and
replaces the running binary with it if it is newer.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return errors.New("cannot self-update a development version")
	}

	ctx := context.Background()
	var out io.Writer = os.Stdout
	if cmd != nil {
		ctx = commandContext(cmd)
		out = cmd.OutOrStdout()
	}

	latest, found, err := detectLatest(ctx, githubRepoSlug)
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s could not be found on GitHub", githubRepoSlug)
	}

	if latest.LessOrEqual(currentVersion) {
		fmt.Fprintf(out, "Current version (%s) is the latest.\n", currentVersion)
		return nil
	}

	exe, err := executablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	logging.Info("selfupdate", "Updating %s from %s to %s", exe, currentVersion, latest.Version())
	if err := installRelease(ctx, latest, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
