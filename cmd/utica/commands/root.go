// Package commands implements the CLI commands for the utica dependency
// manager.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/utica/internal/app"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for utica.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "utica",
		Short:         "A dependency manager for frameworks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("project-directory", ".", "Directory containing the manifest")
	flags.StringSlice("platform", nil, "Platforms to build (Mac, iOS, tvOS, watchOS)")
	flags.String("toolchain", "", "Toolchain identifier passed to the build tool")
	flags.String("derived-data", "", "Derived data path passed to the build tool")
	flags.Bool("use-binaries", true, "Install release binaries instead of building when available")
	flags.Bool("use-xcframeworks", false, "Prefer xcframework assets over platform frameworks")
	flags.Bool("cache-builds", false, "Reuse artifacts whose version files still match")
	flags.Bool("no-checkout", false, "Skip the checkout phase")
	flags.Bool("no-build", false, "Skip the build phase")
	flags.Bool("use-netrc", false, "Read credentials from ~/.netrc for binary downloads")
	flags.Bool("no-tui", false, "Disable the live terminal output")
	flags.String("log-path", "", "Append log output to this file")
	flags.IntP("jobs", "j", 0, "Maximum concurrent build jobs (0 = CPU count)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBootstrapCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCheckoutCmd())
	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// options assembles app.Options from the persistent flags.
func (c *CLI) options(cmd *cobra.Command) (app.Options, error) {
	flags := cmd.Flags()

	opts := app.Options{}
	opts.ProjectDirectory, _ = flags.GetString("project-directory")
	opts.NoTUI, _ = flags.GetBool("no-tui")
	opts.UseNetrc, _ = flags.GetBool("use-netrc")
	opts.NoCheckout, _ = flags.GetBool("no-checkout")
	opts.NoBuild, _ = flags.GetBool("no-build")
	opts.LogPath, _ = flags.GetString("log-path")

	opts.Build.CacheBuilds, _ = flags.GetBool("cache-builds")
	opts.Build.UseBinaries, _ = flags.GetBool("use-binaries")
	opts.Build.UseXCFrameworks, _ = flags.GetBool("use-xcframeworks")
	opts.Build.ToolchainIdentifier, _ = flags.GetString("toolchain")
	opts.Build.DerivedDataPath, _ = flags.GetString("derived-data")
	opts.Build.Jobs, _ = flags.GetInt("jobs")

	platforms, _ := flags.GetStringSlice("platform")
	for _, raw := range platforms {
		platform, ok := parsePlatform(raw)
		if !ok {
			return app.Options{}, zerr.With(zerr.New("unknown platform"), "platform", raw)
		}
		opts.Build.Platforms = append(opts.Build.Platforms, platform)
	}

	return opts, nil
}

func parsePlatform(raw string) (domain.Platform, bool) {
	for _, platform := range domain.AllPlatforms() {
		if raw == string(platform) {
			return platform, true
		}
	}
	return "", false
}
