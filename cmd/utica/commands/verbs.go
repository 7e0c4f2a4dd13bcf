package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Check out and build the versions recorded in the lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.options(cmd)
			if err != nil {
				return err
			}
			return c.app.Bootstrap(cmd.Context(), opts)
		},
	}
}

func (c *CLI) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [dependencies...]",
		Short: "Resolve the manifest and provision the result",
		Long: "Resolve the manifest into exact pinned versions and provision the result. " +
			"Naming dependencies updates only those, keeping every other pin from the previous lockfile.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd)
			if err != nil {
				return err
			}
			return c.app.Update(cmd.Context(), opts, args)
		},
	}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [dependencies...]",
		Short: "Build the dependencies recorded in the lockfile",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), opts, args)
		},
	}
}

func (c *CLI) newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Check out the working trees recorded in the lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.options(cmd)
			if err != nil {
				return err
			}
			return c.app.Checkout(cmd.Context(), opts)
		},
	}
}

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the lockfile still satisfies the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.options(cmd)
			if err != nil {
				return err
			}
			return c.app.Validate(cmd.Context(), opts)
		},
	}
}
