package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/plugpack/internal/app"
)

func (c *CLI) newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Merge the published plugin with its dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			publish, _ := cmd.Flags().GetBool("publish")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Pack(cmd.Context(), app.PackOptions{
				NoCache: noCache,
				Publish: publish,
				Watch:   watch,
			})
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Merge even if the plugin is up to date")
	cmd.Flags().BoolP("publish", "p", false, "Publish the project in Release configuration first")
	cmd.Flags().BoolP("watch", "w", false, "Pack again whenever the published output changes")
	return cmd
}
