package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints the build SHA baked in at link time via -ldflags.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}
