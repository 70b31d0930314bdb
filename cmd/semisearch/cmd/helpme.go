package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/helpwizard"
)

func newHelpMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help-me",
		Short: "Answer a few questions and get a recommended search mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := helpwizard.Run(os.Stdin, os.Stdout)
			return err
		},
	}
}
