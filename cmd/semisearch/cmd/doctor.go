package cmd

import (
	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/doctor"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
)

var flagDoctorVerbose bool

func newDoctorCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check disk space, file limits, permissions, and index health",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runDoctor(cmd, path)
		},
	}
	c.Flags().BoolVar(&flagDoctorVerbose, "verbose", false, "Print check details")
	return c
}

func runDoctor(cmd *cobra.Command, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve path", err)
	}

	checker := doctor.New(
		doctor.WithVerbose(flagDoctorVerbose),
		doctor.WithDatabase(stateDir(root)+"/index.db"),
	)
	results := checker.RunAll(cmd.Context(), root)
	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		return searcherrors.GenericError("one or more critical checks failed", nil)
	}
	return nil
}
