// Package cmd provides the semisearch CLI commands.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	searcherrors "github.com/amanmcp/semisearch/internal/errors"
	"github.com/amanmcp/semisearch/internal/logging"
	"github.com/amanmcp/semisearch/internal/output"
	"github.com/amanmcp/semisearch/pkg/version"
)

// JSON-output env var and per-project state directory name, both named in
// the CLI surface.
const (
	envJSONOutput = "SEMISEARCH_JSON"
	stateDirName  = ".semisearch"
)

var (
	debugMode     bool
	advancedMode  bool
	loggingCleanup func()
)

// NewRootCmd builds the semisearch command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semisearch [query]",
		Short: "Fast local code search: keyword, fuzzy, regex, and semantic",
		Long: `semisearch finds code by keyword, fuzzy match, regex, or meaning.

It keeps a small local index under .semisearch/ next to the files it
searches, so repeat searches skip re-reading and re-embedding unchanged
files.`,
		Version: version.String(),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runSearch(cmd, args)
		},
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.semisearch/logs/")
	cmd.PersistentFlags().BoolVar(&advancedMode, "advanced", false, "Expose advanced flags (mode, format, context, regex, include/exclude)")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	registerSearchFlags(cmd)

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newHelpMeCmd())

	return cmd
}

func startLogging(cmd *cobra.Command, _ []string) error {
	if advancedMode {
		revealAdvancedFlags(cmd)
	}
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCodeFor maps a returned error to the CLI's documented exit codes:
// 0 success, 1 no matches, 2 usage/invalid-input error, 3 everything else.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch searcherrors.GetCode(err) {
	case searcherrors.ErrCodeNoMatches, searcherrors.ErrCodeEmptyIndex:
		return 1
	case searcherrors.ErrCodeQueryEmpty, searcherrors.ErrCodeQueryTooLong,
		searcherrors.ErrCodeInvalidRegex, searcherrors.ErrCodeInvalidStrategy,
		searcherrors.ErrCodeDirectoryNotFound, searcherrors.ErrCodeNotADirectory:
		return 2
	default:
		return 3
	}
}

// jsonRequested reports whether JSON output was requested, either via
// --format json (gated behind --advanced) or the SEMISEARCH_JSON env var.
func jsonRequested(format string) bool {
	if format == "json" {
		return true
	}
	v := os.Getenv(envJSONOutput)
	return v != "" && v != "0"
}

// stateDir returns the .semisearch directory for root, creating nothing.
func stateDir(root string) string {
	return filepath.Join(root, stateDirName)
}

// resolveRoot finds the project root to search/index from path, defaulting
// to the current directory when path is empty.
func resolveRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func newOutputWriter() *output.Writer {
	return output.NewAuto(os.Stdout)
}
