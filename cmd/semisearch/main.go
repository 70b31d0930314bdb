// Command semisearch is a local-first code search CLI: keyword, fuzzy,
// regex, and semantic matching over a project directory, with a small
// persistent index to avoid re-scanning and re-embedding on every run.
package main

import (
	"fmt"
	"os"

	"github.com/amanmcp/semisearch/cmd/semisearch/cmd"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if os.Getenv("SEMISEARCH_JSON") != "" && os.Getenv("SEMISEARCH_JSON") != "0" {
			if doc, jerr := searcherrors.FormatJSON(err); jerr == nil {
				fmt.Fprintln(os.Stderr, string(doc))
				os.Exit(cmd.ExitCodeFor(err))
			}
		}
		fmt.Fprint(os.Stderr, searcherrors.FormatForCLI(err))
		os.Exit(cmd.ExitCodeFor(err))
	}
}
