package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// CheckIndexIntegrity opens the index database read-only and runs sqlite's
// own integrity_check pragma, catching the kind of corruption that a crash
// mid-write or a truncated disk can leave behind.
func (c *Checker) CheckIndexIntegrity(ctx context.Context, dbPath string) CheckResult {
	result := CheckResult{Name: "index_integrity", Required: false}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		result.Status = StatusWarn
		result.Message = "no index found yet, run 'semisearch index' first"
		return result
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to open index: %v", err)
		return result
	}
	defer db.Close()

	var verdict string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("integrity check failed: %v", err)
		return result
	}

	if verdict != "ok" {
		result.Status = StatusFail
		result.Message = verdict
		result.Details = "consider removing the database file and reindexing with --force"
		return result
	}

	result.Status = StatusPass
	result.Message = "ok"
	return result
}
