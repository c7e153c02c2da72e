package core

import (
	"context"

	"github.com/JonMunkholm/colimport/internal/logging"
)

// ContextWithJobID tags ctx with an import job ID. Loggers taken from the
// context include it as job_id.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return logging.WithJobID(ctx, id)
}

// JobIDFromContext extracts the import job ID, or "".
func JobIDFromContext(ctx context.Context) string {
	return logging.JobID(ctx)
}
