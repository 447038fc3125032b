// Package service defines the interfaces between the reconciliation
// engine and its collaborators.
package service

import (
	"context"

	"github.com/linqiu/onebill/internal/storage"
)

// AuditStore persists reconciliation runs for later inspection. The
// engine itself never requires persistence; the store is an optional
// collaborator wired in by the CLI.
type AuditStore interface {
	SaveRun(ctx context.Context, run storage.RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error)
	Close() error
}
