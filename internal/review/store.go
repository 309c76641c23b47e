/*-------------------------------------------------------------------------
 *
 * store.go
 *    Persistence contract for the review engine
 *
 * The engine runs every operation inside a TxRunner unit of work and
 * talks to storage only through the Store interface. *db.Queries
 * satisfies Store; tests substitute an in-memory implementation.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/store.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

/* Store is the slice of the query layer the review engine depends on. */
type Store interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetApplicationByID(ctx context.Context, id uuid.UUID) (*db.Application, error)

	ListActiveAccess(ctx context.Context) ([]db.Access, error)
	GetAccessForUpdate(ctx context.Context, id uuid.UUID) (*db.Access, error)
	SetAccessActive(ctx context.Context, id uuid.UUID, active bool) error
	SetAccessOwner(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	ReportingManagerOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	ManagerCoversApp(ctx context.Context, managerID, appID uuid.UUID) (bool, error)
	AppManagerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error)
	AppOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error)
	BusinessOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error)

	CreateReviewCycle(ctx context.Context, cycle *db.ReviewCycle) error
	GetReviewCycle(ctx context.Context, id uuid.UUID) (*db.ReviewCycle, error)
	ListReviewCycles(ctx context.Context) ([]db.ReviewCycle, error)
	SetReviewCycleStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateReviewItem(ctx context.Context, item *db.ReviewItem) error
	GetReviewItem(ctx context.Context, id uuid.UUID) (*db.ReviewItem, error)
	GetReviewItemForUpdate(ctx context.Context, id uuid.UUID) (*db.ReviewItem, error)
	UpdateReviewItem(ctx context.Context, item *db.ReviewItem) error
	ListReviewItems(ctx context.Context, cycleID uuid.UUID) ([]db.ReviewItem, error)
	ListReviewItemsForStage(ctx context.Context, cycleID, userID uuid.UUID, stage string) ([]db.ReviewItem, error)
	CountOpenReviewItems(ctx context.Context, cycleID uuid.UUID) (int, error)

	CreateStagedChange(ctx context.Context, change *db.StagedChange) error
	FindUnappliedStagedChange(ctx context.Context, reviewItemID uuid.UUID) (*db.StagedChange, error)
	UpdateStagedChange(ctx context.Context, change *db.StagedChange) error

	AppendApprovalHistory(ctx context.Context, hist *db.ApprovalHistory) error
	ListApprovalHistory(ctx context.Context, reviewItemID uuid.UUID) ([]db.ApprovalHistory, error)
	AppendAuditLog(ctx context.Context, entry *db.AuditLog) error
	ListAuditLogs(ctx context.Context, reviewItemID uuid.UUID) ([]db.AuditLog, error)
}

/* TxRunner executes fn inside one atomic unit of work. A non-nil error
 * from fn rolls the unit back. */
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Store) error) error
}

type sqlRunner struct {
	db *db.DB
}

/* NewSQLRunner wraps the database handle as a TxRunner backed by
 * read-committed transactions. */
func NewSQLRunner(d *db.DB) TxRunner {
	return &sqlRunner{db: d}
}

func (r *sqlRunner) InTx(ctx context.Context, fn func(s Store) error) error {
	return r.db.InTx(ctx, func(q *db.Queries) error {
		return fn(q)
	})
}
