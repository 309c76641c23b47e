/*-------------------------------------------------------------------------
 *
 * audit_queries.go
 *    Database queries for approval history and audit logs
 *
 * Both tables are append-only. Rows are never updated or deleted; the
 * only write path is the insert performed inside a stage-action
 * transaction.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/audit_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	appendApprovalHistoryQuery = `
		INSERT INTO access_review.approval_history (review_item_id, stage, action, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`

	listApprovalHistoryQuery = `
		SELECT * FROM access_review.approval_history
		WHERE review_item_id = $1
		ORDER BY timestamp`

	appendAuditLogQuery = `
		INSERT INTO access_review.audit_log (review_item_id, action, applied_by, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, applied_at`

	listAuditLogsQuery = `
		SELECT * FROM access_review.audit_log
		WHERE review_item_id = $1
		ORDER BY applied_at`
)

func (q *Queries) AppendApprovalHistory(ctx context.Context, hist *ApprovalHistory) error {
	params := []interface{}{hist.ReviewItemID, hist.Stage, hist.Action, hist.Comment}
	err := q.DB.GetContext(ctx, hist, appendApprovalHistoryQuery, params...)
	if err != nil {
		return fmt.Errorf("approval history append failed: %w", err)
	}
	return nil
}

func (q *Queries) ListApprovalHistory(ctx context.Context, reviewItemID uuid.UUID) ([]ApprovalHistory, error) {
	var rows []ApprovalHistory
	err := q.DB.SelectContext(ctx, &rows, listApprovalHistoryQuery, reviewItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	return rows, nil
}

func (q *Queries) AppendAuditLog(ctx context.Context, entry *AuditLog) error {
	params := []interface{}{entry.ReviewItemID, entry.Action, entry.AppliedBy, entry.Details}
	err := q.DB.GetContext(ctx, entry, appendAuditLogQuery, params...)
	if err != nil {
		return fmt.Errorf("audit log append failed: %w", err)
	}
	return nil
}

func (q *Queries) ListAuditLogs(ctx context.Context, reviewItemID uuid.UUID) ([]AuditLog, error) {
	var rows []AuditLog
	err := q.DB.SelectContext(ctx, &rows, listAuditLogsQuery, reviewItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return rows, nil
}
