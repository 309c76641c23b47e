/*-------------------------------------------------------------------------
 *
 * review_queries.go
 *    Database queries for review cycles and review items
 *
 * Provides database query functions for the workflow engine: cycle
 * creation, item snapshots, per-stage work queues, and the locked item
 * reads that serialize concurrent stage actions.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/review_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

/* Review cycle queries */
const (
	createReviewCycleQuery = `
		INSERT INTO access_review.review_cycle (quarter, status)
		VALUES ($1, $2)
		RETURNING id, created_at`

	getReviewCycleQuery = `SELECT * FROM access_review.review_cycle WHERE id = $1`

	listReviewCyclesQuery = `SELECT * FROM access_review.review_cycle ORDER BY created_at DESC`

	setReviewCycleStatusQuery = `UPDATE access_review.review_cycle SET status = $2 WHERE id = $1`
)

func (q *Queries) CreateReviewCycle(ctx context.Context, cycle *ReviewCycle) error {
	err := q.DB.GetContext(ctx, cycle, createReviewCycleQuery, cycle.Quarter, cycle.Status)
	if err != nil {
		return fmt.Errorf("review cycle creation failed: %w", err)
	}
	return nil
}

func (q *Queries) GetReviewCycle(ctx context.Context, id uuid.UUID) (*ReviewCycle, error) {
	var cycle ReviewCycle
	err := q.DB.GetContext(ctx, &cycle, getReviewCycleQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review cycle: %w", err)
	}
	return &cycle, nil
}

func (q *Queries) ListReviewCycles(ctx context.Context) ([]ReviewCycle, error) {
	var cycles []ReviewCycle
	err := q.DB.SelectContext(ctx, &cycles, listReviewCyclesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list review cycles: %w", err)
	}
	return cycles, nil
}

func (q *Queries) SetReviewCycleStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := q.DB.ExecContext(ctx, setReviewCycleStatusQuery, id, status)
	if err != nil {
		return fmt.Errorf("failed to set review cycle status: %w", err)
	}
	return nil
}

/* Review item queries */
const (
	createReviewItemQuery = `
		INSERT INTO access_review.review_item
		(cycle_id, access_id, reporting_manager_id, app_manager_id, app_owner_id,
		 business_owner_id, pending_stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	getReviewItemQuery = `SELECT * FROM access_review.review_item WHERE id = $1`

	getReviewItemForUpdateQuery = `SELECT * FROM access_review.review_item WHERE id = $1 FOR UPDATE`

	updateReviewItemQuery = `
		UPDATE access_review.review_item SET
			pending_stage = $2,
			reporting_manager_action = $3, reporting_manager_comment = $4, reporting_manager_timestamp = $5,
			app_manager_action = $6, app_manager_comment = $7, app_manager_timestamp = $8,
			app_owner_action = $9, app_owner_comment = $10, app_owner_timestamp = $11,
			business_owner_action = $12, business_owner_comment = $13, business_owner_timestamp = $14,
			final_status = $15
		WHERE id = $1`

	listReviewItemsQuery = `
		SELECT * FROM access_review.review_item
		WHERE cycle_id = $1
		ORDER BY created_at`

	countOpenReviewItemsQuery = `
		SELECT COUNT(*) FROM access_review.review_item
		WHERE cycle_id = $1 AND pending_stage <> 'completed'`
)

/* Per-stage work queue queries. The stage determines both the approver
 * column matched against the caller and the pending_stage filter. */
const (
	listItemsForReportingManagerQuery = `
		SELECT * FROM access_review.review_item
		WHERE cycle_id = $1 AND reporting_manager_id = $2 AND pending_stage = 'reporting_manager'
		ORDER BY created_at`

	listItemsForAppManagerQuery = `
		SELECT * FROM access_review.review_item
		WHERE cycle_id = $1 AND app_manager_id = $2 AND pending_stage = 'app_manager'
		ORDER BY created_at`

	listItemsForAppOwnerQuery = `
		SELECT * FROM access_review.review_item
		WHERE cycle_id = $1 AND app_owner_id = $2 AND pending_stage = 'app_owner'
		ORDER BY created_at`

	listItemsForBusinessOwnerQuery = `
		SELECT * FROM access_review.review_item
		WHERE cycle_id = $1 AND business_owner_id = $2 AND pending_stage = 'business_owner'
		ORDER BY created_at`
)

func (q *Queries) CreateReviewItem(ctx context.Context, item *ReviewItem) error {
	params := []interface{}{
		item.CycleID, item.AccessID, item.ReportingManagerID, item.AppManagerID,
		item.AppOwnerID, item.BusinessOwnerID, item.PendingStage,
	}
	err := q.DB.GetContext(ctx, item, createReviewItemQuery, params...)
	if err != nil {
		return fmt.Errorf("review item creation failed: %w", err)
	}
	return nil
}

func (q *Queries) GetReviewItem(ctx context.Context, id uuid.UUID) (*ReviewItem, error) {
	var item ReviewItem
	err := q.DB.GetContext(ctx, &item, getReviewItemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return &item, nil
}

/* GetReviewItemForUpdate locks the item row until the transaction ends.
 * Two concurrent actors cannot both pass the pending_stage check and
 * advance the same item past the same stage. */
func (q *Queries) GetReviewItemForUpdate(ctx context.Context, id uuid.UUID) (*ReviewItem, error) {
	var item ReviewItem
	err := q.DB.GetContext(ctx, &item, getReviewItemForUpdateQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock review item: %w", err)
	}
	return &item, nil
}

func (q *Queries) UpdateReviewItem(ctx context.Context, item *ReviewItem) error {
	params := []interface{}{
		item.ID, item.PendingStage,
		item.ReportingManagerAction, item.ReportingManagerComment, item.ReportingManagerTimestamp,
		item.AppManagerAction, item.AppManagerComment, item.AppManagerTimestamp,
		item.AppOwnerAction, item.AppOwnerComment, item.AppOwnerTimestamp,
		item.BusinessOwnerAction, item.BusinessOwnerComment, item.BusinessOwnerTimestamp,
		item.FinalStatus,
	}
	_, err := q.DB.ExecContext(ctx, updateReviewItemQuery, params...)
	if err != nil {
		return fmt.Errorf("review item update failed: %w", err)
	}
	return nil
}

func (q *Queries) ListReviewItems(ctx context.Context, cycleID uuid.UUID) ([]ReviewItem, error) {
	var items []ReviewItem
	err := q.DB.SelectContext(ctx, &items, listReviewItemsQuery, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	return items, nil
}

func (q *Queries) ListReviewItemsForStage(ctx context.Context, cycleID, userID uuid.UUID, stage string) ([]ReviewItem, error) {
	var query string
	switch stage {
	case "reporting_manager":
		query = listItemsForReportingManagerQuery
	case "app_manager":
		query = listItemsForAppManagerQuery
	case "app_owner":
		query = listItemsForAppOwnerQuery
	case "business_owner":
		query = listItemsForBusinessOwnerQuery
	default:
		return nil, fmt.Errorf("unknown review stage: %s", stage)
	}

	var items []ReviewItem
	err := q.DB.SelectContext(ctx, &items, query, cycleID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items for stage %s: %w", stage, err)
	}
	return items, nil
}

func (q *Queries) CountOpenReviewItems(ctx context.Context, cycleID uuid.UUID) (int, error) {
	var count int
	err := q.DB.GetContext(ctx, &count, countOpenReviewItemsQuery, cycleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count open review items: %w", err)
	}
	return count, nil
}
