/*-------------------------------------------------------------------------
 *
 * engine.go
 *    Review cycle orchestration and stage action processing
 *
 * The engine owns the workflow semantics: snapshotting a cycle from the
 * live access grants, advancing items through the approver chain, and
 * applying the staged disposition when an item reaches its terminal
 * stage. All writes for one operation happen inside a single unit of
 * work; notifications go out only after it commits.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/engine.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
	"github.com/ipamc/accessreview/internal/metrics"
)

/* Cycle lifecycle states. */
const (
	CycleStatusInProgress = "in_progress"
	CycleStatusCompleted  = "completed"
)

/* Notifier delivers a best-effort message to an approver. Failures are
 * logged and never fail the triggering operation. */
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

type Engine struct {
	runner   TxRunner
	notifier Notifier
}

func NewEngine(runner TxRunner) *Engine {
	return &Engine{runner: runner}
}

/* SetNotifier attaches an optional approver notifier. */
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

/* StageActionInput is one approver's decision on one review item. */
type StageActionInput struct {
	ReviewItemID uuid.UUID
	ActorUserID  uuid.UUID
	Action       string
	Comment      string
}

/* StageActionOutcome reports the item after the action and, when the
 * action completed the item, the audit entry recording its disposition. */
type StageActionOutcome struct {
	Item    *db.ReviewItem
	Applied *db.AuditLog
}

type pendingNotice struct {
	recipient string
	subject   string
	body      string
}

/* StartCycle snapshots every active access grant into a new review
 * cycle. Approver chains are resolved once, here; later mapping edits do
 * not touch items already created. */
func (e *Engine) StartCycle(ctx context.Context, quarter string) (*db.ReviewCycle, error) {
	quarter = strings.TrimSpace(quarter)
	if quarter == "" {
		return nil, &InvalidActionError{Reason: "quarter must not be empty"}
	}

	var cycle *db.ReviewCycle
	var itemCount int
	var notices []pendingNotice

	err := e.runner.InTx(ctx, func(s Store) error {
		cycle = &db.ReviewCycle{Quarter: quarter, Status: CycleStatusInProgress}
		if err := s.CreateReviewCycle(ctx, cycle); err != nil {
			return err
		}

		grants, err := s.ListActiveAccess(ctx)
		if err != nil {
			return err
		}
		for i := range grants {
			grant := &grants[i]
			chain, err := ResolveApprovers(ctx, s, grant)
			if err != nil {
				return err
			}
			item := &db.ReviewItem{
				CycleID:            cycle.ID,
				AccessID:           grant.ID,
				ReportingManagerID: chain.ReportingManagerID,
				AppManagerID:       chain.AppManagerID,
				AppOwnerID:         chain.AppOwnerID,
				BusinessOwnerID:    chain.BusinessOwnerID,
				PendingStage:       string(chain.InitialStage()),
			}
			if err := s.CreateReviewItem(ctx, item); err != nil {
				return err
			}
			itemCount++

			if stage := chain.InitialStage(); stage != StageCompleted {
				notice, err := e.buildNotice(ctx, s, item, *chain.approverFor(stage), quarter)
				if err != nil {
					return err
				}
				if notice != nil {
					notices = append(notices, *notice)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start review cycle: %w", err)
	}

	ctx = metrics.WithCycleIDLogContext(ctx, cycle.ID)
	metrics.RecordCycleStarted(itemCount)
	metrics.InfoWithContext(ctx, "Review cycle started", map[string]interface{}{
		"quarter":    quarter,
		"item_count": itemCount,
	})
	e.deliver(ctx, notices)
	return cycle, nil
}

/* SubmitStageAction records one approver's decision at the given stage
 * and advances the item. Non-terminal accepts stage the action for
 * later; reaching the terminal stage applies (or vetoes) the staged
 * change and closes the item. Completing the last open item of a cycle
 * marks the cycle completed. */
func (e *Engine) SubmitStageAction(ctx context.Context, stage StageRole, in StageActionInput) (*StageActionOutcome, error) {
	if strings.TrimSpace(in.Action) == "" {
		return nil, &InvalidActionError{Reason: "action must not be empty"}
	}

	var outcome StageActionOutcome
	var notices []pendingNotice

	err := e.runner.InTx(ctx, func(s Store) error {
		item, err := s.GetReviewItemForUpdate(ctx, in.ReviewItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Resource: "review item", ID: in.ReviewItemID}
			}
			return err
		}
		if item.PendingStage != string(stage) {
			return &StageMismatchError{
				ReviewItemID: item.ID,
				Submitted:    stage,
				Pending:      StageRole(item.PendingStage),
			}
		}
		approver := approverFor(item, stage)
		if approver == nil || *approver != in.ActorUserID {
			return &UnauthorizedError{ReviewItemID: item.ID, Stage: stage, ActorID: in.ActorUserID}
		}

		now := time.Now().UTC()
		recordStageSlot(item, stage, in.Action, optionalString(in.Comment), now)
		hist := &db.ApprovalHistory{
			ReviewItemID: item.ID,
			Stage:        string(stage),
			Action:       in.Action,
			Comment:      optionalString(in.Comment),
		}
		if err := s.AppendApprovalHistory(ctx, hist); err != nil {
			return err
		}

		next := nextPendingStage(item, stage)
		if next == StageCompleted {
			audit, err := applyTerminal(ctx, s, item, in, now)
			if err != nil {
				return err
			}
			outcome.Applied = audit
			item.PendingStage = string(StageCompleted)
			final := in.Action
			item.FinalStatus = &final
		} else {
			if err := upsertStagedChange(ctx, s, item, stage, in, now); err != nil {
				return err
			}
			item.PendingStage = string(next)
			if e.notifier != nil {
				cycle, err := s.GetReviewCycle(ctx, item.CycleID)
				if err != nil {
					return err
				}
				notice, err := e.buildNotice(ctx, s, item, *approverFor(item, next), cycle.Quarter)
				if err != nil {
					return err
				}
				if notice != nil {
					notices = append(notices, *notice)
				}
			}
		}

		if err := s.UpdateReviewItem(ctx, item); err != nil {
			return err
		}

		if next == StageCompleted {
			open, err := s.CountOpenReviewItems(ctx, item.CycleID)
			if err != nil {
				return err
			}
			if open == 0 {
				if err := s.SetReviewCycleStatus(ctx, item.CycleID, CycleStatusCompleted); err != nil {
					return err
				}
				metrics.InfoWithContext(ctx, "Review cycle completed", map[string]interface{}{
					"cycle_id": item.CycleID.String(),
				})
			}
		}

		outcome.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = metrics.WithReviewItemLogContext(ctx, in.ReviewItemID, string(stage))
	metrics.RecordStageAction(string(stage), strings.ToLower(in.Action))
	if outcome.Applied != nil {
		metrics.RecordStagedChangeApplied(outcome.Applied.Action)
	}
	metrics.DebugWithContext(ctx, "Stage action recorded", map[string]interface{}{
		"action":        strings.ToLower(in.Action),
		"pending_stage": outcome.Item.PendingStage,
	})
	e.deliver(ctx, notices)
	return &outcome, nil
}

func (e *Engine) ListCycles(ctx context.Context) ([]db.ReviewCycle, error) {
	var cycles []db.ReviewCycle
	err := e.runner.InTx(ctx, func(s Store) error {
		var err error
		cycles, err = s.ListReviewCycles(ctx)
		return err
	})
	return cycles, err
}

func (e *Engine) GetCycle(ctx context.Context, cycleID uuid.UUID) (*db.ReviewCycle, error) {
	var cycle *db.ReviewCycle
	err := e.runner.InTx(ctx, func(s Store) error {
		var err error
		cycle, err = s.GetReviewCycle(ctx, cycleID)
		if err != nil && errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Resource: "review cycle", ID: cycleID}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

func (e *Engine) ListItems(ctx context.Context, cycleID uuid.UUID) ([]db.ReviewItem, error) {
	var items []db.ReviewItem
	err := e.runner.InTx(ctx, func(s Store) error {
		if _, err := s.GetReviewCycle(ctx, cycleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Resource: "review cycle", ID: cycleID}
			}
			return err
		}
		var err error
		items, err = s.ListReviewItems(ctx, cycleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

/* ListItemsForStage returns the items within a cycle waiting on the
 * given approver at the given stage. */
func (e *Engine) ListItemsForStage(ctx context.Context, cycleID, userID uuid.UUID, stage StageRole) ([]db.ReviewItem, error) {
	var items []db.ReviewItem
	err := e.runner.InTx(ctx, func(s Store) error {
		var err error
		items, err = s.ListReviewItemsForStage(ctx, cycleID, userID, string(stage))
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

/* ItemTrail is the full audit view of one review item. */
type ItemTrail struct {
	Item    *db.ReviewItem
	History []db.ApprovalHistory
	Audit   []db.AuditLog
}

func (e *Engine) GetItemTrail(ctx context.Context, itemID uuid.UUID) (*ItemTrail, error) {
	var trail ItemTrail
	err := e.runner.InTx(ctx, func(s Store) error {
		item, err := s.GetReviewItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Resource: "review item", ID: itemID}
			}
			return err
		}
		trail.Item = item
		if trail.History, err = s.ListApprovalHistory(ctx, itemID); err != nil {
			return err
		}
		trail.Audit, err = s.ListAuditLogs(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &trail, nil
}

/* buildNotice resolves the approver's address for a pending-review
 * notification. A dangling approver reference aborts the transaction. */
func (e *Engine) buildNotice(ctx context.Context, s Store, item *db.ReviewItem, approverID uuid.UUID, quarter string) (*pendingNotice, error) {
	if e.notifier == nil {
		return nil, nil
	}
	approver, err := s.GetUserByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Resource: "user", ID: approverID}
		}
		return nil, err
	}
	return &pendingNotice{
		recipient: approver.Email,
		subject:   fmt.Sprintf("Access review pending your approval (%s)", quarter),
		body: fmt.Sprintf("Review item %s is waiting for your decision at stage %s.",
			item.ID, item.PendingStage),
	}, nil
}

/* deliver sends queued notifications after commit. Best effort. */
func (e *Engine) deliver(ctx context.Context, notices []pendingNotice) {
	if e.notifier == nil {
		return
	}
	for _, n := range notices {
		if err := e.notifier.Notify(ctx, n.recipient, n.subject, n.body); err != nil {
			metrics.RecordNotification("failed")
			metrics.WarnWithContext(ctx, "Notification delivery failed", map[string]interface{}{
				"recipient": n.recipient,
				"error":     err.Error(),
			})
			continue
		}
		metrics.RecordNotification("sent")
	}
}
