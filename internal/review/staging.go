/*-------------------------------------------------------------------------
 *
 * staging.go
 *    Staged change ledger: proposal upsert and terminal application
 *
 * At every non-terminal stage the submitted action overwrites the item's
 * single unapplied staged change. The staged change is interpreted and
 * applied to the access grant exactly once, when the item reaches its
 * terminal stage with an accepting action.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/staging.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

/* Audit entry kinds written when a review item completes. */
const (
	AuditAppliedRevoke         = "applied_revoke"
	AuditAppliedRetain         = "applied_retain"
	AuditAppliedModifyTransfer = "applied_modify_transfer"
	AuditAppliedModifyNoop     = "applied_modify_noop"
	AuditAppliedDirectRevoke   = "applied_direct_revoke"
	AuditAppliedDirectRetain   = "applied_direct_retain"
	AuditRejected              = "bo_rejected"
)

/* acceptedTerminalActions are the actions that apply the staged change at
 * the terminal stage. Anything else, including a plain "revoke", is a
 * rejection that vetoes the staged change. */
var acceptedTerminalActions = map[string]bool{
	"approve":       true,
	"final_approve": true,
	"apply":         true,
	"retain":        true,
}

/* upsertStagedChange records a non-terminal stage's action as the item's
 * pending staged change. An existing unapplied row is overwritten in
 * place; its comment survives unless the new submission carries one. */
func upsertStagedChange(ctx context.Context, s Store, item *db.ReviewItem, stage StageRole, in StageActionInput, at time.Time) error {
	staged, err := s.FindUnappliedStagedChange(ctx, item.ID)
	if err != nil {
		return err
	}
	lastStage := string(stage)
	if staged == nil {
		change := &db.StagedChange{
			ReviewItemID:   item.ID,
			ProposedAction: in.Action,
			ProposedByID:   in.ActorUserID,
			ProposedAt:     at,
			Payload:        optionalString(in.Comment),
			LastStage:      &lastStage,
		}
		return s.CreateStagedChange(ctx, change)
	}
	staged.ProposedAction = in.Action
	staged.ProposedByID = in.ActorUserID
	staged.ProposedAt = at
	staged.LastStage = &lastStage
	if in.Comment != "" {
		staged.Payload = &in.Comment
	}
	return s.UpdateStagedChange(ctx, staged)
}

/* applyTerminal interprets the terminal action, mutates the access grant
 * when called for, marks the staged change applied, and returns the audit
 * entry it appended. */
func applyTerminal(ctx context.Context, s Store, item *db.ReviewItem, in StageActionInput, at time.Time) (*db.AuditLog, error) {
	if !acceptedTerminalActions[strings.ToLower(in.Action)] {
		return appendAudit(ctx, s, item.ID, AuditRejected, in.ActorUserID, optionalString(in.Comment), at)
	}

	staged, err := s.FindUnappliedStagedChange(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if staged == nil {
		return applyDirect(ctx, s, item, in, at)
	}

	access, err := s.GetAccessForUpdate(ctx, item.AccessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Resource: "access grant", ID: item.AccessID}
		}
		return nil, err
	}

	var kind string
	switch strings.ToLower(staged.ProposedAction) {
	case "revoke":
		if err := s.SetAccessActive(ctx, access.ID, false); err != nil {
			return nil, err
		}
		kind = AuditAppliedRevoke
	case "retain":
		kind = AuditAppliedRetain
	case "modify":
		if target := parseModifyTarget(staged.Payload); target != nil {
			if err := s.SetAccessOwner(ctx, access.ID, *target); err != nil {
				return nil, err
			}
			kind = AuditAppliedModifyTransfer
		} else {
			kind = AuditAppliedModifyNoop
		}
	default:
		kind = fmt.Sprintf("applied_unknown_%s", strings.ToLower(staged.ProposedAction))
	}

	staged.Applied = true
	staged.AppliedAt = &at
	if err := s.UpdateStagedChange(ctx, staged); err != nil {
		return nil, err
	}
	return appendAudit(ctx, s, item.ID, kind, in.ActorUserID, staged.Payload, at)
}

/* applyDirect handles a terminal accept with no staged change: the
 * terminal approver's own action decides the grant's fate. A missing
 * grant row is tolerated here; there is nothing left to mutate. */
func applyDirect(ctx context.Context, s Store, item *db.ReviewItem, in StageActionInput, at time.Time) (*db.AuditLog, error) {
	if strings.ToLower(in.Action) == "revoke" {
		_, err := s.GetAccessForUpdate(ctx, item.AccessID)
		switch {
		case err == nil:
			if err := s.SetAccessActive(ctx, item.AccessID, false); err != nil {
				return nil, err
			}
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
		return appendAudit(ctx, s, item.ID, AuditAppliedDirectRevoke, in.ActorUserID, optionalString(in.Comment), at)
	}
	return appendAudit(ctx, s, item.ID, AuditAppliedDirectRetain, in.ActorUserID, optionalString(in.Comment), at)
}

/* parseModifyTarget extracts the transfer target from a modify payload of
 * the form {"new_user_id": "<uuid>"}. Malformed or absent payloads yield
 * nil rather than an error; the modify then applies as a no-op. */
func parseModifyTarget(payload *string) *uuid.UUID {
	if payload == nil {
		return nil
	}
	var body struct {
		NewUserID string `json:"new_user_id"`
	}
	if err := json.Unmarshal([]byte(*payload), &body); err != nil {
		return nil
	}
	target, err := uuid.Parse(body.NewUserID)
	if err != nil {
		return nil
	}
	return &target
}

func appendAudit(ctx context.Context, s Store, itemID uuid.UUID, kind string, actorID uuid.UUID, details *string, at time.Time) (*db.AuditLog, error) {
	entry := &db.AuditLog{
		ReviewItemID: itemID,
		Action:       kind,
		AppliedBy:    actorID,
		AppliedAt:    at,
		Details:      details,
	}
	if err := s.AppendAuditLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
