/*-------------------------------------------------------------------------
 *
 * engine_test.go
 *    Workflow tests for cycle orchestration and stage actions
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/engine_test.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

func newTestEngine() (*Engine, *memStore) {
	store := newMemStore()
	return NewEngine(&memRunner{store: store}), store
}

/* startSingleItemCycle runs StartCycle and returns the single item it
 * produced. */
func startSingleItemCycle(t *testing.T, e *Engine, store *memStore, quarter string) (*db.ReviewCycle, *db.ReviewItem) {
	t.Helper()
	cycle, err := e.StartCycle(context.Background(), quarter)
	if err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}
	items, err := e.ListItems(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 review item, got %d", len(items))
	}
	return cycle, &items[0]
}

func TestStartCycleSnapshotsApproverChain(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")

	if item.PendingStage != string(StageReportingManager) {
		t.Errorf("pending stage = %s, want reporting_manager", item.PendingStage)
	}
	if item.ReportingManagerID == nil || *item.ReportingManagerID != manager {
		t.Errorf("reporting manager not captured on item")
	}
	if item.AppManagerID == nil || *item.AppManagerID != appMgr {
		t.Errorf("app manager not captured on item")
	}
	if item.AppOwnerID != nil || item.BusinessOwnerID != nil {
		t.Errorf("unmapped approver slots should be nil")
	}
}

func TestStartCycleSkipsInactiveGrants(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	app := store.addApp("payroll")
	store.appManager[app] = store.addUser("n.appmgr", "appmgr@ipamc.io")
	store.addAccess(user, app, true)
	store.addAccess(user, app, false)

	cycle, err := e.StartCycle(context.Background(), "2026-Q1")
	if err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}
	items, err := e.ListItems(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the active grant to be snapshotted, got %d items", len(items))
	}
}

func TestStartCycleWithNoApproversCompletesImmediately(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	app := store.addApp("orphan-app")
	store.addAccess(user, app, true)

	cycle, item := startSingleItemCycle(t, e, store, "2026-Q1")

	if item.PendingStage != string(StageCompleted) {
		t.Errorf("pending stage = %s, want completed", item.PendingStage)
	}
	if item.FinalStatus != nil {
		t.Errorf("degenerate item must carry no final status, got %q", *item.FinalStatus)
	}
	if cycle.Status != CycleStatusInProgress {
		t.Errorf("cycle status = %s, want in_progress at creation", cycle.Status)
	}
}

func TestStartCycleRejectsEmptyQuarter(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.StartCycle(context.Background(), "   ")
	var invalid *InvalidActionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidActionError, got %v", err)
	}
}

/* Full chain: reporting manager stages a revoke, app manager is the
 * terminal stage and ratifies it. */
func TestStagedRevokeAppliedAtTerminalStage(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	accessID := store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	cycle, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	outcome, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "revoke", Comment: "left the team",
	})
	if err != nil {
		t.Fatalf("reporting manager action failed: %v", err)
	}
	if outcome.Item.PendingStage != string(StageAppManager) {
		t.Fatalf("pending stage = %s, want app_manager", outcome.Item.PendingStage)
	}
	if outcome.Applied != nil {
		t.Fatalf("non-terminal stage must not apply anything")
	}
	staged, _ := store.FindUnappliedStagedChange(ctx, item.ID)
	if staged == nil || staged.ProposedAction != "revoke" || staged.Applied {
		t.Fatalf("expected unapplied staged revoke, got %+v", staged)
	}

	outcome, err = e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "approve",
	})
	if err != nil {
		t.Fatalf("terminal action failed: %v", err)
	}
	if outcome.Item.PendingStage != string(StageCompleted) {
		t.Errorf("pending stage = %s, want completed", outcome.Item.PendingStage)
	}
	if outcome.Item.FinalStatus == nil || *outcome.Item.FinalStatus != "approve" {
		t.Errorf("final status not recorded")
	}
	if outcome.Applied == nil || outcome.Applied.Action != AuditAppliedRevoke {
		t.Errorf("expected %s audit entry, got %+v", AuditAppliedRevoke, outcome.Applied)
	}
	if grant := store.access[accessID]; grant.Active {
		t.Errorf("access grant should be deactivated after applied revoke")
	}
	if staged, _ := store.FindUnappliedStagedChange(ctx, item.ID); staged != nil {
		t.Errorf("staged change should be marked applied")
	}
	if c := store.cycles[cycle.ID]; c.Status != CycleStatusCompleted {
		t.Errorf("cycle status = %s, want completed once all items close", c.Status)
	}
}

func TestTerminalRejectionVetoesStagedChange(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	accessID := store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "revoke",
	}); err != nil {
		t.Fatalf("reporting manager action failed: %v", err)
	}
	outcome, err := e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "reject", Comment: "still needed",
	})
	if err != nil {
		t.Fatalf("terminal rejection failed: %v", err)
	}
	if outcome.Applied == nil || outcome.Applied.Action != AuditRejected {
		t.Errorf("expected %s audit entry, got %+v", AuditRejected, outcome.Applied)
	}
	if outcome.Item.FinalStatus == nil || *outcome.Item.FinalStatus != "reject" {
		t.Errorf("final status should record the rejecting action")
	}
	if grant := store.access[accessID]; !grant.Active {
		t.Errorf("rejection must leave the access grant untouched")
	}
	if staged, _ := store.FindUnappliedStagedChange(ctx, item.ID); staged == nil {
		t.Errorf("vetoed staged change must remain unapplied")
	}
}

func TestTerminalAcceptWithoutStagedChangeRetains(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	bizOwner := store.addUser("b.owner", "owner@ipamc.io")
	app := store.addApp("payroll")
	accessID := store.addAccess(user, app, true)
	store.businessOwner[app] = bizOwner

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	if item.PendingStage != string(StageBusinessOwner) {
		t.Fatalf("chain with only a business owner should start there, got %s", item.PendingStage)
	}

	outcome, err := e.SubmitStageAction(context.Background(), StageBusinessOwner, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: bizOwner, Action: "approve",
	})
	if err != nil {
		t.Fatalf("terminal action failed: %v", err)
	}
	if outcome.Applied == nil || outcome.Applied.Action != AuditAppliedDirectRetain {
		t.Errorf("expected %s audit entry, got %+v", AuditAppliedDirectRetain, outcome.Applied)
	}
	if grant := store.access[accessID]; !grant.Active {
		t.Errorf("direct retain must keep the grant active")
	}
}

func TestModifyTransfersOwnership(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	successor := store.addUser("u.successor", "successor@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	accessID := store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	payload := `{"new_user_id": "` + successor.String() + `"}`
	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "modify", Comment: payload,
	}); err != nil {
		t.Fatalf("modify proposal failed: %v", err)
	}
	outcome, err := e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "approve",
	})
	if err != nil {
		t.Fatalf("terminal action failed: %v", err)
	}
	if outcome.Applied == nil || outcome.Applied.Action != AuditAppliedModifyTransfer {
		t.Errorf("expected %s audit entry, got %+v", AuditAppliedModifyTransfer, outcome.Applied)
	}
	if grant := store.access[accessID]; grant.UserID != successor {
		t.Errorf("grant owner = %s, want transfer to %s", grant.UserID, successor)
	}
}

func TestMalformedModifyPayloadAppliesAsNoop(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	accessID := store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "modify", Comment: "hand over to bob",
	}); err != nil {
		t.Fatalf("modify proposal failed: %v", err)
	}
	outcome, err := e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "approve",
	})
	if err != nil {
		t.Fatalf("terminal action failed: %v", err)
	}
	if outcome.Applied == nil || outcome.Applied.Action != AuditAppliedModifyNoop {
		t.Errorf("expected %s audit entry, got %+v", AuditAppliedModifyNoop, outcome.Applied)
	}
	grant := store.access[accessID]
	if grant.UserID != user || !grant.Active {
		t.Errorf("malformed modify payload must leave the grant untouched")
	}
}

func TestStagedChangeUpsertKeepsLatestProposal(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	appOwner := store.addUser("o.owner", "appowner@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr
	store.appOwner[app] = appOwner

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "revoke", Comment: "left the team",
	}); err != nil {
		t.Fatalf("first proposal failed: %v", err)
	}
	if _, err := e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "retain",
	}); err != nil {
		t.Fatalf("second proposal failed: %v", err)
	}

	unapplied := 0
	var staged db.StagedChange
	for _, c := range store.staged {
		if c.ReviewItemID == item.ID && !c.Applied {
			unapplied++
			staged = c
		}
	}
	if unapplied != 1 {
		t.Fatalf("expected exactly one unapplied staged change, got %d", unapplied)
	}
	if staged.ProposedAction != "retain" {
		t.Errorf("proposed action = %s, want the later stage's retain", staged.ProposedAction)
	}
	if staged.ProposedByID != appMgr {
		t.Errorf("proposer should be the latest acting approver")
	}
	if staged.Payload == nil || *staged.Payload != "left the team" {
		t.Errorf("earlier comment should survive an overwrite without a new comment")
	}
	if staged.LastStage == nil || *staged.LastStage != string(StageAppManager) {
		t.Errorf("last stage should track the latest proposal")
	}
}

func TestSubmitAtWrongStageFails(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "approve",
	}); err != nil {
		t.Fatalf("reporting manager action failed: %v", err)
	}

	_, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "approve",
	})
	var mismatch *StageMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected StageMismatchError, got %v", err)
	}
	if mismatch.Pending != StageAppManager || mismatch.Submitted != StageReportingManager {
		t.Errorf("mismatch detail wrong: %+v", mismatch)
	}
}

func TestSubmitByWrongActorFails(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	intruder := store.addUser("x.intruder", "intruder@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = store.addUser("n.appmgr", "appmgr@ipamc.io")

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")

	_, err := e.SubmitStageAction(context.Background(), StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: intruder, Action: "approve",
	})
	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestSubmitOnUnknownItemFails(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.SubmitStageAction(context.Background(), StageReportingManager, StageActionInput{
		ReviewItemID: uuid.New(), ActorUserID: uuid.New(), Action: "approve",
	})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListItemsForStageFiltersByApprover(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	other := store.addUser("u.other", "other@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.addAccess(other, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = store.addUser("n.appmgr", "appmgr@ipamc.io")

	cycle, err := e.StartCycle(context.Background(), "2026-Q1")
	if err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}

	items, err := e.ListItemsForStage(context.Background(), cycle.ID, manager, StageReportingManager)
	if err != nil {
		t.Fatalf("ListItemsForStage failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item pending on the manager, got %d", len(items))
	}
	if items[0].ReportingManagerID == nil || *items[0].ReportingManagerID != manager {
		t.Errorf("listed item is not assigned to the manager")
	}
}

func TestNotificationsAreBestEffort(t *testing.T) {
	e, store := newTestEngine()
	notifier := &recordingNotifier{fail: true}
	e.SetNotifier(notifier)

	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)

	if _, err := e.StartCycle(context.Background(), "2026-Q1"); err != nil {
		t.Fatalf("delivery failure must not fail the cycle start: %v", err)
	}

	notifier.fail = false
	cycle, err := e.StartCycle(context.Background(), "2026-Q2")
	if err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "lead@ipamc.io" {
		t.Errorf("expected one notification to the pending approver, got %v", notifier.sent)
	}
	if _, err := e.ListItems(context.Background(), cycle.ID); err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
}

func TestGetItemTrailCollectsHistoryAndAudit(t *testing.T) {
	e, store := newTestEngine()
	user := store.addUser("u.worker", "worker@ipamc.io")
	manager := store.addUser("m.lead", "lead@ipamc.io")
	appMgr := store.addUser("n.appmgr", "appmgr@ipamc.io")
	app := store.addApp("payroll")
	store.addAccess(user, app, true)
	store.mapManager(manager, user, app)
	store.appManager[app] = appMgr

	_, item := startSingleItemCycle(t, e, store, "2026-Q1")
	ctx := context.Background()

	if _, err := e.SubmitStageAction(ctx, StageReportingManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: manager, Action: "revoke",
	}); err != nil {
		t.Fatalf("reporting manager action failed: %v", err)
	}
	if _, err := e.SubmitStageAction(ctx, StageAppManager, StageActionInput{
		ReviewItemID: item.ID, ActorUserID: appMgr, Action: "approve",
	}); err != nil {
		t.Fatalf("terminal action failed: %v", err)
	}

	trail, err := e.GetItemTrail(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItemTrail failed: %v", err)
	}
	if len(trail.History) != 2 {
		t.Errorf("expected 2 approval history rows, got %d", len(trail.History))
	}
	if len(trail.Audit) != 1 || trail.Audit[0].Action != AuditAppliedRevoke {
		t.Errorf("expected one %s audit row, got %+v", AuditAppliedRevoke, trail.Audit)
	}
	if trail.Item.PendingStage != string(StageCompleted) {
		t.Errorf("trail item should reflect completion")
	}
}
