/*-------------------------------------------------------------------------
 *
 * memstore_test.go
 *    In-memory Store and TxRunner used by the engine tests
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/memstore_test.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

/* memStore mimics the query layer, including the sql.ErrNoRows wrapping
 * the real Get* methods produce. Get methods hand out copies so that
 * engine-side mutation is only visible after an explicit Update. */
type memStore struct {
	users  map[uuid.UUID]db.User
	apps   map[uuid.UUID]db.Application
	access map[uuid.UUID]db.Access

	reportingMgr  map[uuid.UUID]uuid.UUID
	managerApps   map[uuid.UUID]map[uuid.UUID]bool
	appManager    map[uuid.UUID]uuid.UUID
	appOwner      map[uuid.UUID]uuid.UUID
	businessOwner map[uuid.UUID]uuid.UUID

	cycles  map[uuid.UUID]db.ReviewCycle
	items   map[uuid.UUID]db.ReviewItem
	staged  map[uuid.UUID]db.StagedChange
	history []db.ApprovalHistory
	audit   []db.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]db.User),
		apps:          make(map[uuid.UUID]db.Application),
		access:        make(map[uuid.UUID]db.Access),
		reportingMgr:  make(map[uuid.UUID]uuid.UUID),
		managerApps:   make(map[uuid.UUID]map[uuid.UUID]bool),
		appManager:    make(map[uuid.UUID]uuid.UUID),
		appOwner:      make(map[uuid.UUID]uuid.UUID),
		businessOwner: make(map[uuid.UUID]uuid.UUID),
		cycles:        make(map[uuid.UUID]db.ReviewCycle),
		items:         make(map[uuid.UUID]db.ReviewItem),
		staged:        make(map[uuid.UUID]db.StagedChange),
	}
}

type memRunner struct {
	store *memStore
}

func (r *memRunner) InTx(ctx context.Context, fn func(s Store) error) error {
	return fn(r.store)
}

func notFoundRow(what string) error {
	return fmt.Errorf("failed to get %s: %w", what, sql.ErrNoRows)
}

/* --- seeding helpers --- */

func (m *memStore) addUser(name, email string) uuid.UUID {
	id := uuid.New()
	m.users[id] = db.User{ID: id, BusinessUserID: name, Name: name, Email: email, CreatedAt: time.Now()}
	return id
}

func (m *memStore) addApp(name string) uuid.UUID {
	id := uuid.New()
	m.apps[id] = db.Application{ID: id, Name: name, CreatedAt: time.Now()}
	return id
}

func (m *memStore) addAccess(userID, appID uuid.UUID, active bool) uuid.UUID {
	id := uuid.New()
	m.access[id] = db.Access{ID: id, UserID: userID, ApplicationID: appID, Active: active, CreatedAt: time.Now()}
	return id
}

func (m *memStore) mapManager(managerID, userID uuid.UUID, coveredApps ...uuid.UUID) {
	m.reportingMgr[userID] = managerID
	if m.managerApps[managerID] == nil {
		m.managerApps[managerID] = make(map[uuid.UUID]bool)
	}
	for _, appID := range coveredApps {
		m.managerApps[managerID][appID] = true
	}
}

/* --- Store implementation --- */

func (m *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, notFoundRow("user")
}

func (m *memStore) GetApplicationByID(ctx context.Context, id uuid.UUID) (*db.Application, error) {
	if a, ok := m.apps[id]; ok {
		return &a, nil
	}
	return nil, notFoundRow("application")
}

func (m *memStore) ListActiveAccess(ctx context.Context) ([]db.Access, error) {
	var out []db.Access
	for _, a := range m.access {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAccessForUpdate(ctx context.Context, id uuid.UUID) (*db.Access, error) {
	if a, ok := m.access[id]; ok {
		return &a, nil
	}
	return nil, notFoundRow("access")
}

func (m *memStore) SetAccessActive(ctx context.Context, id uuid.UUID, active bool) error {
	a, ok := m.access[id]
	if !ok {
		return notFoundRow("access")
	}
	a.Active = active
	m.access[id] = a
	return nil
}

func (m *memStore) SetAccessOwner(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	a, ok := m.access[id]
	if !ok {
		return notFoundRow("access")
	}
	a.UserID = userID
	m.access[id] = a
	return nil
}

func (m *memStore) ReportingManagerOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	if mgr, ok := m.reportingMgr[userID]; ok {
		return &mgr, nil
	}
	return nil, nil
}

func (m *memStore) ManagerCoversApp(ctx context.Context, managerID, appID uuid.UUID) (bool, error) {
	return m.managerApps[managerID][appID], nil
}

func (m *memStore) AppManagerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	if id, ok := m.appManager[appID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (m *memStore) AppOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	if id, ok := m.appOwner[appID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (m *memStore) BusinessOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	if id, ok := m.businessOwner[appID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (m *memStore) CreateReviewCycle(ctx context.Context, cycle *db.ReviewCycle) error {
	cycle.ID = uuid.New()
	cycle.CreatedAt = time.Now()
	m.cycles[cycle.ID] = *cycle
	return nil
}

func (m *memStore) GetReviewCycle(ctx context.Context, id uuid.UUID) (*db.ReviewCycle, error) {
	if c, ok := m.cycles[id]; ok {
		return &c, nil
	}
	return nil, notFoundRow("review cycle")
}

func (m *memStore) ListReviewCycles(ctx context.Context) ([]db.ReviewCycle, error) {
	var out []db.ReviewCycle
	for _, c := range m.cycles {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) SetReviewCycleStatus(ctx context.Context, id uuid.UUID, status string) error {
	c, ok := m.cycles[id]
	if !ok {
		return notFoundRow("review cycle")
	}
	c.Status = status
	m.cycles[id] = c
	return nil
}

func (m *memStore) CreateReviewItem(ctx context.Context, item *db.ReviewItem) error {
	item.ID = uuid.New()
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) GetReviewItem(ctx context.Context, id uuid.UUID) (*db.ReviewItem, error) {
	if it, ok := m.items[id]; ok {
		return &it, nil
	}
	return nil, notFoundRow("review item")
}

func (m *memStore) GetReviewItemForUpdate(ctx context.Context, id uuid.UUID) (*db.ReviewItem, error) {
	return m.GetReviewItem(ctx, id)
}

func (m *memStore) UpdateReviewItem(ctx context.Context, item *db.ReviewItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return notFoundRow("review item")
	}
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) ListReviewItems(ctx context.Context, cycleID uuid.UUID) ([]db.ReviewItem, error) {
	var out []db.ReviewItem
	for _, it := range m.items {
		if it.CycleID == cycleID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) ListReviewItemsForStage(ctx context.Context, cycleID, userID uuid.UUID, stage string) ([]db.ReviewItem, error) {
	var out []db.ReviewItem
	for _, it := range m.items {
		if it.CycleID != cycleID || it.PendingStage != stage {
			continue
		}
		approver := approverFor(&it, StageRole(stage))
		if approver != nil && *approver == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) CountOpenReviewItems(ctx context.Context, cycleID uuid.UUID) (int, error) {
	count := 0
	for _, it := range m.items {
		if it.CycleID == cycleID && it.PendingStage != string(StageCompleted) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreateStagedChange(ctx context.Context, change *db.StagedChange) error {
	change.ID = uuid.New()
	m.staged[change.ID] = *change
	return nil
}

func (m *memStore) FindUnappliedStagedChange(ctx context.Context, reviewItemID uuid.UUID) (*db.StagedChange, error) {
	for _, c := range m.staged {
		if c.ReviewItemID == reviewItemID && !c.Applied {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateStagedChange(ctx context.Context, change *db.StagedChange) error {
	if _, ok := m.staged[change.ID]; !ok {
		return notFoundRow("staged change")
	}
	m.staged[change.ID] = *change
	return nil
}

func (m *memStore) AppendApprovalHistory(ctx context.Context, hist *db.ApprovalHistory) error {
	hist.ID = uuid.New()
	hist.Timestamp = time.Now()
	m.history = append(m.history, *hist)
	return nil
}

func (m *memStore) ListApprovalHistory(ctx context.Context, reviewItemID uuid.UUID) ([]db.ApprovalHistory, error) {
	var out []db.ApprovalHistory
	for _, h := range m.history {
		if h.ReviewItemID == reviewItemID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) AppendAuditLog(ctx context.Context, entry *db.AuditLog) error {
	entry.ID = uuid.New()
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Now()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *memStore) ListAuditLogs(ctx context.Context, reviewItemID uuid.UUID) ([]db.AuditLog, error) {
	var out []db.AuditLog
	for _, a := range m.audit {
		if a.ReviewItemID == reviewItemID {
			out = append(out, a)
		}
	}
	return out, nil
}

/* recordingNotifier captures deliveries for assertions. */
type recordingNotifier struct {
	sent []string
	fail bool
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	if n.fail {
		return fmt.Errorf("smtp unavailable")
	}
	n.sent = append(n.sent, recipient)
	return nil
}
