/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for the access review service
 *
 * Defines data structures for users, roles, applications, access grants,
 * approver mappings, review cycles, review items, staged changes, and the
 * approval history and audit logs.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `db:"id"`
	BusinessUserID string    `db:"business_user_id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	CreatedAt      time.Time `db:"created_at"`
}

type Role struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

type UserRole struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`
	RoleID uuid.UUID `db:"role_id"`
}

type Application struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

/* Access is a (user, application) grant with an active flag. Deactivation
 * and owner transfer happen only through the review engine's terminal
 * staged-change application. */
type Access struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	ApplicationID uuid.UUID `db:"application_id"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
}

/* Approver mapping relations. Each table carries a uniqueness constraint;
 * duplicate rows are a data-entry error rejected at insert time. */

type ReportingMap struct {
	ID        uuid.UUID `db:"id"`
	ManagerID uuid.UUID `db:"manager_id"`
	UserID    uuid.UUID `db:"user_id"`
}

type ReportingAppMap struct {
	ID        uuid.UUID `db:"id"`
	ManagerID uuid.UUID `db:"manager_id"`
	AppID     uuid.UUID `db:"app_id"`
}

type AppManagerMap struct {
	ID     uuid.UUID `db:"id"`
	AppID  uuid.UUID `db:"app_id"`
	UserID uuid.UUID `db:"user_id"`
}

type AppOwnerMap struct {
	ID     uuid.UUID `db:"id"`
	AppID  uuid.UUID `db:"app_id"`
	UserID uuid.UUID `db:"user_id"`
}

type BusinessOwnerMap struct {
	ID     uuid.UUID `db:"id"`
	AppID  uuid.UUID `db:"app_id"`
	UserID uuid.UUID `db:"user_id"`
}

type ReviewCycle struct {
	ID        uuid.UUID `db:"id"`
	Quarter   string    `db:"quarter"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

/* ReviewItem is one access grant's attestation record within a cycle.
 * The approver chain is captured at cycle start and never re-resolved. */
type ReviewItem struct {
	ID       uuid.UUID `db:"id"`
	CycleID  uuid.UUID `db:"cycle_id"`
	AccessID uuid.UUID `db:"access_id"`

	ReportingManagerID *uuid.UUID `db:"reporting_manager_id"`
	AppManagerID       *uuid.UUID `db:"app_manager_id"`
	AppOwnerID         *uuid.UUID `db:"app_owner_id"`
	BusinessOwnerID    *uuid.UUID `db:"business_owner_id"`

	PendingStage string `db:"pending_stage"`

	ReportingManagerAction    *string    `db:"reporting_manager_action"`
	ReportingManagerComment   *string    `db:"reporting_manager_comment"`
	ReportingManagerTimestamp *time.Time `db:"reporting_manager_timestamp"`

	AppManagerAction    *string    `db:"app_manager_action"`
	AppManagerComment   *string    `db:"app_manager_comment"`
	AppManagerTimestamp *time.Time `db:"app_manager_timestamp"`

	AppOwnerAction    *string    `db:"app_owner_action"`
	AppOwnerComment   *string    `db:"app_owner_comment"`
	AppOwnerTimestamp *time.Time `db:"app_owner_timestamp"`

	BusinessOwnerAction    *string    `db:"business_owner_action"`
	BusinessOwnerComment   *string    `db:"business_owner_comment"`
	BusinessOwnerTimestamp *time.Time `db:"business_owner_timestamp"`

	FinalStatus *string   `db:"final_status"`
	CreatedAt   time.Time `db:"created_at"`
}

/* StagedChange holds a disposition proposed by an early stage, pending
 * ratification by the item's terminal stage. At most one unapplied row
 * exists per review item. */
type StagedChange struct {
	ID             uuid.UUID  `db:"id"`
	ReviewItemID   uuid.UUID  `db:"review_item_id"`
	ProposedAction string     `db:"proposed_action"`
	ProposedByID   uuid.UUID  `db:"proposed_by_id"`
	ProposedAt     time.Time  `db:"proposed_at"`
	Payload        *string    `db:"payload"`
	LastStage      *string    `db:"last_stage"`
	Applied        bool       `db:"applied"`
	AppliedAt      *time.Time `db:"applied_at"`
}

/* ApprovalHistory is append-only: one row per stage action. */
type ApprovalHistory struct {
	ID           uuid.UUID `db:"id"`
	ReviewItemID uuid.UUID `db:"review_item_id"`
	Stage        string    `db:"stage"`
	Action       string    `db:"action"`
	Comment      *string   `db:"comment"`
	Timestamp    time.Time `db:"timestamp"`
}

/* AuditLog is append-only: one row per applied (or vetoed) disposition. */
type AuditLog struct {
	ID           uuid.UUID `db:"id"`
	ReviewItemID uuid.UUID `db:"review_item_id"`
	Action       string    `db:"action"`
	AppliedBy    uuid.UUID `db:"applied_by"`
	AppliedAt    time.Time `db:"applied_at"`
	Details      *string   `db:"details"`
}
