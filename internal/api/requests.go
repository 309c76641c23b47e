/*-------------------------------------------------------------------------
 *
 * requests.go
 *    Request and response DTOs for the access review API
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/requests.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

/* Directory requests */

type CreateUserRequest struct {
	BusinessUserID string `json:"business_user_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
}

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type AssignRoleRequest struct {
	UserID uuid.UUID `json:"user_id"`
	RoleID uuid.UUID `json:"role_id"`
}

type CreateApplicationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type CreateAccessRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	ApplicationID uuid.UUID `json:"application_id"`
}

type CreateReportingMapRequest struct {
	ManagerID uuid.UUID `json:"manager_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type CreateReportingAppMapRequest struct {
	ManagerID uuid.UUID `json:"manager_id"`
	AppID     uuid.UUID `json:"app_id"`
}

type CreateAppMapRequest struct {
	AppID  uuid.UUID `json:"app_id"`
	UserID uuid.UUID `json:"user_id"`
}

type LoginRequest struct {
	BusinessUserID string `json:"business_user_id"`
}

/* Review requests */

type StageActionRequest struct {
	ReviewItemID uuid.UUID `json:"review_item_id"`
	ActorUserID  uuid.UUID `json:"actor_user_id"`
	Action       string    `json:"action"`
	Comment      string    `json:"comment,omitempty"`
}

/* Responses */

type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	BusinessUserID string    `json:"business_user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

type LoginResponse struct {
	User  UserResponse `json:"user"`
	Roles []string     `json:"roles"`
}

type AccessResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type CycleResponse struct {
	ID        uuid.UUID `json:"id"`
	Quarter   string    `json:"quarter"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type StartCycleResponse struct {
	CycleID uuid.UUID `json:"cycle_id"`
	Quarter string    `json:"quarter"`
	Status  string    `json:"status"`
}

type ReviewItemResponse struct {
	ID       uuid.UUID `json:"id"`
	CycleID  uuid.UUID `json:"cycle_id"`
	AccessID uuid.UUID `json:"access_id"`

	ReportingManagerID *uuid.UUID `json:"reporting_manager_id,omitempty"`
	AppManagerID       *uuid.UUID `json:"app_manager_id,omitempty"`
	AppOwnerID         *uuid.UUID `json:"app_owner_id,omitempty"`
	BusinessOwnerID    *uuid.UUID `json:"business_owner_id,omitempty"`

	PendingStage string  `json:"pending_stage"`
	FinalStatus  *string `json:"final_status,omitempty"`

	ReportingManagerAction *string `json:"reporting_manager_action,omitempty"`
	AppManagerAction       *string `json:"app_manager_action,omitempty"`
	AppOwnerAction         *string `json:"app_owner_action,omitempty"`
	BusinessOwnerAction    *string `json:"business_owner_action,omitempty"`
}

type StageActionResponse struct {
	Item    ReviewItemResponse `json:"item"`
	Applied *AuditLogResponse  `json:"applied,omitempty"`
}

type ApprovalHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Stage     string    `json:"stage"`
	Action    string    `json:"action"`
	Comment   *string   `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditLogResponse struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	AppliedBy uuid.UUID `json:"applied_by"`
	AppliedAt time.Time `json:"applied_at"`
	Details   *string   `json:"details,omitempty"`
}

type ItemTrailResponse struct {
	Item    ReviewItemResponse        `json:"item"`
	History []ApprovalHistoryResponse `json:"history"`
	Audit   []AuditLogResponse        `json:"audit"`
}

func toUserResponse(u *db.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		BusinessUserID: u.BusinessUserID,
		Name:           u.Name,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
	}
}

func toAccessResponse(a *db.Access) AccessResponse {
	return AccessResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		ApplicationID: a.ApplicationID,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
	}
}

func toCycleResponse(c *db.ReviewCycle) CycleResponse {
	return CycleResponse{ID: c.ID, Quarter: c.Quarter, Status: c.Status, CreatedAt: c.CreatedAt}
}

func toReviewItemResponse(item *db.ReviewItem) ReviewItemResponse {
	return ReviewItemResponse{
		ID:                     item.ID,
		CycleID:                item.CycleID,
		AccessID:               item.AccessID,
		ReportingManagerID:     item.ReportingManagerID,
		AppManagerID:           item.AppManagerID,
		AppOwnerID:             item.AppOwnerID,
		BusinessOwnerID:        item.BusinessOwnerID,
		PendingStage:           item.PendingStage,
		FinalStatus:            item.FinalStatus,
		ReportingManagerAction: item.ReportingManagerAction,
		AppManagerAction:       item.AppManagerAction,
		AppOwnerAction:         item.AppOwnerAction,
		BusinessOwnerAction:    item.BusinessOwnerAction,
	}
}

func toReviewItemResponses(items []db.ReviewItem) []ReviewItemResponse {
	out := make([]ReviewItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toReviewItemResponse(&items[i]))
	}
	return out
}

func toAuditLogResponse(a *db.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        a.ID,
		Action:    a.Action,
		AppliedBy: a.AppliedBy,
		AppliedAt: a.AppliedAt,
		Details:   a.Details,
	}
}
