/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for reference data
 *
 * Provides database query functions for users, roles, applications,
 * access grants, and the approver mapping tables.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so the same query
 * methods run pooled or inside a workflow transaction. */
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Queries struct {
	DB Querier
}

func NewQueries(db Querier) *Queries {
	return &Queries{DB: db}
}

/* IsUniqueViolation reports whether err is a Postgres unique constraint
 * violation. Duplicate mapping and registration rows surface this at
 * creation time. */
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

/* User queries */
const (
	createUserQuery = `
		INSERT INTO access_review.users (business_user_id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	getUserByIDQuery = `SELECT * FROM access_review.users WHERE id = $1`

	getUserByBusinessIDQuery = `SELECT * FROM access_review.users WHERE business_user_id = $1`

	listUsersQuery = `SELECT * FROM access_review.users ORDER BY created_at DESC`
)

func (q *Queries) CreateUser(ctx context.Context, user *User) error {
	err := q.DB.GetContext(ctx, user, createUserQuery, user.BusinessUserID, user.Name, user.Email)
	if err != nil {
		return fmt.Errorf("user creation failed: %w", err)
	}
	return nil
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := q.DB.GetContext(ctx, &user, getUserByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (q *Queries) GetUserByBusinessID(ctx context.Context, businessUserID string) (*User, error) {
	var user User
	err := q.DB.GetContext(ctx, &user, getUserByBusinessIDQuery, businessUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by business id: %w", err)
	}
	return &user, nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := q.DB.SelectContext(ctx, &users, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

/* Role queries */
const (
	createRoleQuery = `
		INSERT INTO access_review.roles (name)
		VALUES ($1)
		RETURNING id`

	listRolesQuery = `SELECT * FROM access_review.roles ORDER BY name`

	createUserRoleQuery = `
		INSERT INTO access_review.user_roles (user_id, role_id)
		VALUES ($1, $2)
		RETURNING id`

	listRolesForUserQuery = `
		SELECT r.* FROM access_review.roles r
		JOIN access_review.user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`
)

func (q *Queries) CreateRole(ctx context.Context, role *Role) error {
	err := q.DB.GetContext(ctx, role, createRoleQuery, role.Name)
	if err != nil {
		return fmt.Errorf("role creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := q.DB.SelectContext(ctx, &roles, listRolesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (q *Queries) CreateUserRole(ctx context.Context, userRole *UserRole) error {
	err := q.DB.GetContext(ctx, userRole, createUserRoleQuery, userRole.UserID, userRole.RoleID)
	if err != nil {
		return fmt.Errorf("user role creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListRolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	var roles []Role
	err := q.DB.SelectContext(ctx, &roles, listRolesForUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles for user: %w", err)
	}
	return roles, nil
}

/* Application queries */
const (
	createApplicationQuery = `
		INSERT INTO access_review.applications (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`

	getApplicationByIDQuery = `SELECT * FROM access_review.applications WHERE id = $1`

	listApplicationsQuery = `SELECT * FROM access_review.applications ORDER BY name`
)

func (q *Queries) CreateApplication(ctx context.Context, app *Application) error {
	err := q.DB.GetContext(ctx, app, createApplicationQuery, app.Name, app.Description)
	if err != nil {
		return fmt.Errorf("application creation failed: %w", err)
	}
	return nil
}

func (q *Queries) GetApplicationByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	var app Application
	err := q.DB.GetContext(ctx, &app, getApplicationByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

func (q *Queries) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	err := q.DB.SelectContext(ctx, &apps, listApplicationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

/* Access grant queries */
const (
	createAccessQuery = `
		INSERT INTO access_review.access (user_id, application_id, active)
		VALUES ($1, $2, TRUE)
		RETURNING id, created_at`

	getAccessQuery = `SELECT * FROM access_review.access WHERE id = $1`

	getAccessForUpdateQuery = `SELECT * FROM access_review.access WHERE id = $1 FOR UPDATE`

	listAccessQuery = `SELECT * FROM access_review.access ORDER BY created_at DESC`

	listActiveAccessQuery = `SELECT * FROM access_review.access WHERE active = TRUE ORDER BY created_at`

	setAccessActiveQuery = `UPDATE access_review.access SET active = $2 WHERE id = $1`

	setAccessOwnerQuery = `UPDATE access_review.access SET user_id = $2 WHERE id = $1`
)

func (q *Queries) CreateAccess(ctx context.Context, access *Access) error {
	err := q.DB.GetContext(ctx, access, createAccessQuery, access.UserID, access.ApplicationID)
	if err != nil {
		return fmt.Errorf("access creation failed: %w", err)
	}
	access.Active = true
	return nil
}

func (q *Queries) GetAccess(ctx context.Context, id uuid.UUID) (*Access, error) {
	var access Access
	err := q.DB.GetContext(ctx, &access, getAccessQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get access: %w", err)
	}
	return &access, nil
}

/* GetAccessForUpdate locks the grant row for the remainder of the
 * transaction so a terminal disposition cannot race another writer. */
func (q *Queries) GetAccessForUpdate(ctx context.Context, id uuid.UUID) (*Access, error) {
	var access Access
	err := q.DB.GetContext(ctx, &access, getAccessForUpdateQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock access: %w", err)
	}
	return &access, nil
}

func (q *Queries) ListAccess(ctx context.Context) ([]Access, error) {
	var accesses []Access
	err := q.DB.SelectContext(ctx, &accesses, listAccessQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list access: %w", err)
	}
	return accesses, nil
}

func (q *Queries) ListActiveAccess(ctx context.Context) ([]Access, error) {
	var accesses []Access
	err := q.DB.SelectContext(ctx, &accesses, listActiveAccessQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list active access: %w", err)
	}
	return accesses, nil
}

func (q *Queries) SetAccessActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := q.DB.ExecContext(ctx, setAccessActiveQuery, id, active)
	if err != nil {
		return fmt.Errorf("failed to set access active flag: %w", err)
	}
	return nil
}

func (q *Queries) SetAccessOwner(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	_, err := q.DB.ExecContext(ctx, setAccessOwnerQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set access owner: %w", err)
	}
	return nil
}

/* Mapping queries. Lookups return (nil, nil) when no row matches: an
 * absent approver slot is a normal outcome, not an error. Multiple rows
 * for the same key are a data-entry error prevented by the uniqueness
 * constraints; callers must not rely on which row would win. */
const (
	createReportingMapQuery = `
		INSERT INTO access_review.reporting_map (manager_id, user_id)
		VALUES ($1, $2)
		RETURNING id`

	listReportingMapsQuery = `SELECT * FROM access_review.reporting_map`

	reportingManagerOfQuery = `
		SELECT manager_id FROM access_review.reporting_map WHERE user_id = $1 LIMIT 1`

	createReportingAppMapQuery = `
		INSERT INTO access_review.reporting_app_map (manager_id, app_id)
		VALUES ($1, $2)
		RETURNING id`

	listReportingAppMapsQuery = `SELECT * FROM access_review.reporting_app_map`

	managerCoversAppQuery = `
		SELECT EXISTS (
			SELECT 1 FROM access_review.reporting_app_map
			WHERE manager_id = $1 AND app_id = $2
		)`

	createAppManagerMapQuery = `
		INSERT INTO access_review.app_manager_map (app_id, user_id)
		VALUES ($1, $2)
		RETURNING id`

	listAppManagerMapsQuery = `SELECT * FROM access_review.app_manager_map`

	appManagerOfQuery = `
		SELECT user_id FROM access_review.app_manager_map WHERE app_id = $1 LIMIT 1`

	createAppOwnerMapQuery = `
		INSERT INTO access_review.app_owner_map (app_id, user_id)
		VALUES ($1, $2)
		RETURNING id`

	listAppOwnerMapsQuery = `SELECT * FROM access_review.app_owner_map`

	appOwnerOfQuery = `
		SELECT user_id FROM access_review.app_owner_map WHERE app_id = $1 LIMIT 1`

	createBusinessOwnerMapQuery = `
		INSERT INTO access_review.business_owner_map (app_id, user_id)
		VALUES ($1, $2)
		RETURNING id`

	listBusinessOwnerMapsQuery = `SELECT * FROM access_review.business_owner_map`

	businessOwnerOfQuery = `
		SELECT user_id FROM access_review.business_owner_map WHERE app_id = $1 LIMIT 1`
)

func (q *Queries) CreateReportingMap(ctx context.Context, m *ReportingMap) error {
	err := q.DB.GetContext(ctx, m, createReportingMapQuery, m.ManagerID, m.UserID)
	if err != nil {
		return fmt.Errorf("reporting map creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListReportingMaps(ctx context.Context) ([]ReportingMap, error) {
	var maps []ReportingMap
	err := q.DB.SelectContext(ctx, &maps, listReportingMapsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list reporting maps: %w", err)
	}
	return maps, nil
}

func (q *Queries) ReportingManagerOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var managerID uuid.UUID
	err := q.DB.GetContext(ctx, &managerID, reportingManagerOfQuery, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reporting manager: %w", err)
	}
	return &managerID, nil
}

func (q *Queries) CreateReportingAppMap(ctx context.Context, m *ReportingAppMap) error {
	err := q.DB.GetContext(ctx, m, createReportingAppMapQuery, m.ManagerID, m.AppID)
	if err != nil {
		return fmt.Errorf("reporting app map creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListReportingAppMaps(ctx context.Context) ([]ReportingAppMap, error) {
	var maps []ReportingAppMap
	err := q.DB.SelectContext(ctx, &maps, listReportingAppMapsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list reporting app maps: %w", err)
	}
	return maps, nil
}

func (q *Queries) ManagerCoversApp(ctx context.Context, managerID, appID uuid.UUID) (bool, error) {
	var covers bool
	err := q.DB.GetContext(ctx, &covers, managerCoversAppQuery, managerID, appID)
	if err != nil {
		return false, fmt.Errorf("failed to check manager app coverage: %w", err)
	}
	return covers, nil
}

func (q *Queries) CreateAppManagerMap(ctx context.Context, m *AppManagerMap) error {
	err := q.DB.GetContext(ctx, m, createAppManagerMapQuery, m.AppID, m.UserID)
	if err != nil {
		return fmt.Errorf("app manager map creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListAppManagerMaps(ctx context.Context) ([]AppManagerMap, error) {
	var maps []AppManagerMap
	err := q.DB.SelectContext(ctx, &maps, listAppManagerMapsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list app manager maps: %w", err)
	}
	return maps, nil
}

func (q *Queries) AppManagerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	var userID uuid.UUID
	err := q.DB.GetContext(ctx, &userID, appManagerOfQuery, appID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up app manager: %w", err)
	}
	return &userID, nil
}

func (q *Queries) CreateAppOwnerMap(ctx context.Context, m *AppOwnerMap) error {
	err := q.DB.GetContext(ctx, m, createAppOwnerMapQuery, m.AppID, m.UserID)
	if err != nil {
		return fmt.Errorf("app owner map creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListAppOwnerMaps(ctx context.Context) ([]AppOwnerMap, error) {
	var maps []AppOwnerMap
	err := q.DB.SelectContext(ctx, &maps, listAppOwnerMapsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list app owner maps: %w", err)
	}
	return maps, nil
}

func (q *Queries) AppOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	var userID uuid.UUID
	err := q.DB.GetContext(ctx, &userID, appOwnerOfQuery, appID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up app owner: %w", err)
	}
	return &userID, nil
}

func (q *Queries) CreateBusinessOwnerMap(ctx context.Context, m *BusinessOwnerMap) error {
	err := q.DB.GetContext(ctx, m, createBusinessOwnerMapQuery, m.AppID, m.UserID)
	if err != nil {
		return fmt.Errorf("business owner map creation failed: %w", err)
	}
	return nil
}

func (q *Queries) ListBusinessOwnerMaps(ctx context.Context) ([]BusinessOwnerMap, error) {
	var maps []BusinessOwnerMap
	err := q.DB.SelectContext(ctx, &maps, listBusinessOwnerMapsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list business owner maps: %w", err)
	}
	return maps, nil
}

func (q *Queries) BusinessOwnerOf(ctx context.Context, appID uuid.UUID) (*uuid.UUID, error) {
	var userID uuid.UUID
	err := q.DB.GetContext(ctx, &userID, businessOwnerOfQuery, appID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up business owner: %w", err)
	}
	return &userID, nil
}
