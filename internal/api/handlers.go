/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    API handlers for the access review directory
 *
 * Provides HTTP handlers for users, roles, applications, access grants,
 * approver mappings, and lookup-based login.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ipamc/accessreview/internal/db"
	"github.com/ipamc/accessreview/internal/review"
	"github.com/ipamc/accessreview/internal/validation"
)

/* Maximum request body size (1MB) */
const maxBodySize = 1024 * 1024

type Handlers struct {
	queries *db.Queries
	engine  *review.Engine
}

func NewHandlers(queries *db.Queries, engine *review.Engine) *Handlers {
	return &Handlers{
		queries: queries,
		engine:  engine,
	}
}

/* decodeBody reads, size-checks, and decodes a JSON request body */
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	requestID := GetRequestID(r.Context())
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body validation failed", err), requestID))
		return false
	}
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body parsing error", err), requestID))
		return false
	}
	return true
}

/* pathUUID extracts and parses a UUID path variable */
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	if err := validation.ValidateUUIDRequired(vars[name], name); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid "+name, err), requestID))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(vars[name])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid "+name+" format", err), requestID))
		return uuid.Nil, false
	}
	return id, true
}

/* Users */

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !ValidateAndRespond(w, func() error { return ValidateCreateUserRequest(&req) }) {
		return
	}

	user := &db.User{
		BusinessUserID: req.BusinessUserID,
		Name:           req.Name,
		Email:          req.Email,
	}
	if err := h.queries.CreateUser(r.Context(), user); err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, WrapError(NewError(http.StatusConflict, "user already registered", err), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "user creation failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list users", err), requestID))
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

/* Roles */

func (h *Handlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !ValidateAndRespond(w, func() error { return validation.ValidateRequired(req.Name, "name") }) {
		return
	}

	role := &db.Role{Name: req.Name}
	if err := h.queries.CreateRole(r.Context(), role); err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, WrapError(NewError(http.StatusConflict, "role already exists", err), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "role creation failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	roles, err := h.queries.ListRoles(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list roles", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req AssignRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userRole := &db.UserRole{UserID: req.UserID, RoleID: req.RoleID}
	if err := h.queries.CreateUserRole(r.Context(), userRole); err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, WrapError(NewError(http.StatusConflict, "role already assigned", err), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "role assignment failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, userRole)
}

func (h *Handlers) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	roles, err := h.queries.ListRolesForUser(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list user roles", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

/* Applications */

func (h *Handlers) CreateApplication(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !ValidateAndRespond(w, func() error { return ValidateCreateApplicationRequest(&req) }) {
		return
	}

	app := &db.Application{Name: req.Name, Description: req.Description}
	if err := h.queries.CreateApplication(r.Context(), app); err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, WrapError(NewError(http.StatusConflict, "application already registered", err), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "application creation failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, app)
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	apps, err := h.queries.ListApplications(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list applications", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, apps)
}

/* Access grants */

func (h *Handlers) CreateAccess(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateAccessRequest
	if !decodeBody(w, r, &req) {
		return
	}

	access := &db.Access{UserID: req.UserID, ApplicationID: req.ApplicationID, Active: true}
	if err := h.queries.CreateAccess(r.Context(), access); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "access creation failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, toAccessResponse(access))
}

func (h *Handlers) GetAccess(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	access, err := h.queries.GetAccess(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toAccessResponse(access))
}

func (h *Handlers) ListAccess(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	grants, err := h.queries.ListAccess(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list access grants", err), requestID))
		return
	}
	out := make([]AccessResponse, 0, len(grants))
	for i := range grants {
		out = append(out, toAccessResponse(&grants[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

/* Approver mappings */

func (h *Handlers) CreateReportingMap(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateReportingMapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &db.ReportingMap{ManagerID: req.ManagerID, UserID: req.UserID}
	if err := h.queries.CreateReportingMap(r.Context(), m); err != nil {
		respondMappingError(w, requestID, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListReportingMaps(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	maps, err := h.queries.ListReportingMaps(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list reporting maps", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (h *Handlers) CreateReportingAppMap(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateReportingAppMapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &db.ReportingAppMap{ManagerID: req.ManagerID, AppID: req.AppID}
	if err := h.queries.CreateReportingAppMap(r.Context(), m); err != nil {
		respondMappingError(w, requestID, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListReportingAppMaps(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	maps, err := h.queries.ListReportingAppMaps(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list reporting app maps", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (h *Handlers) CreateAppManagerMap(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateAppMapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &db.AppManagerMap{AppID: req.AppID, UserID: req.UserID}
	if err := h.queries.CreateAppManagerMap(r.Context(), m); err != nil {
		respondMappingError(w, requestID, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListAppManagerMaps(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	maps, err := h.queries.ListAppManagerMaps(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list app manager maps", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (h *Handlers) CreateAppOwnerMap(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateAppMapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &db.AppOwnerMap{AppID: req.AppID, UserID: req.UserID}
	if err := h.queries.CreateAppOwnerMap(r.Context(), m); err != nil {
		respondMappingError(w, requestID, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListAppOwnerMaps(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	maps, err := h.queries.ListAppOwnerMaps(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list app owner maps", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (h *Handlers) CreateBusinessOwnerMap(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateAppMapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &db.BusinessOwnerMap{AppID: req.AppID, UserID: req.UserID}
	if err := h.queries.CreateBusinessOwnerMap(r.Context(), m); err != nil {
		respondMappingError(w, requestID, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListBusinessOwnerMaps(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	maps, err := h.queries.ListBusinessOwnerMaps(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list business owner maps", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

/* Login resolves a business user id to the registered user and their
 * roles. There are no credentials; the directory is the authority. */
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !ValidateAndRespond(w, func() error {
		return validation.ValidateRequired(req.BusinessUserID, "business_user_id")
	}) {
		return
	}

	user, err := h.queries.GetUserByBusinessID(r.Context(), req.BusinessUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, WrapError(NewError(http.StatusNotFound, "unknown business user id", nil), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "login failed", err), requestID))
		return
	}

	roles, err := h.queries.ListRolesForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to resolve roles", err), requestID))
		return
	}
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
	}

	respondJSON(w, http.StatusOK, LoginResponse{User: toUserResponse(user), Roles: roleNames})
}

func respondMappingError(w http.ResponseWriter, requestID string, err error) {
	if db.IsUniqueViolation(err) {
		respondError(w, WrapError(NewError(http.StatusConflict, "mapping already exists", err), requestID))
		return
	}
	respondError(w, WrapError(NewError(http.StatusInternalServerError, "mapping creation failed", err), requestID))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Code, response)
}
