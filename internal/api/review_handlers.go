/*-------------------------------------------------------------------------
 *
 * review_handlers.go
 *    API handlers for review cycles and stage actions
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/review_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ipamc/accessreview/internal/review"
	"github.com/ipamc/accessreview/internal/validation"
)

/* StartCycle creates a review cycle snapshotting all active grants */
func (h *Handlers) StartCycle(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	quarter := r.URL.Query().Get("quarter")
	if quarter == "" {
		var req struct {
			Quarter string `json:"quarter"`
		}
		if r.ContentLength > 0 && !decodeBody(w, r, &req) {
			return
		}
		quarter = req.Quarter
	}

	cycle, err := h.engine.StartCycle(r.Context(), quarter)
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}
	respondJSON(w, http.StatusCreated, StartCycleResponse{
		CycleID: cycle.ID,
		Quarter: cycle.Quarter,
		Status:  cycle.Status,
	})
}

func (h *Handlers) ListCycles(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	cycles, err := h.engine.ListCycles(r.Context())
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}
	out := make([]CycleResponse, 0, len(cycles))
	for i := range cycles {
		out = append(out, toCycleResponse(&cycles[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

/* ListReviewItems returns all items in a cycle given by ?cycle_id= */
func (h *Handlers) ListReviewItems(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	cycleID, ok := queryUUID(w, r, "cycle_id")
	if !ok {
		return
	}
	items, err := h.engine.ListItems(r.Context(), cycleID)
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toReviewItemResponses(items))
}

/* ListStageItems returns the items pending on one approver at the stage
 * named in the path. */
func (h *Handlers) ListStageItems(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	cycleID, ok := queryUUID(w, r, "cycle_id")
	if !ok {
		return
	}
	userID, ok := queryUUID(w, r, "user_id")
	if !ok {
		return
	}

	items, err := h.engine.ListItemsForStage(r.Context(), cycleID, userID, stage)
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toReviewItemResponses(items))
}

/* SubmitStageAction records an approver decision at the stage named in
 * the path and advances the item. */
func (h *Handlers) SubmitStageAction(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	stage, ok := pathStage(w, r)
	if !ok {
		return
	}

	var req StageActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !ValidateAndRespond(w, func() error { return ValidateStageActionRequest(&req) }) {
		return
	}

	outcome, err := h.engine.SubmitStageAction(r.Context(), stage, review.StageActionInput{
		ReviewItemID: req.ReviewItemID,
		ActorUserID:  req.ActorUserID,
		Action:       req.Action,
		Comment:      req.Comment,
	})
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}

	resp := StageActionResponse{Item: toReviewItemResponse(outcome.Item)}
	if outcome.Applied != nil {
		applied := toAuditLogResponse(outcome.Applied)
		resp.Applied = &applied
	}
	respondJSON(w, http.StatusOK, resp)
}

/* GetItemTrail returns a review item with its full approval history and
 * audit log. */
func (h *Handlers) GetItemTrail(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	itemID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	trail, err := h.engine.GetItemTrail(r.Context(), itemID)
	if err != nil {
		respondError(w, mapReviewError(err, requestID))
		return
	}

	resp := ItemTrailResponse{
		Item:    toReviewItemResponse(trail.Item),
		History: make([]ApprovalHistoryResponse, 0, len(trail.History)),
		Audit:   make([]AuditLogResponse, 0, len(trail.Audit)),
	}
	for i := range trail.History {
		row := &trail.History[i]
		resp.History = append(resp.History, ApprovalHistoryResponse{
			ID:        row.ID,
			Stage:     row.Stage,
			Action:    row.Action,
			Comment:   row.Comment,
			Timestamp: row.Timestamp,
		})
	}
	for i := range trail.Audit {
		resp.Audit = append(resp.Audit, toAuditLogResponse(&trail.Audit[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func pathStage(w http.ResponseWriter, r *http.Request) (review.StageRole, bool) {
	requestID := GetRequestID(r.Context())
	stage, err := review.ParseStageRole(mux.Vars(r)["stage"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid review stage", err), requestID))
		return "", false
	}
	return stage, true
}

func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	requestID := GetRequestID(r.Context())
	raw := r.URL.Query().Get(name)
	if err := validation.ValidateUUIDRequired(raw, name); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid "+name, err), requestID))
		return uuid.Nil, false
	}
	id, _ := uuid.Parse(raw)
	return id, true
}
