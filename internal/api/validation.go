/*-------------------------------------------------------------------------
 *
 * validation.go
 *    Request validation for the access review API
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/validation.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/validation"
)

/* Internal employees carry IPAMC ids, external contractors EXTA ids. */
var businessUserIDRegex = regexp.MustCompile(`^(IPAMC|EXTA)\d+$`)

/* ValidateCreateUserRequest validates a user registration request */
func ValidateCreateUserRequest(req *CreateUserRequest) error {
	if err := validation.ValidateRequired(req.BusinessUserID, "business_user_id"); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(req.BusinessUserID, "business_user_id", 100); err != nil {
		return err
	}
	if !businessUserIDRegex.MatchString(req.BusinessUserID) {
		return fmt.Errorf("business_user_id must be IPAMC or EXTA followed by digits, e.g. IPAMC20")
	}
	if err := validation.ValidateRequired(req.Name, "name"); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(req.Name, "name", 200); err != nil {
		return err
	}
	return validation.ValidateEmail(req.Email, "email")
}

/* ValidateCreateApplicationRequest validates an application registration */
func ValidateCreateApplicationRequest(req *CreateApplicationRequest) error {
	if err := validation.ValidateRequired(req.Name, "name"); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(req.Name, "name", 200); err != nil {
		return err
	}
	if req.Description != nil {
		return validation.ValidateMaxLength(*req.Description, "description", 1000)
	}
	return nil
}

/* ValidateStageActionRequest validates a stage action submission */
func ValidateStageActionRequest(req *StageActionRequest) error {
	if req.ReviewItemID == uuid.Nil {
		return fmt.Errorf("review_item_id is required")
	}
	if req.ActorUserID == uuid.Nil {
		return fmt.Errorf("actor_user_id is required")
	}
	if err := validation.ValidateRequired(req.Action, "action"); err != nil {
		return err
	}
	return validation.ValidateMaxLength(req.Comment, "comment", 2000)
}

/* ValidateAndRespond validates a request and responds with error if invalid */
func ValidateAndRespond(w http.ResponseWriter, validator func() error) bool {
	if err := validator(); err != nil {
		respondError(w, NewError(http.StatusBadRequest, "validation failed", err))
		return false
	}
	return true
}
