/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the access review API
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Cycle struct {
	ID        string `json:"id"`
	CycleID   string `json:"cycle_id,omitempty"`
	Quarter   string `json:"quarter"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ReviewItem struct {
	ID           string  `json:"id"`
	CycleID      string  `json:"cycle_id"`
	AccessID     string  `json:"access_id"`
	PendingStage string  `json:"pending_stage"`
	FinalStatus  *string `json:"final_status,omitempty"`
}

type AuditEntry struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	AppliedBy string  `json:"applied_by"`
	AppliedAt string  `json:"applied_at"`
	Details   *string `json:"details,omitempty"`
}

type HistoryEntry struct {
	ID        string  `json:"id"`
	Stage     string  `json:"stage"`
	Action    string  `json:"action"`
	Comment   *string `json:"comment,omitempty"`
	Timestamp string  `json:"timestamp"`
}

type ActionOutcome struct {
	Item    ReviewItem  `json:"item"`
	Applied *AuditEntry `json:"applied,omitempty"`
}

type ItemTrail struct {
	Item    ReviewItem     `json:"item"`
	History []HistoryEntry `json:"history"`
	Audit   []AuditEntry   `json:"audit"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) StartCycle(quarter string) (*Cycle, error) {
	path := "/api/v1/review/start-cycle?quarter=" + url.QueryEscape(quarter)
	resp, err := c.makeRequest("POST", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cycle Cycle
	if err := json.NewDecoder(resp.Body).Decode(&cycle); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &cycle, nil
}

func (c *Client) ListCycles() ([]Cycle, error) {
	resp, err := c.makeRequest("GET", "/api/v1/review/cycles", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cycles []Cycle
	if err := json.NewDecoder(resp.Body).Decode(&cycles); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return cycles, nil
}

func (c *Client) ListItems(cycleID string) ([]ReviewItem, error) {
	path := "/api/v1/review/items?cycle_id=" + url.QueryEscape(cycleID)
	resp, err := c.makeRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []ReviewItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return items, nil
}

func (c *Client) ListStageItems(stage, cycleID, userID string) ([]ReviewItem, error) {
	path := fmt.Sprintf("/api/v1/review/%s/items?cycle_id=%s&user_id=%s",
		url.PathEscape(stage), url.QueryEscape(cycleID), url.QueryEscape(userID))
	resp, err := c.makeRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []ReviewItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return items, nil
}

func (c *Client) SubmitAction(stage, itemID, actorID, action, comment string) (*ActionOutcome, error) {
	reqBody := map[string]interface{}{
		"review_item_id": itemID,
		"actor_user_id":  actorID,
		"action":         action,
	}
	if comment != "" {
		reqBody["comment"] = comment
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/api/v1/review/%s/action", url.PathEscape(stage))
	resp, err := c.makeRequest("POST", path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var outcome ActionOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &outcome, nil
}

func (c *Client) GetTrail(itemID string) (*ItemTrail, error) {
	path := fmt.Sprintf("/api/v1/review/items/%s/trail", url.PathEscape(itemID))
	resp, err := c.makeRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var trail ItemTrail
	if err := json.NewDecoder(resp.Body).Decode(&trail); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &trail, nil
}

func (c *Client) makeRequest(method, path string, body io.Reader) (*http.Response, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequest(method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
