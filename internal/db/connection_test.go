/*-------------------------------------------------------------------------
 *
 * connection_test.go
 *    Tests for connection string parsing and error classification
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/connection_test.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestParseConnectionInfo(t *testing.T) {
	info := parseConnectionInfo("host=db.internal port=5433 user=review password=secret dbname=accessreview sslmode=disable")
	if info.Host != "db.internal" {
		t.Errorf("host = %s, want db.internal", info.Host)
	}
	if info.Port != 5433 {
		t.Errorf("port = %d, want 5433", info.Port)
	}
	if info.User != "review" {
		t.Errorf("user = %s, want review", info.User)
	}
	if info.Database != "accessreview" {
		t.Errorf("dbname = %s, want accessreview", info.Database)
	}
}

func TestParseConnectionInfoDefaults(t *testing.T) {
	info := parseConnectionInfo("sslmode=disable")
	if info.Host != "unknown" || info.Port != 5432 {
		t.Errorf("missing fields should fall back to defaults, got %+v", info)
	}
}

func TestFormatConnectionInfoOmitsPassword(t *testing.T) {
	info := parseConnectionInfo("host=db port=5432 user=review password=secret dbname=accessreview")
	formatted := formatConnectionInfo(info)
	if formatted != "db:5432/accessreview (user=review)" {
		t.Errorf("formatted = %q", formatted)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pq.Error{Code: "23505"}
	if !IsUniqueViolation(uniqueErr) {
		t.Errorf("code 23505 should classify as unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("insert failed: %w", uniqueErr)) {
		t.Errorf("wrapped unique violations should classify")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Errorf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(fmt.Errorf("plain error")) {
		t.Errorf("unrelated errors must not classify")
	}
}
