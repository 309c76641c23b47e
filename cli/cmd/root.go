/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for reviewctl
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
)

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "Access review CLI - run and work review cycles",
	Long: `reviewctl drives the access review workflow from the command line.

Examples:
  # Start a quarterly review cycle
  reviewctl start-cycle 2026-Q1

  # List cycles
  reviewctl cycles

  # List the items in a cycle
  reviewctl items <cycle-id>

  # List items waiting on an approver at a stage
  reviewctl pending app_manager --cycle <cycle-id> --user <user-id>

  # Submit a stage decision
  reviewctl action app_manager --item <item-id> --actor <user-id> --do approve

  # Show an item's approval history and audit log
  reviewctl trail <item-id>
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("REVIEW_API_URL", "http://localhost:8080"), "Access review API URL")

	rootCmd.AddCommand(startCycleCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(trailCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
