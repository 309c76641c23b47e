/*-------------------------------------------------------------------------
 *
 * review.go
 *    Review workflow commands for reviewctl
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/cli/cmd/review.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ipamc/accessreview/cli/pkg/client"
)

var (
	startCycleCmd = &cobra.Command{
		Use:   "start-cycle [quarter]",
		Short: "Start a review cycle for a quarter",
		Args:  cobra.ExactArgs(1),
		RunE:  startCycle,
	}

	cyclesCmd = &cobra.Command{
		Use:   "cycles",
		Short: "List review cycles",
		RunE:  listCycles,
	}

	itemsCmd = &cobra.Command{
		Use:   "items [cycle-id]",
		Short: "List the review items in a cycle",
		Args:  cobra.ExactArgs(1),
		RunE:  listItems,
	}

	pendingCmd = &cobra.Command{
		Use:   "pending [stage]",
		Short: "List items waiting on an approver at a stage",
		Args:  cobra.ExactArgs(1),
		RunE:  listPending,
	}

	actionCmd = &cobra.Command{
		Use:   "action [stage]",
		Short: "Submit a stage decision",
		Args:  cobra.ExactArgs(1),
		RunE:  submitAction,
	}

	trailCmd = &cobra.Command{
		Use:   "trail [item-id]",
		Short: "Show an item's approval history and audit log",
		Args:  cobra.ExactArgs(1),
		RunE:  showTrail,
	}

	pendingCycleID string
	pendingUserID  string
	actionItemID   string
	actionActorID  string
	actionName     string
	actionComment  string
)

func init() {
	pendingCmd.Flags().StringVar(&pendingCycleID, "cycle", "", "Review cycle ID")
	pendingCmd.Flags().StringVar(&pendingUserID, "user", "", "Approver user ID")
	pendingCmd.MarkFlagRequired("cycle")
	pendingCmd.MarkFlagRequired("user")

	actionCmd.Flags().StringVar(&actionItemID, "item", "", "Review item ID")
	actionCmd.Flags().StringVar(&actionActorID, "actor", "", "Acting approver user ID")
	actionCmd.Flags().StringVar(&actionName, "do", "", "Action (approve, reject, revoke, retain, modify)")
	actionCmd.Flags().StringVar(&actionComment, "comment", "", "Optional comment")
	actionCmd.MarkFlagRequired("item")
	actionCmd.MarkFlagRequired("actor")
	actionCmd.MarkFlagRequired("do")
}

func startCycle(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	cycle, err := apiClient.StartCycle(args[0])
	if err != nil {
		return fmt.Errorf("failed to start cycle: %w", err)
	}

	id := cycle.CycleID
	if id == "" {
		id = cycle.ID
	}
	fmt.Printf("Started cycle %s (%s, %s)\n", id, cycle.Quarter, cycle.Status)
	return nil
}

func listCycles(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	cycles, err := apiClient.ListCycles()
	if err != nil {
		return fmt.Errorf("failed to list cycles: %w", err)
	}

	if len(cycles) == 0 {
		fmt.Println("No cycles found")
		return nil
	}

	fmt.Println("\nReview cycles:")
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, cycle := range cycles {
		fmt.Printf("  %-36s %-10s %s\n", cycle.ID, cycle.Quarter, cycle.Status)
	}
	fmt.Println()

	return nil
}

func listItems(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	items, err := apiClient.ListItems(args[0])
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	printItems(items)
	return nil
}

func listPending(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	items, err := apiClient.ListStageItems(args[0], pendingCycleID, pendingUserID)
	if err != nil {
		return fmt.Errorf("failed to list pending items: %w", err)
	}

	printItems(items)
	return nil
}

func submitAction(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	outcome, err := apiClient.SubmitAction(args[0], actionItemID, actionActorID, actionName, actionComment)
	if err != nil {
		return fmt.Errorf("failed to submit action: %w", err)
	}

	fmt.Printf("Item %s is now at stage %s\n", outcome.Item.ID, outcome.Item.PendingStage)
	if outcome.Item.FinalStatus != nil {
		fmt.Printf("Final status: %s\n", *outcome.Item.FinalStatus)
	}
	if outcome.Applied != nil {
		fmt.Printf("Disposition: %s\n", outcome.Applied.Action)
	}
	return nil
}

func showTrail(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	trail, err := apiClient.GetTrail(args[0])
	if err != nil {
		return fmt.Errorf("failed to get trail: %w", err)
	}

	fmt.Printf("\nReview item %s (stage: %s)\n", trail.Item.ID, trail.Item.PendingStage)
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Println("Approval history:")
	for _, h := range trail.History {
		comment := ""
		if h.Comment != nil {
			comment = "  " + *h.Comment
		}
		fmt.Printf("  %-20s %-15s %s%s\n", h.Stage, h.Action, h.Timestamp, comment)
	}
	fmt.Println("Audit log:")
	for _, a := range trail.Audit {
		fmt.Printf("  %-25s by %s at %s\n", a.Action, a.AppliedBy, a.AppliedAt)
	}
	fmt.Println()

	return nil
}

func printItems(items []client.ReviewItem) {
	if len(items) == 0 {
		fmt.Println("No review items found")
		return
	}

	fmt.Println("\nReview items:")
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, item := range items {
		status := item.PendingStage
		if item.FinalStatus != nil {
			status = fmt.Sprintf("%s (%s)", item.PendingStage, *item.FinalStatus)
		}
		fmt.Printf("  %-36s access=%s %s\n", item.ID, item.AccessID, status)
	}
	fmt.Println()
}
