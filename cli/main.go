/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for reviewctl
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/ipamc/accessreview/cli/cmd"
)

func main() {
	cmd.Execute()
}
