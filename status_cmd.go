package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/driveloom/mirror/internal/mirror"
)

// driveStatus is one row of `status` output, in both table and JSON form.
type driveStatus struct {
	DriveID        string `json:"drive_id"`
	DriveName      string `json:"drive_name"`
	PendingCount   int    `json:"pending_count"`
	PendingBytes   int64  `json:"pending_bytes"`
	InterruptedRun bool   `json:"interrupted_run"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show drives with an interrupted or in-progress run, per the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd)

			return runStatus(cmd.Context(), cc)
		},
	}
}

func runStatus(ctx context.Context, cc *CLIContext) error {
	ledgerPath := filepath.Join(cc.Cfg.LocalRoot, ledgerFileName)

	ledger, err := mirror.OpenRunLedger(ctx, ledgerPath, cc.Logger)
	if err != nil {
		return fmt.Errorf("opening run ledger: %w", err)
	}
	defer ledger.Close()

	active, err := ledger.ListActiveDrives(ctx)
	if err != nil {
		return fmt.Errorf("listing active drives: %w", err)
	}

	rows := make([]driveStatus, 0, len(active))

	for _, d := range active {
		pending, err := ledger.LoadPending(ctx, d.DriveID)
		if err != nil {
			return fmt.Errorf("loading pending entries for %s: %w", d.DriveName, err)
		}

		var pendingBytes int64
		for _, p := range pending {
			pendingBytes += p.Item.Size
		}

		rows = append(rows, driveStatus{
			DriveID:        d.DriveID,
			DriveName:      d.DriveName,
			PendingCount:   len(pending),
			PendingBytes:   pendingBytes,
			InterruptedRun: true,
		})
	}

	return printStatus(cc, rows)
}

// printStatus renders as JSON if --json was passed or stdout isn't a TTY,
// otherwise as an aligned table.
func printStatus(cc *CLIContext, rows []driveStatus) error {
	if cc.JSON || !isatty.IsTerminal(os.Stdout.Fd()) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no interrupted runs — every drive's last sync completed cleanly")

		return nil
	}

	headers := []string{"DRIVE", "PENDING", "SIZE", "STATE"}
	tableRows := make([][]string, 0, len(rows))

	for _, r := range rows {
		tableRows = append(tableRows, []string{r.DriveName, fmt.Sprintf("%d", r.PendingCount), formatSize(r.PendingBytes), "interrupted"})
	}

	printTable(os.Stdout, headers, tableRows)

	return nil
}
