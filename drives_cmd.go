package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// namedDrive is one row of `drives` output: a remote drive plus whether
// it's among the configured Drives names.
type namedDrive struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

func newDrivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List drives visible at the configured site, marking which are selected",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd)

			gw := newGatewayClient(cc)

			remote, err := gw.ListDrives(cmd.Context(), cc.Cfg.SiteID)
			if err != nil {
				return fmt.Errorf("listing drives: %w", err)
			}

			wanted := make(map[string]bool, len(cc.Cfg.Drives))
			for _, name := range cc.Cfg.Drives {
				wanted[name] = true
			}

			rows := make([]namedDrive, 0, len(remote))
			for _, d := range remote {
				rows = append(rows, namedDrive{Name: d.Name, Selected: wanted[d.Name]})
			}

			return printDrives(cc, rows)
		},
	}
}

func printDrives(cc *CLIContext, rows []namedDrive) error {
	if cc.JSON || !isatty.IsTerminal(os.Stdout.Fd()) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rows)
	}

	headers := []string{"DRIVE", "SELECTED"}
	tableRows := make([][]string, 0, len(rows))

	for _, r := range rows {
		selected := "no"
		if r.Selected {
			selected = "yes"
		}

		tableRows = append(tableRows, []string{r.Name, selected})
	}

	printTable(os.Stdout, headers, tableRows)

	return nil
}
