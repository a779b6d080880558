package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation (comma-separated)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local audit log",
	Long: `Displays the operations this machine performed, oldest first.

Examples:
  kahu log -n 10 --reverse
  kahu log --operation share,share-download
  kahu log --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")
		_, paths, _, err := loadConfig()
		if err != nil {
			return report(cmd, err)
		}

		entries, err := audit.ReadEntries(paths.AuditFile())
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read audit log: %v", err)
		}

		if logOperation != "" {
			ops := strings.Split(logOperation, ",")
			entries = audit.Filter(entries, func(e audit.Entry) bool {
				return slices.Contains(ops, e.Operation)
			})
		}
		if logReverse {
			slices.Reverse(entries)
		}
		if logLimit > 0 && len(entries) > logLimit {
			if logReverse {
				entries = entries[:logLimit]
			} else {
				entries = entries[len(entries)-logLimit:]
			}
		}

		out := cmd.OutOrStdout()
		if logJSON {
			if entries == nil {
				entries = []audit.Entry{}
			}
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No audit log entries found.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-15s %s\n", ui.Muted.Sprint(e.Timestamp), e.Operation, summarize(e))
		}
		return nil
	},
}

func summarize(e audit.Entry) string {
	var parts []string
	if e.Account != "" {
		parts = append(parts, "account="+e.Account)
	}
	if len(e.FileIDs) > 0 {
		parts = append(parts, "files="+strings.Join(e.FileIDs, ","))
	}
	if e.ShareID != "" {
		parts = append(parts, "share="+e.ShareID)
	}
	if e.Origin != "" {
		parts = append(parts, "origin="+e.Origin)
	}
	if e.Bytes > 0 {
		parts = append(parts, "bytes="+ui.Bytes(e.Bytes))
	}
	if e.Downloads > 0 {
		parts = append(parts, fmt.Sprintf("downloads=%d", e.Downloads))
	}
	if e.RemovedCount > 0 {
		parts = append(parts, fmt.Sprintf("removed=%d", e.RemovedCount))
	}
	if e.Created {
		parts = append(parts, "created")
	}
	return strings.Join(parts, " ")
}
