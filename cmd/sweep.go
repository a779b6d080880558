package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired files and shares",
	Long: `Deletes every expired file and share record together with its stored
object. Items that fail are left for the next sweep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting sweep command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		spinner, cleanup := startSpinner(cmd, "Sweeping expired items...")
		defer cleanup()

		res, err := a.client.Sweep(ctx)
		if res == nil {
			return fail(spinner, err)
		}
		msg := ui.Tick() + fmt.Sprintf(" Removed %d file(s) and %d share(s)", res.Files, res.Shares)
		if err != nil {
			spinner.FinalMSG = msg + "\n" + describe(err)
			return &reportedError{err: err}
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's usage against the daily limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting usage command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		u, err := a.client.Usage(ctx, a.cfg.Account.ID)
		if err != nil {
			return report(cmd, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %-8s %d of %d\n", "Files:", u.Files, u.MaxFiles)
		fmt.Fprintf(out, "  %-8s %s of %s\n", "Bytes:", ui.Bytes(u.Bytes), ui.Bytes(u.MaxBytes))
		fmt.Fprintf(out, "  %-8s %d of %d\n", "Shares:", u.Shares, u.MaxShares)
		fmt.Fprintln(out, ui.Muted.Sprint("resets "+u.ResetsAt.Local().Format("Mon 15:04")))
		return nil
	},
}
