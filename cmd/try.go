package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/kahu/internal/configs"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/PolarWolf314/kahu/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	tryOrigin       string
	tryMaxDownloads int
)

func init() {
	tryCmd.Flags().StringVar(&tryOrigin, "origin", "", "identifier the daily trial limit is counted against")
	tryCmd.Flags().IntVar(&tryMaxDownloads, "max-downloads", 0, "downloads allowed per share (default from limits.max_downloads)")
	_ = tryCmd.MarkFlagRequired("origin")
}

var tryCmd = &cobra.Command{
	Use:   "try <path|glob>...",
	Short: "Share files without an account identity",
	Long: `Encrypts files directly under a share passphrase, one share per file,
without unlocking an identity. Trial shares are limited per origin per day.

Example:
  KAHU_SHARE_PASSPHRASE=hunter2 kahu try notes.txt --origin 203.0.113.7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting try command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		pass, err := readSecret(configs.EnvSharePassphrase, "Share passphrase: ", true)
		if err != nil {
			return report(cmd, err)
		}
		wd, err := os.Getwd()
		if err != nil {
			return report(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Encrypting trial shares...")
		defer cleanup()

		res, err := a.client.CreateTrialShare(ctx, workflows.TrialOptions{
			Origin:       tryOrigin,
			Patterns:     args,
			BaseDir:      wd,
			Passphrase:   pass,
			MaxDownloads: tryMaxDownloads,
		})
		if res == nil || len(res.Shares) == 0 {
			if err == nil {
				err = fmt.Errorf("nothing was shared")
			}
			return fail(spinner, err)
		}

		var b strings.Builder
		b.WriteString(ui.Tick() + fmt.Sprintf(" Created %d trial share(s)\n", len(res.Shares)))
		for _, s := range res.Shares {
			fmt.Fprintf(&b, "  %s  %s %s\n", ui.ID.Sprint(s.ShareID), s.Name,
				ui.Muted.Sprintf("%s, %d downloads", ui.Bytes(s.Size), s.MaxDownloads))
		}
		if err != nil {
			b.WriteString(describe(err))
			spinner.FinalMSG = b.String()
			return &reportedError{err: err}
		}
		spinner.FinalMSG = strings.TrimRight(b.String(), "\n")
		return nil
	},
}
