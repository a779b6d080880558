package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/PolarWolf314/kahu/internal/workflows"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path|glob>...",
	Short: "Encrypt and upload files",
	Long: `Encrypts each file under its own key and uploads it. Names are encrypted
too. Directories are walked recursively and globs support **.

Uploads count toward the daily file and byte limits; a batch that would
exceed them is rejected as a whole.

Examples:
  kahu upload report.pdf
  kahu upload 'photos/**/*.jpg' notes/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting upload command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		res, err := a.unlock(ctx)
		if err != nil {
			return report(cmd, err)
		}

		wd, err := os.Getwd()
		if err != nil {
			return report(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Encrypting and uploading...")
		defer cleanup()

		up, err := a.client.Upload(ctx, workflows.UploadOptions{
			Account:  res.Account,
			Patterns: args,
			BaseDir:  wd,
		})
		if up == nil || len(up.Files) == 0 {
			if err == nil {
				err = fmt.Errorf("nothing was uploaded")
			}
			return fail(spinner, err)
		}

		now := a.client.Now()
		var b strings.Builder
		b.WriteString(ui.Tick() + fmt.Sprintf(" Uploaded %d file(s)\n", len(up.Files)))
		for _, f := range up.Files {
			fmt.Fprintf(&b, "  %s  %s %s\n", ui.ID.Sprint(f.ID), f.Name,
				ui.Muted.Sprint(ui.Bytes(f.Size)+", "+ui.Expiry(f.ExpireAt, now)))
		}
		if err != nil {
			b.WriteString(describe(err))
			spinner.FinalMSG = b.String()
			return &reportedError{err: err}
		}
		b.WriteString(ui.Arrow() + " Share one with " + ui.Code.Sprint("kahu share <file-id>"))
		spinner.FinalMSG = b.String()
		return nil
	},
}
