package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kahu/internal/configs"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/PolarWolf314/kahu/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	shareMaxDownloads int
	fetchOutput       string
	fetchForce        bool
)

func init() {
	shareCmd.Flags().IntVar(&shareMaxDownloads, "max-downloads", 0, "downloads allowed before the share closes (default from limits.max_downloads)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", ".", "directory to write the file to")
	fetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "overwrite an existing file")
}

var shareCmd = &cobra.Command{
	Use:   "share <file-id>",
	Short: "Share a file under a passphrase",
	Long: `Decrypts one of your files locally and re-encrypts it under a key derived
from a share passphrase. Give the share ID and the passphrase to the
recipient; they run kahu fetch.

A file has at most one active share. The passphrase is read from
KAHU_SHARE_PASSPHRASE when set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting share command")
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
		pass, err := readSecret(configs.EnvSharePassphrase, "Share passphrase: ", true)
		if err != nil {
			return report(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Re-encrypting for sharing...")
		defer cleanup()

		share, err := a.client.CreateShare(ctx, workflows.ShareOptions{
			Account:      res.Account,
			FileID:       args[0],
			Passphrase:   pass,
			MaxDownloads: shareMaxDownloads,
		})
		if err != nil {
			return fail(spinner, err)
		}
		spinner.FinalMSG = ui.Tick() + " Shared " + share.Name + "\n" +
			fmt.Sprintf("  %-10s %s\n", "Share:", ui.ID.Sprint(share.ShareID)) +
			fmt.Sprintf("  %-10s %d\n", "Downloads:", share.MaxDownloads) +
			fmt.Sprintf("  %-10s %s\n", "Lifetime:", ui.Expiry(share.ExpireAt, a.client.Now())) +
			ui.Arrow() + " The recipient runs " + ui.Code.Sprintf("kahu fetch %s", share.ShareID)
		return nil
	},
}

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "List your shares",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting shares command")
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
		shares, err := a.client.ListShares(ctx, res.Account)
		if err != nil {
			return report(cmd, err)
		}

		out := cmd.OutOrStdout()
		if len(shares) == 0 {
			fmt.Fprintln(out, "No shares. Create one with "+ui.Code.Sprint("kahu share <file-id>"))
			return nil
		}
		now := a.client.Now()
		for _, s := range shares {
			name := s.Name
			if name == "" {
				name = ui.Muted.Sprint("source deleted")
			}
			details := fmt.Sprintf("%d/%d downloads, %s", s.DownloadCount, s.MaxDownloads, ui.Expiry(s.ExpireAt, now))
			fmt.Fprintf(out, "%s  %s %s\n", ui.ID.Sprint(s.ShareID), name, ui.Muted.Sprint(details))
		}
		return nil
	},
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <share-id>",
	Short: "Revoke a share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unshare command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		spinner, cleanup := startSpinner(cmd, "Revoking share...")
		defer cleanup()

		if err := a.client.RevokeShare(ctx, a.cfg.Account.ID, args[0]); err != nil {
			return fail(spinner, err)
		}
		spinner.FinalMSG = ui.Tick() + " Revoked " + ui.ID.Sprint(args[0])
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <share-id>",
	Short: "Download a share with its passphrase",
	Long: `Checks the passphrase against the share's access hash, then downloads the
ciphertext and decrypts it with a key derived from the same passphrase.
Each successful fetch uses one of the share's downloads.

The passphrase is read from KAHU_SHARE_PASSPHRASE when set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting fetch command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		pass, err := readSecret(configs.EnvSharePassphrase, "Share passphrase: ", false)
		if err != nil {
			return report(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Fetching share...")
		defer cleanup()

		got, err := a.client.FetchShare(ctx, args[0], pass)
		if err != nil {
			return fail(spinner, err)
		}
		path, err := writeDecrypted(fetchOutput, got.Name, got.Data, fetchForce)
		if err != nil {
			return fail(spinner, err)
		}
		spinner.FinalMSG = ui.Tick() + " Saved " + ui.Path.Sprint(path) + " " + ui.Muted.Sprint(ui.Bytes(int64(len(got.Data))))
		return nil
	},
}
