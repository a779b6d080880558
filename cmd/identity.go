package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/PolarWolf314/kahu/internal/workflows"
	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Unlock or create your account identity",
	Long: `Unlocks the account's key pair with your passphrase.

The wrapped key pair is looked up in the local cache, then in the record
store. If neither has one, a new 3072-bit key pair is generated and stored
wrapped under your passphrase in both places.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting identity command")
		a, err := openApp(cmd.Context())
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		res, err := a.unlock(cmd.Context())
		if err != nil {
			return report(cmd, err)
		}

		verb := "unlocked"
		if res.Source == workflows.SourceGenerated {
			verb = "created"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Tick()+" Identity "+verb+" "+ui.Muted.Sprint("from "+string(res.Source)))
		fmt.Fprintf(out, "  %-13s %s\n", "Account:", ui.ID.Sprint(res.Account.ID))
		fmt.Fprintf(out, "  %-13s %s\n", "Fingerprint:", fingerprint(res.Account.Identity.PublicKeyB64))
		return nil
	},
}

// fingerprint is a short digest of the exported public key.
func fingerprint(publicKeyB64 string) string {
	sum := sha256.Sum256([]byte(publicKeyB64))
	return hex.EncodeToString(sum[:8])
}
