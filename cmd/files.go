package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/spf13/cobra"
)

var (
	filesJSON      bool
	downloadOutput string
	downloadForce  bool
)

func init() {
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", ".", "directory to write the file to")
	downloadCmd.Flags().BoolVarP(&downloadForce, "force", "f", false, "overwrite an existing file")
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List your uploaded files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting files command")
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

		files, err := a.client.ListFiles(ctx, res.Account)
		if err != nil {
			return report(cmd, err)
		}

		out := cmd.OutOrStdout()
		if filesJSON {
			data, err := json.MarshalIndent(files, "", "  ")
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(files) == 0 {
			fmt.Fprintln(out, "No files. Upload one with "+ui.Code.Sprint("kahu upload <path>"))
			return nil
		}
		now := a.client.Now()
		for _, f := range files {
			name := f.Name
			if name == "" {
				name = ui.Error.Sprint("<undecryptable name>")
			}
			details := ui.Bytes(f.Size) + ", " + ui.Expiry(f.ExpireAt, now)
			if f.ShareID != "" {
				details += ", shared"
			}
			fmt.Fprintf(out, "%s  %s %s\n", ui.ID.Sprint(f.ID), name, ui.Muted.Sprint(details))
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <file-id>",
	Short: "Download and decrypt one of your files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting download command")
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

		spinner, cleanup := startSpinner(cmd, "Downloading and decrypting...")
		defer cleanup()

		got, err := a.client.Download(ctx, res.Account, args[0])
		if err != nil {
			return fail(spinner, err)
		}
		path, err := writeDecrypted(downloadOutput, got.Name, got.Data, downloadForce)
		if err != nil {
			return fail(spinner, err)
		}
		spinner.FinalMSG = ui.Tick() + " Saved " + ui.Path.Sprint(path) + " " + ui.Muted.Sprint(ui.Bytes(int64(len(got.Data))))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete one of your files and its share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rm command")
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return report(cmd, err)
		}
		defer a.Close()

		spinner, cleanup := startSpinner(cmd, "Deleting...")
		defer cleanup()

		if err := a.client.DeleteFile(ctx, a.cfg.Account.ID, args[0]); err != nil {
			return fail(spinner, err)
		}
		spinner.FinalMSG = ui.Tick() + " Deleted " + ui.ID.Sprint(args[0])
		return nil
	},
}

// writeDecrypted writes data into dir under the base of name. Names come from
// decrypted ciphertext, so path elements are stripped.
func writeDecrypted(dir, name string, data []byte, force bool) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", fmt.Errorf("refusing to write unsafe file name %q", name)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, base)

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
