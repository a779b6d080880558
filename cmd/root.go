package cmd

import (
	"errors"
	"fmt"
	"os"

	logger "github.com/PolarWolf314/kahu/internal/logging"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	debug      bool
	configPath string
	Logger     logger.Logger

	RootCmd = &cobra.Command{
		Use:   "kahu",
		Short: "Kahu - end-to-end encrypted file sharing",
		Long: `Kahu encrypts files on your machine before they are uploaded. The storage
service only ever holds ciphertext, wrapped keys and encrypted filenames.

Files are encrypted under a fresh key each, wrapped with your account's
public key. Shares re-encrypt a file under a passphrase you give to the
recipient, and are limited in downloads and lifetime.

Examples:
  kahu config init --backend minio --endpoint localhost:9000 --bucket kahu
  kahu upload report.pdf 'photos/**/*.jpg'
  kahu share <file-id> --max-downloads 3
  kahu fetch <share-id> -o ~/Downloads`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.ErrOrStderr(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/kahu/config.toml)")

	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(identityCmd)
	RootCmd.AddCommand(uploadCmd)
	RootCmd.AddCommand(filesCmd)
	RootCmd.AddCommand(downloadCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(shareCmd)
	RootCmd.AddCommand(sharesCmd)
	RootCmd.AddCommand(unshareCmd)
	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(tryCmd)
	RootCmd.AddCommand(sweepCmd)
	RootCmd.AddCommand(usageCmd)
	RootCmd.AddCommand(logCmd)
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}
	var r *reportedError
	if !errors.As(err, &r) {
		fmt.Fprintln(os.Stderr, ui.Cross()+" "+err.Error())
	}
	return 1
}

// ResetGlobalState resets flags between in-process runs of RootCmd.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	resetCommandFlags(RootCmd)
}

func resetCommandFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCommandFlags(sub)
	}
}
