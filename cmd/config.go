package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/kahu/internal/configs"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configInitBackend  string
	configInitEndpoint string
	configInitBucket   string
	configInitRegion   string
	configInitUseSSL   bool
	configShowJSON     bool

	// ConfigCmd is the top-level config command.
	ConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage kahu configuration",
		Long: `Provides commands for managing the kahu configuration file.

Storage credentials are read from KAHU_STORAGE_ACCESS_KEY and
KAHU_STORAGE_SECRET_KEY and are not written to the file.

Examples:
  # Create a configuration with a new account ID
  kahu config init --endpoint localhost:9000 --bucket kahu

  # Show the effective configuration
  kahu config show --json`,
	}
)

func init() {
	configInitCmd.Flags().StringVar(&configInitBackend, "backend", "", "object storage backend (minio or memory)")
	configInitCmd.Flags().StringVar(&configInitEndpoint, "endpoint", "", "object storage endpoint, host:port")
	configInitCmd.Flags().StringVar(&configInitBucket, "bucket", "", "object storage bucket")
	configInitCmd.Flags().StringVar(&configInitRegion, "region", "", "object storage region")
	configInitCmd.Flags().BoolVar(&configInitUseSSL, "use-ssl", false, "use TLS to reach the endpoint")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the configuration and account ID",
	Long: `Writes the configuration file, assigning a new account ID if there is none.

Running init again keeps the account ID and updates only the settings given
as flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")
		cfg, _, path, err := loadConfig()
		if err != nil {
			return report(cmd, err)
		}

		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.Storage.Backend = configInitBackend
		}
		if flags.Changed("endpoint") {
			cfg.Storage.Endpoint = configInitEndpoint
		}
		if flags.Changed("bucket") {
			cfg.Storage.Bucket = configInitBucket
		}
		if flags.Changed("region") {
			cfg.Storage.Region = configInitRegion
		}
		if flags.Changed("use-ssl") {
			cfg.Storage.UseSSL = configInitUseSSL
		}

		created := cfg.EnsureAccountID()
		if created {
			Logger.Infof("Assigned new account ID %s", cfg.Account.ID)
		}

		Logger.Debugf("Saving config to %s", path)
		if err := configs.Save(path, cfg); err != nil {
			return Logger.ErrorfAndReturn("Failed to save config: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Tick()+" Configuration written to "+ui.Path.Sprint(path))
		if created {
			fmt.Fprintln(out, "  Account: "+ui.ID.Sprint(cfg.Account.ID))
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(out, ui.Alert()+" "+err.Error())
		} else {
			fmt.Fprintln(out, ui.Arrow()+" Run "+ui.Code.Sprint("kahu identity")+" to set your passphrase")
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")
		cfg, _, path, err := loadConfig()
		if err != nil {
			return report(cmd, err)
		}

		shown := *cfg
		shown.Storage.AccessKey = mask(shown.Storage.AccessKey)
		shown.Storage.SecretKey = mask(shown.Storage.SecretKey)

		out := cmd.OutOrStdout()
		if configShowJSON {
			data, err := json.MarshalIndent(shown, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if _, err := os.Stat(path); err != nil {
			fmt.Fprintln(out, ui.Alert()+" No configuration file at "+ui.Path.Sprint(path)+"; showing defaults")
			fmt.Fprintln(out)
		}

		l := shown.Limits
		fmt.Fprintln(out, ui.Info.Sprint("Configuration")+" ("+path+"):")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-16s %s\n", "Account:", ui.ID.Sprint(orUnset(shown.Account.ID)))
		fmt.Fprintf(out, "  %-16s %s\n", "Backend:", shown.Storage.Backend)
		fmt.Fprintf(out, "  %-16s %s\n", "Endpoint:", orUnset(shown.Storage.Endpoint))
		fmt.Fprintf(out, "  %-16s %s\n", "Bucket:", orUnset(shown.Storage.Bucket))
		fmt.Fprintf(out, "  %-16s %s\n", "Access key:", orUnset(shown.Storage.AccessKey))
		fmt.Fprintf(out, "  %-16s %s\n", "Database:", ui.Path.Sprint(shown.Database.Path))
		fmt.Fprintf(out, "  %-16s %s\n", "Cache:", ui.Path.Sprint(shown.Cache.Path))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-16s %d files, %s\n", "Daily uploads:", l.MaxFilesPerDay, ui.Bytes(l.MaxBytesPerDay))
		fmt.Fprintf(out, "  %-16s %d\n", "Daily shares:", l.MaxSharesPerDay)
		fmt.Fprintf(out, "  %-16s %d files, %s\n", "Daily trials:", l.TrialMaxFilesPerDay, ui.Bytes(l.TrialMaxBytesPerDay))
		fmt.Fprintf(out, "  %-16s files %s, shares %s, %d downloads\n", "Lifetime:", l.FileTTL, l.ShareTTL, l.MaxDownloads)
		return nil
	},
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

func orUnset(v string) string {
	if v == "" {
		return ui.Muted.Sprint("not set")
	}
	return v
}
