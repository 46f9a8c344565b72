// cmd/root.go

package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/morselabs/wpsnap/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RootCmd is the base command for wpsnap.
var RootCmd = &cobra.Command{
	Use:   "wpsnap",
	Short: "Snapshot and restore WordPress sites across local and SSH-reachable hosts",
	Long: `wpsnap takes a snapshot of a WordPress website, local or remote, and stores
it as a single self-describing archive that can later be restored. It
orchestrates rsync, tar, ssh, wp-cli and mysqldump; those tools must be
installed where they run.

Addresses are either plain paths (/var/www/site) or SSH endpoints
(deploy@web1.example.com:/var/www/site).`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(restoreCmd)
}

// initConfig loads optional defaults: a .env file in the working directory,
// then ~/.wpsnap.yaml, then WPSNAP_* environment variables. Flags win.
func initConfig() {
	_ = godotenv.Load()

	viper.SetConfigName(".wpsnap")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("wpsnap")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if log := logger.L(); log != nil {
			log.Debug("Loaded configuration file", zap.String("file", viper.ConfigFileUsed()))
		}
	}
}
