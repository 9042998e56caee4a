package commands

import (
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloudconsole",
	Short: "Cloud account management console",
	Long: `A server-rendered console for managing cloud account connections.

Records are edited through schema-driven dialogs that run as server-side
sessions, driven by HTML forms, a JSON API or a websocket.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./cloudconsole.yaml)")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
