// Package commands implements the CLI commands for the sshauth demo.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sshauth-demo",
	Short: "Exercise the sshauth user-authentication driver against a test server",
	Long: `sshauth-demo drives userauth.Driver end-to-end over a framed TCP
connection. It does not perform a real SSH key exchange; pair it with
"sshauth-demo serve" for a matching counterpart that speaks the same
framing and answers authentication requests.

Use "sshauth-demo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sshauth-demo.yaml)")
	rootCmd.PersistentFlags().String("addr", "127.0.0.1:2289", "address of the demo server")
	viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".sshauth-demo")
		}
	}

	viper.SetEnvPrefix("SSHAUTH_DEMO")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}
