// Package commands implements the CLI commands for htmlmin.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "htmlmin [flags] [files...]",
	Short: "Configurable HTML minifier",
	Long: `htmlmin removes everything from an HTML document that does not change
how it renders: comments, redundant attributes, optional tags and
collapsible whitespace. Every transformation is opt-in.

Input is read from the files given, from stdin when there are none, or
from a whole directory tree with --input-dir.

Examples:
  # Minify stdin with the aggressive preset
  htmlmin --preset aggressive < index.html > index.min.html

  # Pick transformations one by one
  htmlmin --collapse-whitespace --remove-comments -o out.html index.html

  # Mirror a site into dist/ and keep it up to date
  htmlmin --preset conservative --input-dir site --output-dir dist \
      --file-ext html,htm --watch

  # Also minify scripts, styles and links
  htmlmin --preset aggressive --minify-js --minify-css \
      --minify-urls https://example.com/blog/ page.html`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runMinify,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file: JSON, YAML or TOML (default $HOME/.htmlmin.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	registerFlags(rootCmd)
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".htmlmin")
	}

	// Environment variables, e.g. HTMLMIN_REMOVE_COMMENTS=true
	viper.SetEnvPrefix("HTMLMIN")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
