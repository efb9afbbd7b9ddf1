package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set by main.
var Version = "dev"

func mustFlagBool(cmd *cobra.Command, name string, required bool) bool {
	val, err := cmd.Flags().GetBool(name)
	if required && err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func mustFlagString(cmd *cobra.Command, name string, required bool) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	if required && val == "" {
		fmt.Printf("error: required flag --%s missing\n", name)
		os.Exit(1)
	}
	return val
}

func mustFlagStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func mustFlagInt(cmd *cobra.Command, name string, required bool) int {
	val, err := cmd.Flags().GetInt(name)
	if required && err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func newLogger(cmd *cobra.Command) logger.Logger {
	if mustFlagBool(cmd, "verbose", false) {
		return logger.NewConsoleLogger(logger.LevelTrace)
	}
	if mustFlagBool(cmd, "silent", false) {
		return logger.NewConsoleLogger(logger.LevelError)
	}
	return logger.NewConsoleLogger(logger.LevelInfo)
}

// initConfig reads the config file and the environment into viper and binds
// the flags of cmd, a flag set on the command line wins.
func initConfig(cmd *cobra.Command) error {
	file := mustFlagString(cmd, "config", false)
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(defaultConfigName)
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(dir + "/vstutils")
		}
	}
	viper.SetEnvPrefix("VSTUTILS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && file == "" {
			return nil
		}
		return fmt.Errorf("error reading config: %w", err)
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vstutils",
	Short: "Load a vstutils API schema and query it through the bulk endpoint",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "the config file, defaults to vstutils.toml")
	rootCmd.PersistentFlags().String("url", "", "the API url, taken from the token issuer when empty")
	rootCmd.PersistentFlags().String("token", os.Getenv("VSTUTILS_TOKEN"), "the API access token")
	rootCmd.PersistentFlags().String("language", "", "the language, defaults to the one of the API")
	rootCmd.PersistentFlags().String("data-dir", "", "the directory of the persistent cache")
	rootCmd.PersistentFlags().Duration("bulk-window", 0, "how long to collect requests before sending a transaction")
	rootCmd.PersistentFlags().String("otel-endpoint", "", "the OTLP gRPC endpoint traces are exported to")
	rootCmd.PersistentFlags().String("user-id", "", "the user to load, defaults to the one of the API")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not use the persistent cache")
	rootCmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	rootCmd.PersistentFlags().Bool("silent", false, "turn off all logging")
}
