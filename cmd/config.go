package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigName = "vstutils"

// Config is the file written by config init and read through viper.
type Config struct {
	URL          string `toml:"url"`
	Token        string `toml:"token"`
	Language     string `toml:"language"`
	DataDir      string `toml:"data-dir"`
	BulkWindow   string `toml:"bulk-window"`
	OtelEndpoint string `toml:"otel-endpoint"`
	UserID       string `toml:"user-id"`
}

// settings are the resolved config values.
type settings struct {
	URL          string
	Token        string
	Language     string
	DataDir      string
	BulkWindow   time.Duration
	OtelEndpoint string
	UserID       string
	NoCache      bool
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vstutils")
	}
	return filepath.Join(dir, "vstutils")
}

func loadSettings() (*settings, error) {
	s := &settings{
		URL:          viper.GetString("url"),
		Token:        viper.GetString("token"),
		Language:     viper.GetString("language"),
		DataDir:      viper.GetString("data-dir"),
		BulkWindow:   viper.GetDuration("bulk-window"),
		OtelEndpoint: viper.GetString("otel-endpoint"),
		UserID:       viper.GetString("user-id"),
		NoCache:      viper.GetBool("no-cache"),
	}
	if s.URL == "" && s.Token != "" {
		url, err := util.URLFromToken(s.Token)
		if err != nil {
			return nil, fmt.Errorf("no url configured and none found in the token: %w", err)
		}
		s.URL = url
	}
	if s.URL == "" {
		return nil, fmt.Errorf("required setting url missing, pass --url or set it in the config file")
	}
	if s.DataDir == "" {
		s.DataDir = defaultDataDir()
	}
	if s.BulkWindow <= 0 {
		s.BulkWindow = bulk.DefaultWindow
	}
	return s, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a config file with the current settings",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd).WithPrefix("[config]")
		file := defaultConfigName + ".toml"
		if len(args) > 0 {
			file = args[0]
		}
		if util.Exists(file) && !mustFlagBool(cmd, "force", false) {
			logger.Fatal("%s already exists, pass --force to overwrite it", file)
		}
		config := Config{
			URL:          viper.GetString("url"),
			Token:        viper.GetString("token"),
			Language:     viper.GetString("language"),
			DataDir:      viper.GetString("data-dir"),
			BulkWindow:   bulk.DefaultWindow.String(),
			OtelEndpoint: viper.GetString("otel-endpoint"),
			UserID:       viper.GetString("user-id"),
		}
		if config.DataDir == "" {
			config.DataDir = defaultDataDir()
		}
		if window := viper.GetDuration("bulk-window"); window > 0 {
			config.BulkWindow = window.String()
		}
		f, err := os.Create(file)
		if err != nil {
			logger.Fatal("error creating %s: %s", file, err)
		}
		defer f.Close()
		if err := toml.NewEncoder(f).Encode(config); err != nil {
			logger.Fatal("error writing %s: %s", file, err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("wrote %s\n", green(file))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings with secrets masked",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(util.JSONStringify(util.MaskSettings(viper.AllSettings())))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
