package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// v holds the merged file and environment configuration
	v *viper.Viper
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "realcheck",
	Short: "RealAI Check - AI authorship and misinformation signals for news articles",
	Long: `RealCheck analyzes a news article and reports two signals:

- How likely the text is to be machine-generated
- For each extracted factual claim, whether web search results
  tend to support or challenge it

The overall verdict combines both. Reports are heuristics meant to
direct a human reviewer, not a ruling on what is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("realcheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.realcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in the config file and REALCHECK_* variables
func initConfig() {
	var err error
	v, err = newViper(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if used := v.ConfigFileUsed(); used != "" && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
	}
}

// setup loads the configuration and starts the logger for a command
func setup() (*model.Config, error) {
	if v == nil {
		v = viper.New()
		if err := setDefaults(v, model.DefaultConfig()); err != nil {
			return nil, err
		}
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Output.Verbose = true
		if cfg.Logging.Level == "info" {
			cfg.Logging.Level = "debug"
		}
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}
