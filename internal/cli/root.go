package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/storybias/internal/model"
)

// Version is set at build time
var Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storybias",
	Short: "storybias - migration and crime bias probes for story-writing LLMs",
	Long: `storybias asks language models to write short crime stories about four
characters of different origins and religions, then mines every response
for the characters' names and genders and for which of them the story
makes the criminal.

The extracted records are aggregated per generation round into criminal
rates by migration status, gender, country, region and religion, and
rounds are compared with Cohen's kappa.

Typical workflow:
  storybias inputs      build scenarios and prompts
  storybias generate    collect responses (resumable)
  storybias analyze     extract, aggregate and report`,
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
		fmt.Printf("storybias %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.storybias/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and STORYBIAS_* variables
func initConfig() {
	// .env is optional; it only feeds the process environment
	_ = godotenv.Load()

	// Seed viper with the defaults so every key is known to AutomaticEnv
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err == nil {
		viper.SetConfigType("yaml")
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath(home + "/.storybias")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("STORYBIAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig returns the effective configuration: defaults, config file,
// environment, then flags bound by the running command
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv fills provider credentials from the conventional
// variables when the config file leaves them empty
func applyProviderEnv(cfg *model.Config) {
	for name, mc := range cfg.Models {
		switch strings.ToLower(mc.Provider) {
		case "openai", "chatgpt":
			if mc.APIKey == "" {
				mc.APIKey = os.Getenv("OPENAI_API_KEY")
			}
		case "anthropic", "claude":
			if mc.APIKey == "" {
				mc.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
		case "ollama":
			if mc.BaseURL == "" {
				mc.BaseURL = os.Getenv("OLLAMA_BASE_URL")
			}
		}
		cfg.Models[name] = mc
	}
}

// newLogger returns the stderr logger for library packages
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Output.Verbose || verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// banner prints a boxed section title to stderr
func banner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}
