package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "slopscore",
	Short: "SlopScore - checks whether a repository's code backs up its README",
	Long: `SlopScore reads the README of a public GitHub repository, extracts the
features it claims, and asks a language model whether the repository's file
tree plausibly implements each one.

Every verdict is a judgement made from file paths alone. SlopScore never reads
file contents, so treat PASS as "plausible" and FAIL as "no visible trace".`,
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
		fmt.Fprintf(cmd.OutOrStdout(), "slopscore %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.slopscore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.slopscore")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SLOPSCORE_LLM_PROVIDER overrides llm.provider
	viper.SetEnvPrefix("SLOPSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal
func setDefaults(d *model.Config) {
	viper.SetDefault("github.base_url", d.GitHub.BaseURL)
	viper.SetDefault("github.token", d.GitHub.Token)
	viper.SetDefault("github.exclude", d.GitHub.Exclude)
	viper.SetDefault("http.timeout", d.HTTP.Timeout)
	viper.SetDefault("http.user_agent", d.HTTP.UserAgent)
	viper.SetDefault("http.http_proxy", d.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", d.HTTP.HTTPSProxy)
	viper.SetDefault("http.no_proxy", d.HTTP.NoProxy)
	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.ttl", d.Cache.TTL)
	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.api_key", d.LLM.APIKey)
	viper.SetDefault("llm.base_url", d.LLM.BaseURL)
	viper.SetDefault("llm.timeout", d.LLM.Timeout)
	viper.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	viper.SetDefault("llm.temperature", d.LLM.Temperature)
	viper.SetDefault("resilience.enabled", d.Resilience.Enabled)
	viper.SetDefault("resilience.max_attempts", d.Resilience.MaxAttempts)
	viper.SetDefault("resilience.initial_delay", d.Resilience.InitialDelay)
	viper.SetDefault("resilience.call_timeout", d.Resilience.CallTimeout)
	viper.SetDefault("rate_limiting.requests_per_second", d.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", d.RateLimiting.BurstSize)
	viper.SetDefault("concurrency.workers", d.Concurrency.Workers)
	viper.SetDefault("output.verbose", d.Output.Verbose)
	viper.SetDefault("output.include_footer", d.Output.IncludeFooter)
	viper.SetDefault("output.color", d.Output.Color)
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.allow_origins", d.Server.AllowOrigins)
}

// loadConfig merges defaults, config file and environment into a Config.
// Secrets fall back to their conventional environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, model.WrapError(err, model.KindConfig, "decode config")
	}
	resolveSecrets(cfg, os.Getenv)
	return cfg, nil
}

func resolveSecrets(cfg *model.Config, getenv func(string) string) {
	if cfg.LLM.APIKey == "" {
		if env := llm.APIKeyEnv(cfg.LLM.Provider); env != "" {
			cfg.LLM.APIKey = getenv(env)
		}
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = getenv("API_KEY")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = getenv("GITHUB_TOKEN")
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
