package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/scholarship-matcher/internal/logger"
)

const (
	app       = logger.AppName
	envPrefix = "SCHOLARSHIP_MATCHER"
)

type Config struct {
	Database string        `mapstructure:"database"`
	Server   *ServerConfig `mapstructure:"server"`
	Seed     *SeedConfig   `mapstructure:"seed"`
	AI       *AIConfig     `mapstructure:"ai"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type SeedConfig struct {
	Students     string `mapstructure:"students"`
	Scholarships string `mapstructure:"scholarships"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	FallbackMessage string        `mapstructure:"fallback-message"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "scholarship-matcher matches students with the scholarships they are eligible for",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("database", app+".db")
	viper.SetDefault("seed.students", "data/students.json")
	viper.SetDefault("seed.scholarships", "data/scholarships.json")
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")

	for key, envs := range map[string][]string{
		"port":                   {"PORT"},
		"server.address":         {envPrefix + "_SERVER_ADDRESS"},
		"ai.gemini.api-key-file": {envPrefix + "_AI_GEMINI_API_KEY_FILE", "GEMINI_API_KEY_FILE"},
		"ai.gemini.api-key":      {envPrefix + "_AI_GEMINI_API_KEY"},
		"ai.gemini.model":        {envPrefix + "_AI_GEMINI_MODEL"},
	} {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			log.Fatalf("binding environment for %s: %v", key, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is scholarship-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("database", "", "path to the SQLite database file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Seed == nil {
		config.Seed = &SeedConfig{}
	}

	return config, nil
}

// listenAddress prefers server.address, then PORT, then :3000.
func listenAddress(cfg *Config) string {
	if cfg != nil && cfg.Server != nil {
		if addr := strings.TrimSpace(cfg.Server.Address); addr != "" {
			return addr
		}
	}
	if port := strings.TrimSpace(viper.GetString("port")); port != "" {
		return ":" + port
	}
	return ":3000"
}
