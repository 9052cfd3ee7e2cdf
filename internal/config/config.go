package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	Gemini   Gemini   `mapstructure:"gemini"`
	Search   Search   `mapstructure:"search"`
	Extract  Extract  `mapstructure:"extract"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Email    Email    `mapstructure:"email"`
	Schedule Schedule `mapstructure:"schedule"`
	Output   Output   `mapstructure:"output"`
}

// App holds general application configuration
type App struct {
	LogLevel   string `mapstructure:"log_level"`
	DataDir    string `mapstructure:"data_dir"` // Holds the SQLite database
	ConfigFile string `mapstructure:"config_file"`
}

// Gemini holds text-generation provider configuration
type Gemini struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`
}

// Search holds search provider configuration
type Search struct {
	Provider    string `mapstructure:"provider"` // serpapi, duckduckgo, or mock
	APIKey      string `mapstructure:"api_key"`
	ResultCount int    `mapstructure:"result_count"`
	Country     string `mapstructure:"country"`
	Language    string `mapstructure:"language"`
	Window      string `mapstructure:"window"` // day, week or month
	Timeout     string `mapstructure:"timeout"`
}

// Extract holds article extraction configuration
type Extract struct {
	Timeout      string `mapstructure:"timeout"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// Pipeline holds orchestration tunables
type Pipeline struct {
	MaxTokens                int `mapstructure:"max_tokens"`
	MaxConcurrentExtractions int `mapstructure:"max_concurrent_extractions"` // 0 = unbounded
}

// Email holds delivery transport configuration
type Email struct {
	Enabled            bool   `mapstructure:"enabled"`
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	SenderEmail        string `mapstructure:"sender_email"`
	SenderName         string `mapstructure:"sender_name"`
	UnsubscribeBaseURL string `mapstructure:"unsubscribe_base_url"` // empty drops the footer link
	Timeout            string `mapstructure:"timeout"`
}

// Schedule holds the weekly trigger configuration
type Schedule struct {
	Weekday  string `mapstructure:"weekday"`
	Hour     int    `mapstructure:"hour"`
	Minute   int    `mapstructure:"minute"`
	Timezone string `mapstructure:"timezone"`
}

// Output holds digest export configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

var globalConfig *Config

// Load loads the configuration from .env, the config file and the environment.
// Missing provider credentials are reported as errors so the process can abort
// at startup rather than mid-run.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsbrief")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".newsbrief")

	// Gemini defaults
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", "120s")

	// Search defaults
	viper.SetDefault("search.provider", "serpapi")
	viper.SetDefault("search.result_count", 10)
	viper.SetDefault("search.country", "us")
	viper.SetDefault("search.language", "en")
	viper.SetDefault("search.window", "week")
	viper.SetDefault("search.timeout", "30s")

	// Extract defaults
	viper.SetDefault("extract.timeout", "10s")
	viper.SetDefault("extract.max_body_bytes", 2*1024*1024)

	// Pipeline defaults
	viper.SetDefault("pipeline.max_tokens", 50000)
	viper.SetDefault("pipeline.max_concurrent_extractions", 5)

	// Email defaults
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.base_url", "https://api.brevo.com/v3")
	viper.SetDefault("email.sender_name", "Newsbrief")
	viper.SetDefault("email.timeout", "30s")

	// Schedule defaults
	viper.SetDefault("schedule.weekday", "Sunday")
	viper.SetDefault("schedule.hour", 7)
	viper.SetDefault("schedule.minute", 0)
	viper.SetDefault("schedule.timezone", "America/New_York")

	// Output defaults
	viper.SetDefault("output.directory", "digests")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("gemini.model", []string{
		"GEMINI_MODEL",
	})

	// SerpAPI
	bindEnvKeys("search.api_key", []string{
		"SERPAPI_API_KEY",
		"SERPAPI_KEY",
	})

	// Brevo transactional email
	bindEnvKeys("email.api_key", []string{
		"BREVO_API_KEY",
	})

	bindEnvKeys("email.sender_email", []string{
		"SENDER_EMAIL",
	})

	bindEnvKeys("email.unsubscribe_base_url", []string{
		"UNSUBSCRIBE_BASE_URL",
	})

	bindEnvKeys("schedule.timezone", []string{
		"SCHEDULE_TIMEZONE",
	})

	bindEnvKeys("app.log_level", []string{
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	config.App.ConfigFile = viper.ConfigFileUsed()

	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Output.Directory != "" {
		config.Output.Directory = expandPath(config.Output.Directory)
	}

	durations := map[string]string{
		"gemini.timeout":  config.Gemini.Timeout,
		"search.timeout":  config.Search.Timeout,
		"extract.timeout": config.Extract.Timeout,
		"email.timeout":   config.Email.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errs []string

	if config.Gemini.APIKey == "" {
		errs = append(errs, "Gemini API key is required. Set GEMINI_API_KEY environment variable or gemini.api_key in config file")
	}

	switch config.Search.Provider {
	case "serpapi":
		if !isValidAPIKey(config.Search.APIKey) {
			errs = append(errs, "SerpAPI requires an API key. Set SERPAPI_API_KEY environment variable or search.api_key in config file")
		}
	case "duckduckgo", "mock":
		// No credentials needed
	default:
		errs = append(errs, fmt.Sprintf("Unknown search provider: %s. Supported: serpapi, duckduckgo, mock", config.Search.Provider))
	}

	switch config.Search.Window {
	case "day", "week", "month", "":
	default:
		errs = append(errs, fmt.Sprintf("Unknown search window: %s. Supported: day, week, month", config.Search.Window))
	}

	if config.Email.Enabled {
		if !isValidAPIKey(config.Email.APIKey) {
			errs = append(errs, "Email delivery requires an API key. Set BREVO_API_KEY environment variable or email.api_key in config file")
		}
		if config.Email.SenderEmail == "" {
			errs = append(errs, "Email delivery requires a sender address. Set SENDER_EMAIL or email.sender_email in config file")
		}
	}

	if config.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(config.Schedule.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("Invalid schedule timezone: %s", config.Schedule.Timezone))
		}
	}
	if config.Schedule.Hour < 0 || config.Schedule.Hour > 23 || config.Schedule.Minute < 0 || config.Schedule.Minute > 59 {
		errs = append(errs, "Schedule hour must be 0-23 and minute 0-59")
	}
	if _, err := ParseWeekday(config.Schedule.Weekday); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ParseWeekday maps a weekday name (case-insensitive) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday: %q", name)
}

// isValidAPIKey checks if an API key is set and not a placeholder
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-serpapi-key", "your-brevo-key",
		"YOUR_API_KEY", "PLACEHOLDER", "CHANGE_ME",
	}

	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}

// Convenience getters for commonly used configuration values
func GetApp() App           { return Get().App }
func GetSearch() Search     { return Get().Search }
func GetPipeline() Pipeline { return Get().Pipeline }
func GetEmail() Email       { return Get().Email }
func GetSchedule() Schedule { return Get().Schedule }

// Specific convenience getters for frequently accessed values
func GetGeminiAPIKey() string    { return Get().Gemini.APIKey }
func GetGeminiModel() string     { return Get().Gemini.Model }
func GetSerpAPIKey() string      { return Get().Search.APIKey }
func GetMaxTokens() int          { return Get().Pipeline.MaxTokens }
func GetDataDir() string         { return Get().App.DataDir }
func GetOutputDirectory() string { return Get().Output.Directory }
func IsEmailEnabled() bool       { return Get().Email.Enabled }

// GetGeminiTimeout returns the generation call timeout.
func GetGeminiTimeout() time.Duration { return durationOr(Get().Gemini.Timeout, 120*time.Second) }

// GetSearchTimeout returns the search request timeout.
func GetSearchTimeout() time.Duration { return durationOr(Get().Search.Timeout, 30*time.Second) }

// GetExtractTimeout returns the per-page fetch timeout.
func GetExtractTimeout() time.Duration { return durationOr(Get().Extract.Timeout, 10*time.Second) }

// GetEmailTimeout returns the delivery request timeout.
func GetEmailTimeout() time.Duration { return durationOr(Get().Email.Timeout, 30*time.Second) }

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
