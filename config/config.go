package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"creditbot/database"
)

// Config holds all application configuration. Components receive the pieces they need
// from this struct at construction time; nothing outside this package reads the environment.
type Config struct {
	// Telegram configuration
	TelegramToken string

	// Database configuration
	DatabaseURL  string
	DatabaseName string
	StoreTimeout time.Duration // Upper bound for every ledger call

	// Access control
	OwnerID  int64
	AdminIDs []int64 // Static admins, synced into the admins table at startup

	// Lookup configuration
	LookupAPIs    map[string]string // category -> endpoint prefix
	LogChannels   map[string]int64  // category -> chat id mirroring lookups
	LookupTimeout time.Duration

	// Channels a user must join before using lookups; links are shown as join buttons
	ForceJoinChannels []int64
	ForceJoinLinks    []string

	// Webhook configuration; polling is used when WebhookURL is empty
	WebhookURL    string
	WebhookPath   string
	WebhookSecret string
	ListenAddr    string

	// Optional infrastructure
	RedisURL    string // Enables the Redis session store
	NATSServers string // Enables NATS publishing of ledger events

	// Background work
	SessionTTL          time.Duration
	MaintenanceInterval time.Duration // Expired-code sweep period

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

const (
	lookupAPIPrefix  = "LOOKUP_API_"
	logChannelPrefix = "LOG_CHANNEL_"
)

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads configuration from the process environment, after merging a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnviron(os.Environ())
}

// FromEnviron builds a Config from KEY=VALUE pairs.
func FromEnviron(environ []string) (*Config, error) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	get := func(key string) string { return strings.TrimSpace(env[key]) }

	config := &Config{
		TelegramToken: get("TELEGRAM_TOKEN"),

		DatabaseURL:  get("DATABASE_URL"),
		DatabaseName: get("DATABASE_NAME"),
		StoreTimeout: 15 * time.Second,

		LookupAPIs:    make(map[string]string),
		LogChannels:   make(map[string]int64),
		LookupTimeout: 30 * time.Second,

		WebhookURL:    strings.TrimRight(get("WEBHOOK_URL"), "/"),
		WebhookPath:   getWithDefault(env, "WEBHOOK_PATH", "/webhook"),
		WebhookSecret: get("WEBHOOK_SECRET"),
		ListenAddr:    getWithDefault(env, "LISTEN_ADDR", ":8080"),

		RedisURL:    get("REDIS_URL"),
		NATSServers: get("NATS_SERVERS"),

		SessionTTL:          30 * time.Minute,
		MaintenanceInterval: 6 * time.Hour,

		LogLevel:    getWithDefault(env, "LOG_LEVEL", "info"),
		Environment: get("ENVIRONMENT"),
	}

	// BOT_TOKEN is accepted for deployments that predate TELEGRAM_TOKEN
	if config.TelegramToken == "" {
		config.TelegramToken = get("BOT_TOKEN")
	}

	if owner := get("OWNER_ID"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("OWNER_ID must be an integer: %w", err)
		}
		config.OwnerID = id
	}

	config.AdminIDs = parseIDList(get("ADMIN_IDS"))
	config.ForceJoinChannels = parseIDList(get("FORCE_JOIN_CHANNELS"))
	for _, link := range strings.Split(get("FORCE_JOIN_LINKS"), ",") {
		if link = strings.TrimSpace(link); link != "" {
			config.ForceJoinLinks = append(config.ForceJoinLinks, link)
		}
	}

	for key, value := range env {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, lookupAPIPrefix):
			category := strings.ToLower(strings.TrimPrefix(key, lookupAPIPrefix))
			config.LookupAPIs[category] = value
		case strings.HasPrefix(key, logChannelPrefix):
			category := strings.ToLower(strings.TrimPrefix(key, logChannelPrefix))
			if chatID, err := strconv.ParseInt(value, 10, 64); err == nil && chatID != 0 {
				config.LogChannels[category] = chatID
			}
		}
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"STORE_TIMEOUT", &config.StoreTimeout},
		{"LOOKUP_TIMEOUT", &config.LookupTimeout},
		{"SESSION_TTL", &config.SessionTTL},
		{"MAINTENANCE_INTERVAL", &config.MaintenanceInterval},
	}
	for _, d := range durations {
		raw := get(d.key)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration, got %q", d.key, raw)
		}
		*d.target = parsed
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UseWebhook reports whether updates arrive by webhook rather than long polling
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

// Categories returns the configured lookup categories in a stable order
func (c *Config) Categories() []string {
	categories := make([]string, 0, len(c.LookupAPIs))
	for category := range c.LookupAPIs {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// IsStaticAdmin reports whether the id is the owner or listed in ADMIN_IDS
func (c *Config) IsStaticAdmin(userID int64) bool {
	if c.OwnerID != 0 && userID == c.OwnerID {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseIDList(raw string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// getWithDefault returns the variable value or a default if not set
func getWithDefault(env map[string]string, key, defaultValue string) string {
	if value := strings.TrimSpace(env[key]); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:         "test",
		StoreTimeout:        5 * time.Second,
		LookupTimeout:       5 * time.Second,
		LookupAPIs:          map[string]string{},
		LogChannels:         map[string]int64{},
		WebhookPath:         "/webhook",
		ListenAddr:          ":8080",
		SessionTTL:          30 * time.Minute,
		MaintenanceInterval: 6 * time.Hour,
		LogLevel:            "info",
		OwnerID:             999999,
		AdminIDs:            []int64{999991},
	}
}
