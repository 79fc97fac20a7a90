package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Discord   DiscordConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
	History   HistoryConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
}

type DiscordConfig struct {
	Token      string
	GuildID    string
	SplitLimit int
}

type MongoConfig struct {
	URI               string
	Database          string
	DocsCollection    string
	HistoryCollection string
	TimeoutSec        int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLMin   int
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
}

type RetrievalConfig struct {
	TopK int
}

type HistoryConfig struct {
	QueueSize int
	RecentN   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// Load reads configuration for the bot process, which needs every
// credential: the gateway token, the completion API key, and the store URI.
func Load() (*Config, error) {
	return load([]string{keyDiscordToken, keyLLMAPIKey, keyMongoURI})
}

// LoadIngest reads configuration for the ingestion process, which talks to
// the completion API and the store but never to the gateway.
func LoadIngest() (*Config, error) {
	return load([]string{keyLLMAPIKey, keyMongoURI})
}

const (
	keyDiscordToken = "discord.token"
	keyLLMAPIKey    = "llm.apiKey"
	keyMongoURI     = "mongo.uri"
)

func load(required []string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/qabot")

	viper.SetEnvPrefix("QABOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindCredentialEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(required); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindCredentialEnv registers the keys that have no default so Unmarshal
// sees them when they arrive only through the environment. AutomaticEnv
// resolves keys on Get, but Unmarshal walks registered keys only.
func bindCredentialEnv() {
	viper.BindEnv(keyDiscordToken)
	viper.BindEnv(keyLLMAPIKey)
	viper.BindEnv(keyMongoURI)
	viper.BindEnv("redis.password")
}

// validate rejects configs missing a credential the process cannot run
// without. Missing credentials are a startup error, never a per-request one.
func (c *Config) validate(required []string) error {
	present := map[string]string{
		keyDiscordToken: c.Discord.Token,
		keyLLMAPIKey:    c.LLM.APIKey,
		keyMongoURI:     c.Mongo.URI,
	}

	var missing []string
	for _, key := range required {
		if present[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)

	viper.SetDefault("discord.guildID", "")
	viper.SetDefault("discord.splitLimit", 1900)

	viper.SetDefault("mongo.database", "quantified_ante")
	viper.SetDefault("mongo.docsCollection", "documents")
	viper.SetDefault("mongo.historyCollection", "qa_history")
	viper.SetDefault("mongo.timeoutSec", 5)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlMin", 60)

	viper.SetDefault("llm.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.embeddingModel", "text-embedding-ada-002")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("retrieval.topK", 5)

	viper.SetDefault("history.queueSize", 256)
	viper.SetDefault("history.recentN", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
