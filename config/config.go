package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Services Services
	Queue    Queue
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Services holds credentials and endpoints for the external AI services the
// pipeline calls: transcription, content evaluation and gesture analysis.
type Services struct {
	GeminiApiKey       string
	DeepgramApiKey     string
	DeepgramURL        string
	GestureServiceURL  string
	CallTimeout        time.Duration // per outbound request
	GestureCallTimeout time.Duration // gesture analysis runs a full video pass, needs longer
}

// Queue holds the dispatcher tuning constants. These are deliberately fixed
// at startup; the processor exposes no runtime configuration.
type Queue struct {
	MaxConcurrent int
	MaxAttempts   int
	LeaseTimeout  time.Duration
	TickInterval  time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DEEPGRAM_URL", "https://api.deepgram.com/v1/listen")
	viper.SetDefault("SERVICE_CALL_TIMEOUT", "30s")
	viper.SetDefault("GESTURE_CALL_TIMEOUT", "60s")
	viper.SetDefault("QUEUE_MAX_CONCURRENT", 5)
	viper.SetDefault("QUEUE_MAX_ATTEMPTS", 3)
	viper.SetDefault("QUEUE_LEASE_TIMEOUT", "5m")
	viper.SetDefault("QUEUE_TICK_INTERVAL", "30s")

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Services.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Services.DeepgramApiKey = viper.GetString("DEEPGRAM_API_KEY")
	config.Services.DeepgramURL = viper.GetString("DEEPGRAM_URL")
	config.Services.GestureServiceURL = viper.GetString("GESTURE_SERVICE_URL")
	config.Services.CallTimeout = viper.GetDuration("SERVICE_CALL_TIMEOUT")
	config.Services.GestureCallTimeout = viper.GetDuration("GESTURE_CALL_TIMEOUT")

	config.Queue.MaxConcurrent = viper.GetInt("QUEUE_MAX_CONCURRENT")
	config.Queue.MaxAttempts = viper.GetInt("QUEUE_MAX_ATTEMPTS")
	config.Queue.LeaseTimeout = viper.GetDuration("QUEUE_LEASE_TIMEOUT")
	config.Queue.TickInterval = viper.GetDuration("QUEUE_TICK_INTERVAL")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}
