package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchparty/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	logPath = configVar[string]{
		envKey:       "SERVER_LOG_PATH",
		flagKey:      "log-path",
		defaultValue: "",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
	}
	contentLimit = configVar[int]{
		envKey:       "SERVER_CONTENT_LIMIT",
		flagKey:      "content-limit",
		defaultValue: 25,
	}
	messagesLimit = configVar[int]{
		envKey:       "SERVER_MESSAGES_LIMIT",
		flagKey:      "messages-limit",
		defaultValue: 200,
	}
	heartbeatInterval = configVar[int]{
		envKey:       "SERVER_HEARTBEAT_INTERVAL",
		flagKey:      "heartbeat-interval",
		defaultValue: 5,
	}
	driftThreshold = configVar[float64]{
		envKey:       "SERVER_DRIFT_THRESHOLD",
		flagKey:      "drift-threshold",
		defaultValue: 2,
	}
	messageRateLimit = configVar[int]{
		envKey:       "SERVER_MESSAGE_RATE_LIMIT",
		flagKey:      "message-rate-limit",
		defaultValue: 2,
	}
	startPolicy = configVar[string]{
		envKey:       "SERVER_START_POLICY",
		flagKey:      "start-policy",
		defaultValue: "manual",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(logPath.flagKey, logPath.defaultValue, "Log file path, empty for stdout")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room")
	pflag.Int(contentLimit.flagKey, contentLimit.defaultValue, "Maximum number of content options in a room")
	pflag.Int(messagesLimit.flagKey, messagesLimit.defaultValue, "Number of chat messages retained per room")
	pflag.Int(heartbeatInterval.flagKey, heartbeatInterval.defaultValue, "Playback heartbeat interval in seconds")
	pflag.Float64(driftThreshold.flagKey, driftThreshold.defaultValue, "Client drift correction threshold in seconds")
	pflag.Int(messageRateLimit.flagKey, messageRateLimit.defaultValue, "Minimum seconds between chat messages per member")
	pflag.String(startPolicy.flagKey, startPolicy.defaultValue, "Room start policy: manual or scheduled")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(logPath.flagKey, logPath.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(contentLimit.flagKey, contentLimit.envKey)
	viper.BindEnv(messagesLimit.flagKey, messagesLimit.envKey)
	viper.BindEnv(heartbeatInterval.flagKey, heartbeatInterval.envKey)
	viper.BindEnv(driftThreshold.flagKey, driftThreshold.envKey)
	viper.BindEnv(messageRateLimit.flagKey, messageRateLimit.envKey)
	viper.BindEnv(startPolicy.flagKey, startPolicy.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(logPath.flagKey, logPath.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(contentLimit.flagKey, contentLimit.defaultValue)
	viper.SetDefault(messagesLimit.flagKey, messagesLimit.defaultValue)
	viper.SetDefault(heartbeatInterval.flagKey, heartbeatInterval.defaultValue)
	viper.SetDefault(driftThreshold.flagKey, driftThreshold.defaultValue)
	viper.SetDefault(messageRateLimit.flagKey, messageRateLimit.defaultValue)
	viper.SetDefault(startPolicy.flagKey, startPolicy.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return &app.AppConfig{
		Secret:                viper.GetString(secret.flagKey),
		Host:                  viper.GetString(host.flagKey),
		Port:                  viper.GetInt(port.flagKey),
		LogLevel:              viper.GetString(logLevel.flagKey),
		LogPath:               viper.GetString(logPath.flagKey),
		MembersLimit:          viper.GetInt(membersLimit.flagKey),
		ContentLimit:          viper.GetInt(contentLimit.flagKey),
		MessagesLimit:         viper.GetInt(messagesLimit.flagKey),
		HeartbeatInterval:     viper.GetInt(heartbeatInterval.flagKey),
		DriftThresholdSeconds: viper.GetFloat64(driftThreshold.flagKey),
		MessageRateLimit:      viper.GetInt(messageRateLimit.flagKey),
		StartPolicy:           viper.GetString(startPolicy.flagKey),
		RedisHost:             viper.GetString(redisHost.flagKey),
		RedisPort:             viper.GetInt(redisPort.flagKey),
		RedisPassword:         viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
