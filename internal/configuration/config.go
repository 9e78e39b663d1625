package configuration

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type MongoConfig struct {
	Uri                     string `json:"uri" envconfig:"mongo_uri"`
	Database                string `json:"database" envconfig:"mongo_database"`
	MessagesCollection      string `json:"messagesCollection" envconfig:"messages_collection"`
	ConversationsCollection string `json:"conversationsCollection" envconfig:"conversations_collection"`
	ListingsCollection      string `json:"listingsCollection" envconfig:"listings_collection"`
	RequestsCollection      string `json:"requestsCollection" envconfig:"requests_collection"`
	UsersCollection         string `json:"usersCollection" envconfig:"users_collection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port" envconfig:"app_port"`
	SocketPort     int      `json:"socket_port" envconfig:"socket_port"`
	SocketRoute    string   `json:"socketRoute" envconfig:"socket_route"`
	AllowedOrigins []string `json:"allowedOrigins" envconfig:"allowed_origins"`
}

type Config struct {
	Store  MongoConfig  `json:"mongo"`
	Server ServerConfig `json:"server"`
}

// LoadConfig reads the JSON config file, then lets environment variables
// (optionally via a .env file) override individual fields.
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(file, config); err != nil {
			return nil, err
		}
	}

	// .env is optional; absent in production deployments
	_ = godotenv.Load()

	if err := envconfig.Process("marketplace", config); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Store: MongoConfig{
			Uri:                     "mongodb://localhost:27017",
			Database:                "marketplace",
			MessagesCollection:      "messages",
			ConversationsCollection: "conversations",
			ListingsCollection:      "listings",
			RequestsCollection:      "requests",
			UsersCollection:         "users",
		},
		Server: ServerConfig{
			AppPort:     8080,
			SocketPort:  8081,
			SocketRoute: "ws",
			AllowedOrigins: []string{
				"http://localhost:3000",
			},
		},
	}
}
