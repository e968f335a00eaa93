package config

import (
	"time"

	"github.com/spf13/viper"
)

func Load() error {
	// API Configuration
	viper.SetDefault("API_ADDR", ":8080")

	// Vendor cloud API
	viper.SetDefault("TUYA_API_ENDPOINT", "https://openapi.tuyaeu.com")
	viper.SetDefault("HTTP_TIMEOUT", "15s")

	// Storage
	viper.SetDefault("MONGODB_URI", "")
	viper.SetDefault("MONGODB_DB", "tuya_energy")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("DEVICES_FILE", "devices.json")

	// Polling
	viper.SetDefault("POLL_INTERVAL", "1m")

	// Optional live feed for dashboards
	viper.SetDefault("MQTT_BROKER", "")

	viper.AutomaticEnv()
	return nil
}

func APIAddr() string             { return viper.GetString("API_ADDR") }
func AccessID() string            { return viper.GetString("TUYA_ACCESS_ID") }
func AccessSecret() string        { return viper.GetString("TUYA_ACCESS_SECRET") }
func APIEndpoint() string         { return viper.GetString("TUYA_API_ENDPOINT") }
func HTTPTimeout() time.Duration  { return viper.GetDuration("HTTP_TIMEOUT") }
func MongoURI() string            { return viper.GetString("MONGODB_URI") }
func MongoDatabase() string       { return viper.GetString("MONGODB_DB") }
func DataDir() string             { return viper.GetString("DATA_DIR") }
func DevicesFile() string         { return viper.GetString("DEVICES_FILE") }
func PollInterval() time.Duration { return viper.GetDuration("POLL_INTERVAL") }
func MQTTBroker() string          { return viper.GetString("MQTT_BROKER") }
