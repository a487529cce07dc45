package tool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/codedrop/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

const (
	DefaultMaxFileSize          = 4 * 1024 * 1024 * 1024 // 4 GiB
	DefaultChunkSize            = 1024 * 1024            // 1 MiB
	DefaultSessionExpireMinutes = 10
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		Nickname:             NameGenerator(),
		Port:                 53320,
		MaxFileSize:          DefaultMaxFileSize,
		ChunkSize:            DefaultChunkSize,
		SessionExpireMinutes: DefaultSessionExpireMinutes,
		ChunkDir:             "chunks",
		HistoryDBPath:        "history.db",
	}
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, create with default values
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	var configChanged bool
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
		configChanged = true
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
		configChanged = true
	}
	if cfg.SessionExpireMinutes <= 0 {
		cfg.SessionExpireMinutes = DefaultSessionExpireMinutes
		configChanged = true
	}
	if cfg.Nickname == "" {
		cfg.Nickname = NameGenerator()
		configChanged = true
	}
	if configChanged {
		if writeErr := writeConfig(path, cfg); writeErr != nil {
			DefaultLogger.Warnf("Failed to update config file: %v", writeErr)
		}
	}

	CurrentConfig = cfg
	return cfg, nil
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
