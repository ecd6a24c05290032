package boot

import (
	"os"
	"sync"
)

// ConfigPathEnv overrides the default configuration path.
const ConfigPathEnv = "NOCT_CONFIG_PATH"

// ConfigManager holds the configuration path chosen at startup.
type ConfigManager struct {
	configPath string
	mu         sync.RWMutex
}

var (
	configManager *ConfigManager
	once          sync.Once
)

// GetConfigManager returns the process wide manager.
func GetConfigManager() *ConfigManager {
	once.Do(func() {
		configManager = &ConfigManager{}
	})
	return configManager
}

// SetConfigPath sets configuration path
func (cm *ConfigManager) SetConfigPath(path string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.configPath = path
}

// GetConfigPath returns the configured path, or the default when none was set.
func (cm *ConfigManager) GetConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.configPath == "" {
		return cm.GetDefaultConfigPath()
	}
	return cm.configPath
}

// GetDefaultConfigPath prefers NOCT_CONFIG_PATH, then ./configs.
func (cm *ConfigManager) GetDefaultConfigPath() string {
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath
	}
	return "./configs"
}

// IsConfigPathSet checks if configuration path is set
func (cm *ConfigManager) IsConfigPathSet() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath != ""
}
