package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDirName = "aiagent"

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath   string
	CredentialPath string
	LogDir         string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	// XDG_STATE_HOME holds runtime state: credentials, the conversation
	// database, and logs.
	return StoragePaths{
		DatabasePath:   filepath.Join(xdg.StateHome, appDirName, "aiagent.db"),
		CredentialPath: filepath.Join(xdg.StateHome, appDirName, "credentials.json"),
		LogDir:         filepath.Join(xdg.StateHome, appDirName, "logs"),
	}
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.json")
}
