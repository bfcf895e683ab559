package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("SNODE_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("SNODE_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("SNODE_DB_FOLDER")
	if dbFolderPath == "" {
		return "db"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

// GetWorkPath is the runtime directory holding downloaded binaries,
// generated credentials and the subscription artifacts. It is cleared
// on every start, so nothing durable may live here except the identity
// and key files that the wipe preserves.
func GetWorkPath() string {
	workPath := os.Getenv("SNODE_WORK_DIR")
	if workPath == "" {
		return ".npm"
	}
	return workPath
}

func GetSettingPath() string {
	settingPath := os.Getenv("SNODE_SETTING_FILE")
	if settingPath == "" {
		return "s-node.yaml"
	}
	return settingPath
}
