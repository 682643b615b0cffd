package config

import (
	"flag"
	"os"
	"strconv"
)

// ServerConfig holds the server configuration collected from flags and
// environment variables. Environment variables take precedence over flags.
type ServerConfig struct {
	Address         string
	StoreInterval   int
	FileStoragePath string
	Restore         bool
	DatabaseDSN     string
	Key             string
	AuditFile       string
	AuditURL        string
}

func NewServerConfig() (*ServerConfig, error) {
	config := &ServerConfig{
		Address:         "localhost:8080",
		StoreInterval:   300,
		FileStoragePath: "./cmd/server/logs/metrics.json",
		Restore:         false,
		DatabaseDSN:     "",
		Key:             "",
		AuditFile:       "",
		AuditURL:        "",
	}

	address := flag.String("a", config.Address, "address")
	storeInterval := flag.Int("i", config.StoreInterval, "snapshot export interval in seconds")
	fileStoragePath := flag.String("f", config.FileStoragePath, "path to store file")
	restoreFlag := flag.Bool("r", config.Restore, "bool flag, describe restore metrics from file or not")
	databaseDSN := flag.String("d", config.DatabaseDSN, "database dsn")
	key := flag.String("k", config.Key, "key for request hash verification")
	auditFile := flag.String("audit-file", config.AuditFile, "path to audit log file")
	auditURL := flag.String("audit-url", config.AuditURL, "url for audit events")
	flag.Parse()

	envVars := map[string]*string{
		"ADDRESS":           address,
		"FILE_STORAGE_PATH": fileStoragePath,
		"DATABASE_DSN":      databaseDSN,
		"KEY":               key,
		"AUDIT_FILE":        auditFile,
		"AUDIT_URL":         auditURL,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	if envStoreInterval := os.Getenv("STORE_INTERVAL"); envStoreInterval != "" {
		interval, err := strconv.Atoi(envStoreInterval)
		if err != nil {
			return nil, err
		}
		*storeInterval = interval
	}

	if envRestoreFlag := os.Getenv("RESTORE"); envRestoreFlag != "" {
		restore, err := strconv.ParseBool(envRestoreFlag)
		if err != nil {
			return nil, err
		}
		*restoreFlag = restore
	}

	config.Address = *address
	config.StoreInterval = *storeInterval
	config.FileStoragePath = *fileStoragePath
	config.Restore = *restoreFlag
	config.DatabaseDSN = *databaseDSN
	config.Key = *key
	config.AuditFile = *auditFile
	config.AuditURL = *auditURL

	return config, nil
}
