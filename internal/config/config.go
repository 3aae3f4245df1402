package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseMaxConns = 4
	defaultVaultKVMount     = "secret"
	defaultReportDir        = "outputs"
	defaultReportFormats    = "html,json"
	defaultNotifyOn         = "fail"
	defaultAuditInterval    = 24 * time.Hour
	defaultMetricsAddr      = ":9464"
	defaultAuditSink        = AuditSinkPostgres
)

const (
	AuditSinkPostgres = "postgres"
	AuditSinkLog      = "log"
)

type Config struct {
	DatabaseURL      string
	DatabaseMaxConns int

	VaultDatabaseSecretPath string
	VaultKVMount            string
	VaultRoleID             string
	VaultSecretID           string

	ReportDir       string
	ReportFormats   []string
	ReportUploadURL string
	AWSRegion       string

	SlackWebhookURL string
	NotifyOn        string

	AuditInterval time.Duration
	MetricsAddr   string
	AuditSink     string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabaseMaxConns:        getenvIntDefault("DATABASE_MAX_CONNS", defaultDatabaseMaxConns),
		VaultDatabaseSecretPath: strings.TrimSpace(os.Getenv("VAULT_DATABASE_SECRET_PATH")),
		VaultKVMount:            getenvDefault("VAULT_KV_MOUNT", defaultVaultKVMount),
		VaultRoleID:             strings.TrimSpace(os.Getenv("VAULT_ROLE_ID")),
		VaultSecretID:           strings.TrimSpace(os.Getenv("VAULT_SECRET_ID")),
		ReportDir:               getenvDefault("REPORT_DIR", defaultReportDir),
		ReportFormats:           splitList(getenvDefault("REPORT_FORMATS", defaultReportFormats)),
		ReportUploadURL:         strings.TrimSpace(os.Getenv("REPORT_UPLOAD_URL")),
		AWSRegion:               strings.TrimSpace(os.Getenv("AWS_REGION")),
		SlackWebhookURL:         strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		NotifyOn:                strings.ToLower(getenvDefault("NOTIFY_ON", defaultNotifyOn)),
		AuditInterval:           defaultAuditInterval,
		MetricsAddr:             getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		AuditSink:               strings.ToLower(getenvDefault("AUDIT_SINK", defaultAuditSink)),
	}

	if v := strings.TrimSpace(os.Getenv("AUDIT_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("AUDIT_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.AuditInterval = d
	}

	switch cfg.AuditSink {
	case AuditSinkPostgres, AuditSinkLog:
	default:
		return cfg, fmt.Errorf("AUDIT_SINK must be one of: %s, %s", AuditSinkPostgres, AuditSinkLog)
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" && cfg.VaultDatabaseSecretPath == "" {
		return cfg, errors.New("DATABASE_URL or VAULT_DATABASE_SECRET_PATH is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
