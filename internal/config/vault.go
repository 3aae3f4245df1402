package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
)

// databaseURLKeys are tried in order when reading the KV secret.
var databaseURLKeys = []string{"database_url", "url", "dsn"}

type kvReader interface {
	Get(ctx context.Context, secretPath string) (*vaultapi.KVSecret, error)
}

// ResolveDatabaseURL returns cfg.DatabaseURL, or reads it from the Vault KV v2
// secret at VAULT_DATABASE_SECRET_PATH when no URL is set. The Vault address
// and token come from the standard VAULT_ADDR and VAULT_TOKEN variables;
// VAULT_ROLE_ID and VAULT_SECRET_ID select AppRole login instead.
func ResolveDatabaseURL(ctx context.Context, cfg Config) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	if cfg.VaultDatabaseSecretPath == "" {
		return "", errors.New("DATABASE_URL is required")
	}

	client, err := vaultapi.NewClient(vaultapi.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("config.ResolveDatabaseURL: vault client setup: %w", err)
	}
	if cfg.VaultRoleID != "" {
		if err := appRoleLogin(ctx, client, cfg.VaultRoleID, cfg.VaultSecretID); err != nil {
			return "", err
		}
	}
	return readDatabaseURL(ctx, client.KVv2(cfg.VaultKVMount), cfg.VaultDatabaseSecretPath)
}

func appRoleLogin(ctx context.Context, client *vaultapi.Client, roleID, secretID string) error {
	if secretID == "" {
		return errors.New("VAULT_SECRET_ID is required with VAULT_ROLE_ID")
	}
	secret, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]any{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return fmt.Errorf("config.ResolveDatabaseURL: vault approle login: %w", err)
	}
	if secret == nil || secret.Auth == nil || strings.TrimSpace(secret.Auth.ClientToken) == "" {
		return errors.New("vault approle login succeeded without client token")
	}
	client.SetToken(secret.Auth.ClientToken)
	return nil
}

func readDatabaseURL(ctx context.Context, kv kvReader, secretPath string) (string, error) {
	secret, err := kv.Get(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("config.ResolveDatabaseURL: read %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("config.ResolveDatabaseURL: secret %s is empty", secretPath)
	}
	for _, key := range databaseURLKeys {
		if v, ok := secret.Data[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("config.ResolveDatabaseURL: secret %s has none of %s", secretPath, strings.Join(databaseURLKeys, ", "))
}
