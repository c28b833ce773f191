/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudflax/cloudflax/utils"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

// ValidateConnectionConfig checks the settings that cannot be defaulted.
func ValidateConnectionConfig(cfg *ConnectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	for _, t := range supportedTypes {
		if cfg.Type == t {
			return nil
		}
	}
	return fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
}

// ApplyEnvOverrides replaces connection settings with DB_* environment
// variables when they are set. Durations are given in seconds.
func ApplyEnvOverrides(cfg *ConnectionConfig) {
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	cfg.Port = utils.EnvDefaultInt("DB_PORT", cfg.Port)
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)

	cfg.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	if seconds := utils.EnvDefaultInt("DB_CONN_MAX_LIFETIME", -1); seconds >= 0 {
		cfg.ConnMaxLifetime = time.Duration(seconds) * time.Second
	}

	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
}

// Open validates cfg, applies environment overrides, connects and, when
// enabled, migrates the registered models.
func Open(ctx context.Context, cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	conn := cfg.Connection
	ApplyEnvOverrides(&conn)
	if err := ValidateConnectionConfig(&conn); err != nil {
		return nil, err
	}

	manager := NewManager(&conn, GetLogger())
	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	manager.DB().RegisterModel(RegisteredModelInstances()...)

	if cfg.Migrate.EnableMigrateOnStartup {
		if err := manager.Migrate(ctx, cfg.Migrate.EnableIndexes); err != nil {
			_ = manager.Disconnect()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	GetLogger().Info("Database initialization completed")
	return manager, nil
}
