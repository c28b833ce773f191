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
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalManager *Manager
	globalMu      sync.RWMutex
)

// InitDB opens the process wide database.
func InitDB(ctx context.Context, cfg *Config) (*bun.DB, error) {
	manager, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	globalMu.Lock()
	globalManager = manager
	globalMu.Unlock()
	return manager.DB(), nil
}

// GetDB returns the process wide database, nil before InitDB.
func GetDB() *bun.DB {
	if m := GetManager(); m != nil {
		return m.DB()
	}
	return nil
}

func GetManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// GetHealthStatus checks the process wide database.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if m := GetManager(); m != nil {
		return m.HealthCheck(ctx)
	}
	return &HealthStatus{LastError: ErrNotConnected.Error()}
}

func CloseDB() error {
	globalMu.Lock()
	m := globalManager
	globalManager = nil
	globalMu.Unlock()
	if m == nil {
		return nil
	}
	return m.Disconnect()
}
