// Package ormtest provides database fixtures for tests: an isolated
// in-memory engine per test and an env-gated postgres connection.
package ormtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ferdiebergado/gopherkit/env"

	"github.com/fizzify/fizzify/orm"
)

var dbSeq atomic.Int64

// NewMemoryManager opens an in-memory database that is isolated from
// every other test and closed when the test finishes.
func NewMemoryManager(t *testing.T) *orm.Manager {
	t.Helper()

	cfg := orm.MemoryConfig{
		Database: fmt.Sprintf("%s-%d", t.Name(), dbSeq.Add(1)),
	}

	// The in-memory driver only speaks the default isolation level.
	engineCfg := orm.DefaultEngineConfig()
	engineCfg.IsolationLevel = "default"

	manager, err := orm.Open(context.Background(), cfg, engineCfg)
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}

	t.Cleanup(func() {
		if err := manager.Close(); err != nil {
			t.Logf("close in-memory database: %v", err)
		}
	})

	return manager
}

// NewPostgresManager connects to the postgres instance described by the
// given dotenv file. The test is skipped when the file is not present,
// so integration tests only run where a database is provisioned.
func NewPostgresManager(t *testing.T, envFile string) *orm.Manager {
	t.Helper()

	if err := env.Load(envFile); err != nil {
		t.Skipf("skipping: no test database config (%v)", err)
	}

	manager, err := orm.Open(context.Background(), orm.PostgresConfigFromEnv(), orm.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}

	t.Cleanup(func() {
		if err := manager.Close(); err != nil {
			t.Logf("close test database: %v", err)
		}
	})

	return manager
}
