package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_TransactionCounters(t *testing.T) {
	m := NewManager()

	m.TransactionFinished("pools", true, 2*time.Millisecond)
	m.TransactionFinished("pools", true, time.Millisecond)
	m.TransactionFinished("pools", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("pools", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("pools", "aborted")))
}

func TestManager_SchemaMetrics(t *testing.T) {
	m := NewManager()

	m.MigrationApplied(4)
	m.MigrationApplied(5)
	m.SchemaVersion(5)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.schemaVersion))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.migrationsApplied.WithLabelValues("5")))
}

func TestManager_SyncAttempts(t *testing.T) {
	m := NewManager()
	m.SyncAttempt("fencers", "published")
	m.SyncAttempt("fencers", "failed")
	m.SyncAttempt("fencers", "failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncAttempts.WithLabelValues("fencers", "failed")))
}

func TestManager_CustomRegistryAndNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithRegistry(reg), WithNamespace("fencing"))
	m.SchemaVersion(3)

	n, err := testutil.GatherAndCount(reg, "fencing_store_schema_version")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManager_Handler(t *testing.T) {
	m := NewManager()
	m.SchemaVersion(5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "piste_store_schema_version 5"))
}
