package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/metrics"
)

func TestOpenUnknownDriver(t *testing.T) {
	_, err := database.Open("oracle", "whatever")
	assert.ErrorContains(t, err, `unsupported DB_DRIVER "oracle"`)
}

func TestOpenSqliteRecordsQueryLatency(t *testing.T) {
	db, err := database.Open("sqlite", "file:db_test?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE probes (id INTEGER PRIMARY KEY)").Error)

	families, err := metrics.DefaultRegistry.Gather()
	require.NoError(t, err)
	var operations []string
	for _, mf := range families {
		if mf.GetName() != "darzi_db_query_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				operations = append(operations, l.GetValue())
			}
		}
	}
	assert.Contains(t, operations, "raw")
}
