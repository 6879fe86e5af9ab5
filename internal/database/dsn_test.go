package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		Driver:   "postgres",
		Host:     "db.internal",
		Port:     5433,
		Name:     "accountd",
		User:     "svc",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=db.internal")
	require.Contains(t, dsn, "port=5433")
	require.Contains(t, dsn, "dbname=accountd")
	require.Contains(t, dsn, "sslmode=disable")
}

func TestBuildPostgresDSNRequiresUser(t *testing.T) {
	_, err := buildPostgresDSN(Config{Driver: "postgres", Name: "accountd"})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		Driver: "mysql",
		Name:   "accountd",
		User:   "svc",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "svc@tcp(127.0.0.1:3306)/accountd")
	require.Contains(t, dsn, "parseTime=True")
}

func TestBuildMySQLDSNOverride(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{Driver: "mysql", DSN: "custom-dsn"})
	require.NoError(t, err)
	require.Equal(t, "custom-dsn", dsn)
}
