package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vercel-labs/just-bash/internal/netgate"
)

func TestLoadParsesNetworkConfig(t *testing.T) {
	raw := []byte(`
allowed_url_prefixes:
  - https://api.example.com
allowed_methods:
  - GET
  - POST
max_redirects: 5
timeout_ms: 2000
max_response_size: 1048576
`)
	res, err := Load(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"https://api.example.com"}, res.Network.AllowedURLPrefixes)
	require.Equal(t, []string{"GET", "POST"}, res.Network.AllowedMethods)
	require.Equal(t, 5, res.Network.MaxRedirects)
}

func TestLoadParsesPostgresHosts(t *testing.T) {
	raw := []byte(`
allowed_postgres_hosts:
  - bare-host.internal
  - host: override.internal
    port: 5432
    database: mydb
    username: app
    password: secret
    ssl: true
`)
	res, err := Load(raw)
	require.NoError(t, err)
	require.Len(t, res.PostgresEntries, 2)
	require.Equal(t, "bare-host.internal", res.PostgresEntries[0])
	override, ok := res.PostgresEntries[1].(netgate.PostgresOverride)
	require.True(t, ok)
	require.Equal(t, "override.internal", override.Host)
	require.Equal(t, 5432, override.Port)
	require.True(t, override.SSL)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	raw := []byte(`totally_unknown_field: true`)
	_, err := Load(raw)
	require.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	raw := []byte("not: valid: yaml: [")
	_, err := Load(raw)
	require.Error(t, err)
}
