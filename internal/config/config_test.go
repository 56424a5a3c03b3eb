package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode(newViper(t, "server:\n  port: \"9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Access.MaxFolderDepth)
	assert.Equal(t, 5*time.Minute, cfg.Access.GrantCacheTTL)
	assert.Equal(t, 32, cfg.Share.TokenBytes)
	assert.Equal(t, "audit:retry", cfg.Audit.RetryStream)
	assert.Equal(t, "minio", cfg.Storage.Type)
}

func TestDecode_Overrides(t *testing.T) {
	yaml := `
access:
  max_folder_depth: 50
  grant_cache_ttl: 30s
share:
  token_bytes: 24
  presigned_url_expiry: 2m
elasticsearch:
  addresses: ["http://es:9200"]
`
	cfg, err := Decode(newViper(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Access.MaxFolderDepth)
	assert.Equal(t, 30*time.Second, cfg.Access.GrantCacheTTL)
	assert.Equal(t, 24, cfg.Share.TokenBytes)
	assert.Equal(t, 2*time.Minute, cfg.Share.PresignedURLExpiry)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Elasticsearch.Addresses)
}

func TestDecode_RejectsShortTokens(t *testing.T) {
	_, err := Decode(newViper(t, "share:\n  token_bytes: 8\n"))
	assert.Error(t, err)
}

func TestDecode_RejectsNonPositiveDepth(t *testing.T) {
	_, err := Decode(newViper(t, "access:\n  max_folder_depth: 0\n"))
	assert.Error(t, err)
}
