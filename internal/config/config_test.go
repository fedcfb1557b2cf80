package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = log.New(io.Discard, "", 0)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN", "GITHUB_USERNAME", "GITHUB_API_URL", "GITHUB_GRAPHQL_URL",
		"GITHUB_HTTP_TIMEOUT", "GITHUB_REQUESTS_PER_MINUTE", "PR_FILE_FETCH_CONCURRENCY", "DASHBOARD_ADDR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "secret")

	cfg, err := Load(discard, filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, Config{
		Token:                "secret",
		APIURL:               "https://api.github.com/",
		HTTPTimeout:          30 * time.Second,
		FileFetchConcurrency: 8,
		ListenAddr:           "127.0.0.1:8080",
	}, cfg)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"GITHUB_TOKEN=from-file\nGITHUB_USERNAME=octocat\nGITHUB_HTTP_TIMEOUT=5s\nPR_FILE_FETCH_CONCURRENCY=4\n"), 0o600))
	t.Setenv("GITHUB_USERNAME", "from-env")

	cfg, err := Load(discard, envFile)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
	assert.Equal(t, "from-env", cfg.DefaultUsername, "the environment wins over the .env file")
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.FileFetchConcurrency)
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name           string
		env            map[string]string
		expectedErrMsg string
	}{
		{
			name:           "missing token",
			env:            map[string]string{},
			expectedErrMsg: "config validation",
		},
		{
			name:           "zero concurrency",
			env:            map[string]string{"GITHUB_TOKEN": "t", "PR_FILE_FETCH_CONCURRENCY": "0"},
			expectedErrMsg: "FileFetchConcurrency",
		},
		{
			name:           "malformed timeout",
			env:            map[string]string{"GITHUB_TOKEN": "t", "GITHUB_HTTP_TIMEOUT": "soon"},
			expectedErrMsg: "env load",
		},
		{
			name:           "invalid API URL",
			env:            map[string]string{"GITHUB_TOKEN": "t", "GITHUB_API_URL": "not a url"},
			expectedErrMsg: "APIURL",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load(discard, filepath.Join(t.TempDir(), "missing.env"))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}

func TestValidate_ListenAddr(t *testing.T) {
	base := Config{
		Token:                "t",
		APIURL:               "https://api.github.com/",
		HTTPTimeout:          time.Second,
		FileFetchConcurrency: 1,
	}
	testCases := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "happy path - host and port", addr: "127.0.0.1:9000"},
		{name: "happy path - hostname", addr: "localhost:8080"},
		{name: "error case - missing port", addr: "localhost", wantErr: true},
		{name: "error case - garbage", addr: "not an address", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.ListenAddr = tc.addr

			err := Validate(cfg)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ListenAddr")
				return
			}
			assert.NoError(t, err)
		})
	}
}
