package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-auth-token/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, db string) {
	t.Helper()
	t.Setenv(config.EnvSigningKeyFactory, "")
	t.Setenv(config.EnvSigningKey, "tokenctl-signing-secret-0123456789")
	t.Setenv(config.EnvClusterID, "cluster-cli")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvRedisAddr, "")
	if db != "" {
		t.Setenv(config.EnvDBDriver, "sqlite3")
		t.Setenv(config.EnvDBDSN, db)
	} else {
		t.Setenv(config.EnvDBDriver, "")
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestIssueUserAndVerify(t *testing.T) {
	setEnv(t, "")

	out, err := runCLI(t, "issue-user", "--user", "user-1", "--ttl", "1h")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = runCLI(t, "verify", token)
	require.NoError(t, err)
	assert.Contains(t, out, "type: user_token")
	assert.Contains(t, out, "subject: user-1")
	assert.Contains(t, out, "issuer: cluster-cli")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	setEnv(t, "")

	_, err := runCLI(t, "verify", "not-a-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_invalid_signature")
}

func TestAPITokenLifecycle(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "auth.db"))

	_, err := runCLI(t, "migrate")
	require.NoError(t, err)

	out, err := runCLI(t, "issue-api", "--user", "user-1", "--ttl", "24h", "--claim", "scope=reports")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id, token := lines[0], lines[1]

	out, err = runCLI(t, "verify", token)
	require.NoError(t, err)
	assert.Contains(t, out, "type: api_token")
	assert.Contains(t, out, "subject: "+id)
	assert.Contains(t, out, "claim scope: reports")

	_, err = runCLI(t, "revoke", id)
	require.NoError(t, err)

	_, err = runCLI(t, "verify", token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_token_revoked")
}

func TestUsageErrors(t *testing.T) {
	setEnv(t, "")

	_, err := runCLI(t)
	assert.Error(t, err)

	_, err = runCLI(t, "frobnicate")
	assert.Error(t, err)

	_, err = runCLI(t, "issue-api", "--user", "user-1")
	assert.Error(t, err, "issue-api needs a database")

	_, err = runCLI(t, "verify")
	assert.Error(t, err)
}
