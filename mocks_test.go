package auth_test

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-auth-token"
	"github.com/stretchr/testify/mock"
)

const (
	testSecret    = "test-signing-secret-0123456789"
	testClusterID = "cluster-a"
)

// testConfig implements auth.Config for testing
type testConfig struct {
	factory   string
	secret    string
	kid       string
	jwks      string
	clusterID string
	ttl       int
}

func (c testConfig) GetSigningKeyFactory() string { return c.factory }
func (c testConfig) GetSigningKey() string        { return c.secret }
func (c testConfig) GetSigningKeyID() string      { return c.kid }
func (c testConfig) GetJWKS() string              { return c.jwks }
func (c testConfig) GetClusterID() string         { return c.clusterID }
func (c testConfig) GetTokenExpiration() int      { return c.ttl }

// MockAPITokenStore implements auth.APITokenStore for testing
type MockAPITokenStore struct {
	mock.Mock
}

func (m *MockAPITokenStore) FindBySubject(ctx context.Context, id string) (auth.APITokenRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(auth.APITokenRecord)
	return record, args.Error(1)
}

// MockAPITokenRecord implements auth.APITokenRecord for testing
type MockAPITokenRecord struct {
	mock.Mock
}

func (m *MockAPITokenRecord) IsExpired() bool {
	return m.Called().Bool(0)
}

func (m *MockAPITokenRecord) IsRevoked() bool {
	return m.Called().Bool(0)
}

func (m *MockAPITokenRecord) IsBeforeNotBeforeDate() bool {
	return m.Called().Bool(0)
}

func (m *MockAPITokenRecord) IsValid() bool {
	return m.Called().Bool(0)
}

type logCall struct {
	level   string
	message string
	args    []any
}

// captureLogger implements auth.Logger and records every call
type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.calls))
	for _, c := range l.calls {
		out = append(out, c.level)
	}
	return out
}

func newTestService(clusterID string, store auth.APITokenStore) *auth.TokenServiceImpl {
	logger := &captureLogger{}
	return auth.NewTokenService(
		auth.NewSigningKeyProvider(auth.StaticSigningKey([]byte(testSecret)), logger),
		auth.NewClusterIdentity(auth.StaticClusterID(clusterID), logger),
		store,
		logger,
	)
}
