package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-token"
	"github.com/stretchr/testify/assert"
)

func TestClassifySubject(t *testing.T) {
	tests := []struct {
		subject  string
		expected auth.TokenType
	}{
		{subject: "", expected: auth.TokenTypeUser},
		{subject: "api", expected: auth.TokenTypeUser},
		{subject: "dotcms.org.1", expected: auth.TokenTypeUser},
		{subject: "API123", expected: auth.TokenTypeUser},
		{subject: " api123", expected: auth.TokenTypeUser},
		{subject: "api1", expected: auth.TokenTypeAPI},
		{subject: "api4b1a2c3d-0000-4000-8000-000000000000", expected: auth.TokenTypeAPI},
		{subject: auth.NewAPITokenID(), expected: auth.TokenTypeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.ClassifySubject(tt.subject))
			// deterministic
			assert.Equal(t, auth.ClassifySubject(tt.subject), auth.ClassifySubject(tt.subject))
		})
	}
}

func TestTokenType_String(t *testing.T) {
	assert.Equal(t, "user_token", auth.TokenTypeUser.String())
	assert.Equal(t, "api_token", auth.TokenTypeAPI.String())
}

func TestNewAPITokenID_Unique(t *testing.T) {
	a, b := auth.NewAPITokenID(), auth.NewAPITokenID()
	assert.NotEqual(t, a, b)
}

func TestToken_AllowsAddress(t *testing.T) {
	tests := []struct {
		name        string
		restriction string
		addr        string
		expected    bool
	}{
		{name: "no restriction", restriction: "", addr: "203.0.113.9", expected: true},
		{name: "inside cidr", restriction: "10.0.0.0/8", addr: "10.1.2.3", expected: true},
		{name: "outside cidr", restriction: "10.0.0.0/8", addr: "11.1.2.3", expected: false},
		{name: "single ip", restriction: "192.168.1.10", addr: "192.168.1.10", expected: true},
		{name: "list", restriction: "10.0.0.0/8, 172.16.0.0/12", addr: "172.16.5.4", expected: true},
		{name: "mapped ipv4", restriction: "10.0.0.0/8", addr: "::ffff:10.0.0.1", expected: true},
		{name: "ipv6", restriction: "2001:db8::/32", addr: "2001:db8::1", expected: true},
		{name: "everything", restriction: "0.0.0.0/0", addr: "8.8.8.8", expected: true},
		{name: "garbage address", restriction: "10.0.0.0/8", addr: "nope", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &auth.UserToken{AllowFromNetwork: tt.restriction}
			api := &auth.APIToken{AllowFromNetwork: tt.restriction}
			assert.Equal(t, tt.expected, user.AllowsAddress(tt.addr))
			assert.Equal(t, tt.expected, api.AllowsAddress(tt.addr))
		})
	}
}

func TestToken_Validate(t *testing.T) {
	assert.NoError(t, (&auth.UserToken{UserID: "user-1", AllowFromNetwork: "10.0.0.0/8,127.0.0.1"}).Validate())
	assert.Error(t, (&auth.UserToken{UserID: "user-1", AllowFromNetwork: "10.0.0.0/33"}).Validate())
	assert.Error(t, (&auth.APIToken{}).Validate())
	assert.NoError(t, (&auth.APIToken{ID: auth.NewAPITokenID()}).Validate())
}
