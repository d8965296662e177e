package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIssueAndVerify verifies a round-trip preserves the user identity.
func TestIssueAndVerify(t *testing.T) {
	manager := NewTicketManager("test-secret", 5)

	ticket, err := manager.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	claims, err := manager.Verify(ticket)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

// TestVerify_WrongSecret verifies tickets signed with another key are rejected.
func TestVerify_WrongSecret(t *testing.T) {
	ticket, err := NewTicketManager("secret-a", 5).Issue(42)
	require.NoError(t, err)

	_, err = NewTicketManager("secret-b", 5).Verify(ticket)
	assert.Error(t, err)
}

// TestVerify_Garbage verifies malformed tickets are rejected.
func TestVerify_Garbage(t *testing.T) {
	_, err := NewTicketManager("secret", 5).Verify("not-a-jwt")
	assert.Error(t, err)
}

// TestTicketExpiry verifies expiry is derived from the configured minutes.
func TestTicketExpiry(t *testing.T) {
	manager := NewTicketManager("secret", 1)
	ticket, err := manager.Issue(1)
	require.NoError(t, err)

	claims, err := manager.Verify(ticket)
	require.NoError(t, err)
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 30*time.Second)
	assert.LessOrEqual(t, remaining, time.Minute)
}
