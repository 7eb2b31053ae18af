package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingKey_PreservesEmailCase(t *testing.T) {
	assert.Equal(t, "signup:pending:alice@example.com", pendingKey("alice@example.com"))
	assert.Equal(t, "signup:pending:Alice@example.com", pendingKey("Alice@example.com"))
	assert.NotEqual(t, pendingKey("Alice@example.com"), pendingKey("alice@example.com"),
		"emails differing in case stage independently, like the users table treats them")
}
