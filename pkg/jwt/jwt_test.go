package jwt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/config"
)

func TestGenerateAndValidate(t *testing.T) {
	Configure(config.JWTConfig{Secret: "test-secret", ExpirationHours: 1, Issuer: "pos-test"})

	id := uuid.New()
	token, err := GenerateToken(id, "cashier@shop.test", "Cashier", "EMPLOYEE", []string{"sale:create"}, "v1")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "EMPLOYEE", claims.RoleCode)
	assert.Equal(t, []string{"sale:create"}, claims.Privileges)

	Configure(config.JWTConfig{Secret: "rotated"})
	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
