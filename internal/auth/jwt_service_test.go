package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := service.GenerateAccessToken(userID, "test@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	parsedID, err := claims.UserID()
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New()

	first, err := service.GenerateAccessToken(userID, "test@example.com")
	assert.NoError(t, err)
	second, err := service.GenerateAccessToken(userID, "test@example.com")
	assert.NoError(t, err)

	firstClaims, err := service.ValidateToken(first)
	assert.NoError(t, err)
	secondClaims, err := service.ValidateToken(second)
	assert.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestJWTService_ValidateToken_Invalid(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage token",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewJWTService("other-secret")
				token, err := other.GenerateAccessToken(userID, "test@example.com")
				assert.NoError(t, err)
				return token
			},
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				claims := &Claims{
					Email: "test@example.com",
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   userID.String(),
						ID:        uuid.New().String(),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
						IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
					},
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
				assert.NoError(t, err)
				return token
			},
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				claims := &Claims{
					Email: "test@example.com",
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.New().String(),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
				assert.NoError(t, err)
				return token
			},
		},
		{
			name: "unsigned token",
			token: func(t *testing.T) string {
				claims := &Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   userID.String(),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				assert.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token(t))
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
