package authUtils

import (
	"errors"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenConfig carries the signing secret and lifetime of issued tokens.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID primitive.ObjectID
	Role   models.Role
}

// GenerateToken signs an HS256 token carrying the user id and role.
func (tc TokenConfig) GenerateToken(userID primitive.ObjectID, role models.Role) (string, error) {
	if len(tc.Secret) == 0 {
		return "", errors.New("token secret is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.Hex(),
		"role":    string(role),
		"exp":     time.Now().Add(tc.TTL).Unix(),
	})

	return token.SignedString(tc.Secret)
}

// ParseToken verifies signature and expiry and extracts the claims.
func (tc TokenConfig) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tc.Secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("invalid token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}
	rawID, _ := mapClaims["user_id"].(string)
	userID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return Claims{}, errors.New("invalid user id in token")
	}
	rawRole, _ := mapClaims["role"].(string)
	role := models.Role(rawRole)
	if !role.Valid() {
		return Claims{}, fmt.Errorf("invalid role %q in token", rawRole)
	}
	return Claims{UserID: userID, Role: role}, nil
}
