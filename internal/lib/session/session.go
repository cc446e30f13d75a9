package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"barstock/internal/domain/models"
)

// CookieName is the cookie the browser returns on every request after login.
const CookieName = "barstock_session"

// Identity is the authenticated user a valid session token resolves to.
type Identity struct {
	UserID   int
	Username string
	Role     models.Role
}

// NewToken signs a session token bound to the user's id, username and role.
func NewToken(user *models.User, secret string, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = user.ID
	claims["username"] = user.Username
	claims["role"] = user.Role.String()
	claims["exp"] = time.Now().Add(duration).Unix()

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and extracts the identity.
func ParseToken(tokenString string, secret string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid uid claim")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("invalid username claim")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid role claim")
	}
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", roleStr)
	}

	return &Identity{
		UserID:   int(uid),
		Username: username,
		Role:     role,
	}, nil
}
