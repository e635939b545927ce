package security

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	jwtSecret     []byte
	jwtSecretOnce sync.Once
)

// secret resolves JWT_SECRET lazily so packages importing helpers from here
// do not require the variable until a token is actually minted or parsed.
func secret() []byte {
	jwtSecretOnce.Do(func() {
		value := os.Getenv("JWT_SECRET")
		if value == "" {
			if err := godotenv.Load(); err == nil {
				value = os.Getenv("JWT_SECRET")
			}
		}
		if value == "" {
			log.Fatal("JWT_SECRET environment variable is not set")
		}
		jwtSecret = []byte(value)
	})
	return jwtSecret
}

func AuthenticateUser(username, password string, repo *repository.Repository) (*models.User, error) {
	var user models.User

	query := repo.GoquDBWrapper.Select("id", "username", "password_hash", "role").From("users").Where(goqu.Ex{"username": username})

	if _, err := query.Executor().ScanStruct(&user); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}

	return &user, nil
}

func GenerateJWT(userID string, role string, username string) (string, error) {
	claims := jwt.MapClaims{
		"userID":   userID,
		"role":     role,
		"username": username,
		"exp":      time.Now().Add(time.Hour * 120).Unix(), // 5 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// CurrentUserID returns the authenticated user id stored by JWTMiddleware.
func CurrentUserID(c *gin.Context) (int, error) {
	value, ok := c.Get("userID")
	if !ok {
		return 0, fmt.Errorf("no authenticated user on request")
	}

	raw, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("userID is not a string")
	}

	userID, err := strconv.Atoi(raw)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("invalid userID claim: %q", raw)
	}

	return userID, nil
}

// IsAllowed reports whether the request carries the given role. Admins pass
// every role gate.
func IsAllowed(c *gin.Context, requiredRole string) bool {
	value, ok := c.Get("role")
	if !ok {
		return false
	}

	role, ok := value.(string)
	if !ok {
		return false
	}

	return role == RoleAdmin || role == requiredRole
}
