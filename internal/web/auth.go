package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Alp4ka/sloth/blog"
)

const actorKey = "actor"

var errNoSecret = errors.New("auth secret is not configured")

// IssueToken signs an admin token for email valid for ttl.
func IssueToken(secret, email string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}

	claims := jwt.RegisteredClaims{
		Subject:   strings.ToLower(email),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *Server) parseToken(raw string) (string, error) {
	if s.cfg.Auth.Secret == "" {
		return "", errNoSecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Auth.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

// requireAdmin lets through requests bearing a valid token whose subject is
// a configured admin.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			sendError(c, http.StatusUnauthorized, "Unauthorized", "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			sendError(c, http.StatusUnauthorized, "Unauthorized", "invalid authorization format")
			return
		}

		email, err := s.parseToken(parts[1])
		if err != nil {
			s.logger.WithError(err).Debug("token rejected")
			sendError(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}

		if !s.cfg.IsAdmin(email) {
			s.logger.WithField("email", email).Warn("access denied")
			sendError(c, http.StatusForbidden, "Forbidden", "not an admin")
			return
		}

		c.Set(actorKey, blog.Actor{Email: email})
		c.Next()
	}
}

func actorFrom(c *gin.Context) blog.Actor {
	actor, _ := c.Get(actorKey)
	a, _ := actor.(blog.Actor)
	return a
}
