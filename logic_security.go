package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (a *App) createOperatorSessionToken(session OperatorSession) (string, error) {
	claims := jwt.MapClaims{
		"email": session.Email,
		"role":  session.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(adminSessionDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.AppSigningSecret))
}

func (a *App) verifyOperatorSessionToken(tokenString string) (*OperatorSession, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(a.cfg.AppSigningSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if email == "" || !containsString(operatorRoles, role) {
		return nil, fmt.Errorf("invalid session payload")
	}
	return &OperatorSession{Email: email, Role: role}, nil
}

func (a *App) requireOperatorSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Operator session required"})
			c.Abort()
			return
		}
		session, err := a.verifyOperatorSessionToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Operator session required"})
			c.Abort()
			return
		}
		c.Set("operatorSession", *session)
		c.Next()
	}
}

func (a *App) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get("operatorSession")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Operator session required"})
			c.Abort()
			return
		}
		session, ok := value.(OperatorSession)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Operator session required"})
			c.Abort()
			return
		}
		if session.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getOperatorSession(c *gin.Context) (OperatorSession, error) {
	value, ok := c.Get("operatorSession")
	if !ok {
		return OperatorSession{}, fmt.Errorf("missing session")
	}
	session, ok := value.(OperatorSession)
	if !ok {
		return OperatorSession{}, fmt.Errorf("invalid session")
	}
	return session, nil
}

// generateBookingPublicID returns a short uppercase reference code guests use
// to look up their booking status.
func generateBookingPublicID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
