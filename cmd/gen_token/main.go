// Command gen_token prints a signed operator session token for local API
// testing against a dev server configured with the same secret.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := os.Getenv("APP_SIGNING_SECRET")
	if secret == "" {
		secret = "dev-signing-secret"
	}
	email := os.Getenv("TOKEN_EMAIL")
	if email == "" {
		email = "admin@stayport.local"
	}
	role := os.Getenv("TOKEN_ROLE")
	if role == "" {
		role = "admin"
	}

	claims := jwt.MapClaims{
		"email": email,
		"role":  role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(8 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	fmt.Println(signedToken)
}
