// cmd/devtoken/main.go: issues a signed access token for local testing.
// Uso: go run ./cmd/devtoken -user maria -role estoque
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"notaentrada/internal/config"
	"notaentrada/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	user := flag.String("user", "admin", "username recorded as actor on the timeline")
	role := flag.String("role", middleware.RoleAdmin, "estoque | financeiro | admin")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	switch *role {
	case middleware.RoleStock, middleware.RoleFinance, middleware.RoleAdmin:
	default:
		log.Fatalf("papel desconhecido: %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET não definido")
	}

	now := time.Now()
	token, err := middleware.SignToken(cfg.JWTSecret, *user, *role, jwt.RegisteredClaims{
		Subject:   *user,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
	})
	if err != nil {
		log.Fatalf("assinar token: %v", err)
	}
	fmt.Println(token)
}
