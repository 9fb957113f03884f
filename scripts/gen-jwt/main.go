// gen-jwt prints an access token for an existing user id: go run ./scripts/gen-jwt <user-id>
package main

import (
	"fmt"
	"os"

	"todo-api/internal/auth"
	"todo-api/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen-jwt <user-id>")
		os.Exit(2)
	}

	cfg := config.Get()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), nil)
	signed, err := tokens.IssueAccess(os.Args[1])
	if err != nil {
		panic(err)
	}

	fmt.Println(signed)
}
