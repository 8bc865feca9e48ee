package main

import (
	"flag"
	"fmt"
	"os"

	"wordslayer/internal/config"
	"wordslayer/internal/security"
)

// Mints a bearer token for local development
func main() {
	userID := flag.Int64("user", 0, "User ID to put in the token subject (required)")
	flag.Parse()

	if *userID <= 0 {
		fmt.Println("Error: -user is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET must be set")
		os.Exit(1)
	}

	token, err := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL).Issue(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
