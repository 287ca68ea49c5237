// Command budgetbolt-token issues a bearer token for an owner, signed with
// the configured JWT_SECRET. It is meant for local development and scripts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"budgetbolt/internal/auth"
	"budgetbolt/internal/cli"
)

func main() {
	owner := flag.String("owner", "", "owner id to issue the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_TOKEN_TTL)")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "usage: budgetbolt-token -owner <id> [-ttl 1h]")
		os.Exit(2)
	}
	lifetime := cfg.JWTTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, lifetime).Generate(*owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
}
