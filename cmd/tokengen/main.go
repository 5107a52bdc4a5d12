// Command tokengen mints bearer tokens for local development, signed with the
// same JWT_SECRET and JWT_ISSUER the API server reads.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cimillas/event-horizon/internal/auth"
	"github.com/cimillas/event-horizon/internal/config"
	"github.com/cimillas/event-horizon/internal/domain"
)

func main() {
	var subject, role string
	var ttl time.Duration
	flag.StringVar(&subject, "sub", "", "principal id (token subject)")
	flag.StringVar(&role, "role", string(domain.RoleRegistrant), "role: registrant, organizer or admin")
	flag.DurationVar(&ttl, "ttl", 0, "token lifetime (default: JWT_TTL)")
	flag.Parse()

	token, err := mint(subject, domain.Role(role), ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(subject string, role domain.Role, ttl time.Duration) (string, error) {
	cfg, err := config.Load(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = cfg.JWTTTL
	}

	issuer, err := auth.NewIssuer(auth.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    ttl,
	})
	if err != nil {
		return "", err
	}
	return issuer.Issue(domain.Principal{ID: subject, Role: role})
}
