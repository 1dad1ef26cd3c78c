package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/familyrecipes/backend/config"
	"github.com/pageza/familyrecipes/backend/internal/seed"
	"github.com/pageza/familyrecipes/backend/internal/service"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

// Prints bearer tokens for the seeded family members.
func main() {
	member := flag.String("member", "", "issue a token for one member only")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	tokens := service.NewTokenService(cfg.JWTSecret)

	members := seed.Members
	if *member != "" {
		m, ok := seed.FindMember(*member)
		if !ok {
			log.Fatalf("Unknown member %q", *member)
		}
		members = []seed.Member{m}
	}

	for _, m := range members {
		actor := m.Actor()
		claims := &types.TokenClaims{
			UserID:   actor.UserID,
			Role:     actor.Role,
			FamilyID: actor.FamilyID,
		}
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(*ttl))

		token, err := tokens.GenerateToken(claims)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", m.Name, err)
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\n", m.Name, m.Role, actor.UserID, token)
	}
}
