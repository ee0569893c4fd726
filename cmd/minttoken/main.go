package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/service"
)

// Development identities minted by -dev-set. The service has no signup
// flow; tokens normally come from the platform's identity provider.
var devIdentities = []struct {
	identity string
	name     string
}{
	{"dev-alice", "Alice Example"},
	{"dev-bob", "Bob Example"},
	{"dev-carol", "Carol Example"},
}

func main() {
	identity := flag.String("identity", "", "subject to mint a token for")
	name := flag.String("name", "", "display name carried in the token")
	devSet := flag.Bool("dev-set", false, "mint tokens for the built-in development identities")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not configured")
	}

	tokens := service.NewJWTService(cfg.Auth.JWTSecret)

	if *devSet {
		for _, id := range devIdentities {
			token, err := tokens.GenerateToken(id.identity, id.name)
			if err != nil {
				log.Fatalf("Failed to mint token for %s: %v", id.identity, err)
			}
			fmt.Printf("%s\t%s\n", id.identity, token)
		}
		return
	}

	if *identity == "" {
		log.Fatal("either -identity or -dev-set is required")
	}
	token, err := tokens.GenerateToken(*identity, *name)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
