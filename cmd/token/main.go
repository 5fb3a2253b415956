package main

import (
	"context"
	"flag"
	"log"
	"time"

	"soundtrack/internal/env"
	"soundtrack/pkg/spotify"
)

func main() {
	envPath := flag.String("env", env.DefaultPath, "file holding API credentials")
	flag.Parse()

	creds, err := env.Load(*envPath)
	if err != nil {
		log.Fatal(err)
	}
	clientID, err := creds.Require(env.SpotifyClientID)
	if err != nil {
		log.Fatal(err)
	}
	secret, err := creds.Require(env.SpotifyClientSecret)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tok, err := spotify.Authenticator{ClientID: clientID, ClientSecret: secret}.Token(ctx)
	if err != nil {
		log.Fatalf("Failed to get Spotify token: %v", err)
	}
	if _, err := creds.SetValue(env.SpotifyAccessToken, tok.AccessToken); err != nil {
		log.Fatalf("Failed to store Spotify token: %v", err)
	}
	log.Printf("🔑 %s updated in %s, valid until %s", env.SpotifyAccessToken, creds.Path(),
		time.Now().Add(tok.Lifetime()).Format(time.TimeOnly))
}
