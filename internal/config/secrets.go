package config

import (
	"fmt"
	"os"
	"strings"
)

// Secrets holds credentials sourced exclusively from environment variables.
// They are never written to a config file and are held as byte slices so
// Scrub can overwrite them before process exit.
type Secrets struct {
	JWTSecret    []byte
	ClientID     []byte
	ClientSecret []byte
}

// LoadSecrets reads all required secrets, failing on any missing value.
func LoadSecrets() (*Secrets, error) {
	jwtSecret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	clientID, err := requireEnv("OAUTH_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	clientSecret, err := requireEnv("OAUTH_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	return &Secrets{
		JWTSecret:    []byte(jwtSecret),
		ClientID:     []byte(clientID),
		ClientSecret: []byte(clientSecret),
	}, nil
}

// Scrub overwrites the secret material in place.
func (s *Secrets) Scrub() {
	if s == nil {
		return
	}
	zero(s.JWTSecret)
	zero(s.ClientID)
	zero(s.ClientSecret)
	s.JWTSecret = nil
	s.ClientID = nil
	s.ClientSecret = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func requireEnv(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
