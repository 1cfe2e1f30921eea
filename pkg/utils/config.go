package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	JWTDuration       time.Duration
	AdminPasswordHash string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("HSRDB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("HSRDB_JWT_ISSUER")
	if issuer == "" {
		issuer = "hsrdb"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("HSRDB_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       dur,
		AdminPasswordHash: os.Getenv("HSRDB_ADMIN_PASSWORD_HASH"),
	}
}

type ServerConfig struct {
	Addr          string
	ResourcesRoot string
	WebRoot       string
}

func LoadServerConfig() ServerConfig {
	addr := os.Getenv("HSRDB_ADDR")
	if addr == "" {
		addr = ":8787"
	}

	root := os.Getenv("HSRDB_RESOURCES_ROOT")
	if root == "" {
		root = "resources"
	}

	return ServerConfig{
		Addr:          addr,
		ResourcesRoot: root,
		WebRoot:       os.Getenv("HSRDB_WEB_ROOT"),
	}
}
