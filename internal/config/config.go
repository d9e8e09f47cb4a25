package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration problems
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the credential TTLs
)

// insecureDefaultSecret is used when JWT_SECRET is unset. It exists so
// that local development works out of the box; production deployments
// must always override it and a warning is logged when they do not.
const insecureDefaultSecret = "change-me-in-production"

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, durations for
// TTLs, ints for costs.
type Config struct {
	Env          string        // application environment (e.g. "dev", "prod")
	Port         string        // HTTP port to listen on
	DBUser       string        // database username
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	JWTSecret    string        // secret used to sign access tokens
	AccessTTL    time.Duration // access token time-to-live
	RefreshTTL   time.Duration // refresh token time-to-live
	BcryptCost   int           // bcrypt cost for password hashing
	CookieSecure bool          // Secure attribute on session cookies
	CookiePath   string        // path both session cookies are scoped to
	AdminOnly    bool          // restrict login/refresh to admin accounts
}

// Load reads configuration values from environment variables and returns
// a Config. Connection settings are required and enforced by must();
// auth settings fall back to the documented defaults so the service can
// boot with nothing but database credentials configured.
func Load() Config {
	env := must("APP_ENV")
	cfg := Config{
		Env:          env,
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AccessTTL:    time.Duration(envInt("ACCESS_TOKEN_TTL_SECONDS", 900)) * time.Second,
		RefreshTTL:   time.Duration(envInt("REFRESH_TOKEN_TTL_SECONDS", 604800)) * time.Second,
		BcryptCost:   envInt("BCRYPT_COST", 10),
		CookieSecure: envBool("AUTH_COOKIE_SECURE", env == "prod"),
		CookiePath:   envStr("AUTH_COOKIE_PATH", "/api"),
		AdminOnly:    envBool("AUTH_ADMIN_ONLY", true),
	}
	if cfg.JWTSecret == "" {
		log.Printf("WARNING: JWT_SECRET is not set, using an insecure default secret")
		cfg.JWTSecret = insecureDefaultSecret
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}
