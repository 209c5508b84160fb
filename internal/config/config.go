package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv reads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // apply embedded migrations on startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	RabbitURL      string // AMQP URL for show events (empty disables publishing)
	ShowLogPath    string // file the event consumer appends to
	Log            LogConfig
	Storage        StorageConfig
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "console"
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is applied first when it
// exists.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	LoadDotEnv()
	env := must("APP_ENV")
	format := "console"
	if env == "prod" || env == "production" {
		format = "json"
	}
	return Config{
		Env:            env,                                // environment (dev/test/prod)
		Port:           must("APP_PORT"),                   // port to bind the HTTP server
		DBUser:         must("DB_USER"),                    // database user
		DBPass:         os.Getenv("DB_PASS"),               // database password (empty allowed)
		DBHost:         must("DB_HOST"),                    // database host
		DBPort:         must("DB_PORT"),                    // database port
		DBName:         must("DB_NAME"),                    // database name
		DBMigrate:      envBool("DB_MIGRATE", true),        // run migrations at startup
		JWTSecret:      must("JWT_SECRET"),                 // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),    // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),  // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),             // bcrypt cost factor
		RabbitURL:      os.Getenv("RABBITMQ_URL"),          // broker (optional)
		ShowLogPath:    envStr("SHOW_LOG_PATH", "logs/shows.log"),
		Log: LogConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Format: envStr("LOG_FORMAT", format),
		},
		Storage: LoadStorageConfig(),
	}
}

// LoadDotEnv applies .env (or the given files) to the process environment
// without overriding variables that are already set.  Missing files are
// ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: cannot read %s: %v", f, err)
		}
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
