package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HANBIT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv     = "HANBIT_APP_ENV"
	EnvPort       = "HANBIT_APP_PORT"
	EnvDBDSN      = "HANBIT_DB_DSN"
	EnvDBHost     = "HANBIT_DB_HOST"
	EnvDBUser     = "HANBIT_DB_USER"
	EnvDBName     = "HANBIT_DB_NAME"
	EnvRedisURL   = "HANBIT_REDIS_URL"
	EnvJWTSecret  = "HANBIT_JWT_SECRET"
	EnvJWTIssuer  = "HANBIT_JWT_ISSUER"
	EnvJWTExpMins = "HANBIT_JWT_EXPIRATION_MINUTES"

	EnvRefreshTokenTTLMinutes = "HANBIT_REFRESH_TOKEN_TTL_MINUTES"

	EnvPortOneAPIKey    = "HANBIT_PORTONE_API_KEY"
	EnvPortOneAPISecret = "HANBIT_PORTONE_API_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	PortOne      PortOneConfig
	Shipping     ShippingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HANBIT_APP_ENV" required:"true"`
	Port         string   `envconfig:"HANBIT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HANBIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HANBIT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HANBIT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HANBIT_DB_DSN"`
	Driver string `envconfig:"HANBIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HANBIT_DB_HOST"`
	LegacyPort     int    `envconfig:"HANBIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HANBIT_DB_USER"`
	LegacyPassword string `envconfig:"HANBIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"HANBIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"HANBIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HANBIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HANBIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HANBIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HANBIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HANBIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HANBIT_REDIS_ADDR"`
	Password     string        `envconfig:"HANBIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"HANBIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HANBIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HANBIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HANBIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HANBIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HANBIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HANBIT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HANBIT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HANBIT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HANBIT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HANBIT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HANBIT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HANBIT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HANBIT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HANBIT_ARGON_KEY_LEN" default:"32"`
}

// PortOneConfig holds the server-side credentials for payment verification.
// The API key/secret pair is exchanged for a short-lived access token; an
// absent pair is a hard failure at verification time, never a retry.
type PortOneConfig struct {
	APIKey    string        `envconfig:"HANBIT_PORTONE_API_KEY"`
	APISecret string        `envconfig:"HANBIT_PORTONE_API_SECRET"`
	BaseURL   string        `envconfig:"HANBIT_PORTONE_BASE_URL" default:"https://api.iamport.kr"`
	Timeout   time.Duration `envconfig:"HANBIT_PORTONE_TIMEOUT" default:"10s"`
}

type ShippingConfig struct {
	DefaultCountry string `envconfig:"HANBIT_SHIPPING_DEFAULT_COUNTRY" default:"KR"`
	DefaultFee     int    `envconfig:"HANBIT_SHIPPING_DEFAULT_FEE" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HANBIT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
