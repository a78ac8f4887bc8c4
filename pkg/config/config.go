package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Cache         CacheConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"COMMERCE_APP_ENV" required:"true"`
	Port         string `envconfig:"COMMERCE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"COMMERCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COMMERCE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"COMMERCE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COMMERCE_DB_DSN"`
	Driver string `envconfig:"COMMERCE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"COMMERCE_DB_HOST"`
	Port     int    `envconfig:"COMMERCE_DB_PORT" default:"5432"`
	User     string `envconfig:"COMMERCE_DB_USER"`
	Password string `envconfig:"COMMERCE_DB_PASSWORD"`
	Name     string `envconfig:"COMMERCE_DB_NAME"`
	SSLMode  string `envconfig:"COMMERCE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"COMMERCE_REDIS_URL"`
	Address      string        `envconfig:"COMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"COMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a cache endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"COMMERCE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COMMERCE_JWT_ISSUER" default:"commerce-backend"`
	ExpirationMinutes int    `envconfig:"COMMERCE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"COMMERCE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COMMERCE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COMMERCE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COMMERCE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COMMERCE_ARGON_KEY_LEN" default:"32"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `envconfig:"COMMERCE_CACHE_CATALOG_TTL" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"COMMERCE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"COMMERCE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"COMMERCE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"COMMERCE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"COMMERCE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"COMMERCE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"COMMERCE_DB_HOST": db.Host,
		"COMMERCE_DB_USER": db.User,
		"COMMERCE_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either COMMERCE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
