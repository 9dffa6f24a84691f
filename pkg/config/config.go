package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	JoinCode     JoinCodeConfig
	Balances     BalancesConfig
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
	Env          string `envconfig:"HAMLET_APP_ENV" required:"true"`
	Port         string `envconfig:"HAMLET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HAMLET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HAMLET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"HAMLET_DB_DSN"`

	LegacyHost     string `envconfig:"HAMLET_DB_HOST"`
	LegacyPort     int    `envconfig:"HAMLET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HAMLET_DB_USER"`
	LegacyPassword string `envconfig:"HAMLET_DB_PASSWORD"`
	LegacyName     string `envconfig:"HAMLET_DB_NAME"`
	LegacySSLMode  string `envconfig:"HAMLET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAMLET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAMLET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAMLET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAMLET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HAMLET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAMLET_REDIS_ADDR"`
	Password     string        `envconfig:"HAMLET_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAMLET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAMLET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAMLET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAMLET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAMLET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAMLET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HAMLET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HAMLET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HAMLET_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AdminConfig struct {
	PIN string `envconfig:"HAMLET_ADMIN_PIN" required:"true"`
}

type JoinCodeConfig struct {
	ArgonMemoryKB    int `envconfig:"HAMLET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HAMLET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HAMLET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HAMLET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HAMLET_ARGON_KEY_LEN" default:"32"`
}

type BalancesConfig struct {
	CacheTTL time.Duration `envconfig:"HAMLET_BALANCES_CACHE_TTL" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HAMLET_AUTO_MIGRATE" default:"false"`
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
