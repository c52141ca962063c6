package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	BidRateLimit  BidRateLimitConfig
	Auction       AuctionConfig
	Outbox        OutboxConfig
	Seed          SeedConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Auction.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RPGMARKET_APP_ENV" required:"true"`
	Port         string   `envconfig:"RPGMARKET_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"RPGMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"RPGMARKET_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RPGMARKET_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RPGMARKET_DB_DSN"`
	Driver string `envconfig:"RPGMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RPGMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"RPGMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RPGMARKET_DB_USER"`
	LegacyPassword string `envconfig:"RPGMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"RPGMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"RPGMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RPGMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RPGMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RPGMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RPGMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"RPGMARKET_REDIS_URL"`
	Address      string        `envconfig:"RPGMARKET_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"RPGMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"RPGMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RPGMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RPGMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RPGMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RPGMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RPGMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RPGMARKET_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RPGMARKET_JWT_ISSUER" default:"rpg-market"`
	ExpirationMinutes      int    `envconfig:"RPGMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"RPGMARKET_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RPGMARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RPGMARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RPGMARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RPGMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RPGMARKET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RPGMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// BidRateLimitConfig throttles bids per user with a GCRA limiter in redis.
type BidRateLimitConfig struct {
	PerMinute int `envconfig:"RPGMARKET_BID_RATE_LIMIT_PER_MINUTE" default:"30"`
	Burst     int `envconfig:"RPGMARKET_BID_RATE_LIMIT_BURST" default:"10"`
}

type AuctionConfig struct {
	CloserInterval   time.Duration `envconfig:"RPGMARKET_AUCTION_CLOSER_INTERVAL" default:"30s"`
	CloserLockTTL    time.Duration `envconfig:"RPGMARKET_AUCTION_CLOSER_LOCK_TTL" default:"5m"`
	CloserBatchSize  int           `envconfig:"RPGMARKET_AUCTION_CLOSER_BATCH_SIZE" default:"100"`
	EndingSoonWindow time.Duration `envconfig:"RPGMARKET_AUCTION_ENDING_SOON_WINDOW" default:"24h"`
	MaxAttempts      int           `envconfig:"RPGMARKET_AUCTION_MAX_ATTEMPTS" default:"3"`
	RunInAPI         bool          `envconfig:"RPGMARKET_AUCTION_CLOSER_IN_API" default:"true"`
}

func (a AuctionConfig) validate() error {
	if a.CloserInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvAuctionCloserInterval)
	}
	if a.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvAuctionMaxAttempts)
	}
	return nil
}

type OutboxConfig struct {
	BatchSize   int           `envconfig:"RPGMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	Channel     string        `envconfig:"RPGMARKET_OUTBOX_CHANNEL" default:"rpg-market:events"`
	MaxAttempts int           `envconfig:"RPGMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention   time.Duration `envconfig:"RPGMARKET_OUTBOX_RETENTION" default:"720h"`
}

type SeedConfig struct {
	OnBoot        bool   `envconfig:"RPGMARKET_SEED_ON_BOOT" default:"false"`
	UserThreshold int64  `envconfig:"RPGMARKET_SEED_USER_THRESHOLD" default:"5"`
	RandomSeed    int64  `envconfig:"RPGMARKET_SEED_RANDOM_SEED" default:"42"`
	Password      string `envconfig:"RPGMARKET_SEED_PASSWORD" default:"123456"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RPGMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RPGMARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:rpg-market.db?cache=shared"
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
