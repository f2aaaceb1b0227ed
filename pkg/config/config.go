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
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Admin        AdminConfig
	Uploads      UploadsConfig
	Cron         CronConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"NEWSLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"NEWSLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEWSLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEWSLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"NEWSLINE_DB_DSN"`

	Host     string `envconfig:"NEWSLINE_DB_HOST"`
	Port     int    `envconfig:"NEWSLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"NEWSLINE_DB_USER"`
	Password string `envconfig:"NEWSLINE_DB_PASSWORD"`
	Name     string `envconfig:"NEWSLINE_DB_NAME"`
	SSLMode  string `envconfig:"NEWSLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEWSLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEWSLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEWSLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEWSLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEWSLINE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"NEWSLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEWSLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEWSLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEWSLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEWSLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEWSLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEWSLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NEWSLINE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NEWSLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"NEWSLINE_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"NEWSLINE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEWSLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEWSLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEWSLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEWSLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEWSLINE_ARGON_KEY_LEN" default:"32"`
}

// AdminConfig guards the out-of-band admin signup endpoint.
type AdminConfig struct {
	RegistrationKey string `envconfig:"NEWSLINE_ADMIN_REG_KEY"`
}

type UploadsConfig struct {
	// Dir is the root the public upload tree lives under; stored paths
	// like /uploads/images/<name> resolve relative to it.
	Dir                string `envconfig:"NEWSLINE_UPLOADS_DIR" default:"./public"`
	MaxImageMB         int    `envconfig:"NEWSLINE_UPLOADS_MAX_IMAGE_MB" default:"10"`
	MaxVideoMB         int    `envconfig:"NEWSLINE_UPLOADS_MAX_VIDEO_MB" default:"50"`
	MaxFilesPerRequest int    `envconfig:"NEWSLINE_UPLOADS_MAX_FILES_PER_REQUEST" default:"10"`
}

// MaxImageBytes returns the image size ceiling in bytes.
func (u UploadsConfig) MaxImageBytes() int64 {
	return int64(u.MaxImageMB) * 1024 * 1024
}

// MaxVideoBytes returns the video size ceiling in bytes.
func (u UploadsConfig) MaxVideoBytes() int64 {
	return int64(u.MaxVideoMB) * 1024 * 1024
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"NEWSLINE_CRON_INTERVAL" default:"24h"`
	RetentionHours int           `envconfig:"NEWSLINE_UPLOADS_RETENTION_HOURS" default:"24"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NEWSLINE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEWSLINE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"NEWSLINE_DB_HOST": db.Host,
		"NEWSLINE_DB_USER": db.User,
		"NEWSLINE_DB_NAME": db.Name,
	}
	for _, env := range []string{"NEWSLINE_DB_HOST", "NEWSLINE_DB_USER", "NEWSLINE_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either NEWSLINE_DB_DSN or %s are required", strings.Join(missing, ", "))
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
