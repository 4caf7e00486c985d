package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/knowhive/knowhive/pkg/secret/vault"
	"github.com/knowhive/knowhive/pkg/sqlstore"
)

const ENV_PREFIX = "KNOWHIVE_"

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := DefaultConfig()
	if err = toml.Unmarshal(raw, &conf); err != nil {
		panic(err)
	}
	return conf
}

// LoadBaseConfigFromENV reads KNOWHIVE_* variables, a .env file in the working directory is loaded first.
func LoadBaseConfigFromENV() CoreConfig {
	_ = godotenv.Load()
	c := DefaultConfig()
	c.FromENV()
	return c
}

// CoreConfig is built once at start-up and passed down by value.
type CoreConfig struct {
	Addr          string              `toml:"addr"`
	Log           Log                 `toml:"log"`
	Database      DatabaseConfig      `toml:"database"`
	Redis         RedisConfig         `toml:"redis"`
	Vault         VaultConfig         `toml:"vault"`
	Security      Security            `toml:"security"`
	Cors          CorsConfig          `toml:"cors"`
	LLM           LLMConfig           `toml:"llm"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`
	Process       ProcessConfig       `toml:"process"`
	Metrics       MetricsConfig       `toml:"metrics"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
}

func DefaultConfig() CoreConfig {
	return CoreConfig{
		Addr:     ":33033",
		Log:      Log{Level: "info"},
		Database: DatabaseConfig{Driver: sqlstore.DRIVER_POSTGRES},
		Vault:    VaultConfig{Mount: vault.DEFAULT_MOUNT, TimeoutSeconds: 10},
		Security: Security{TokenTTLMinutes: 60 * 24},
		LLM:      LLMConfig{TimeoutSeconds: 10},
		ObjectStorage: ObjectStorageDriver{
			Driver:   OBJECT_STORAGE_LOCAL,
			LocalDir: "./data/objects",
		},
		Process: ProcessConfig{
			ReconcileSpec:   "@every 10m",
			PurgeSpec:       "@daily",
			PurgeAfterHours: 24 * 30,
		},
		RateLimit: RateLimitConfig{PerMinute: 120},
	}
}

func (c *CoreConfig) FromENV() {
	setString(&c.Addr, "ADDR")
	c.Log.FromENV()
	c.Database.FromENV()
	c.Redis.FromENV()
	c.Vault.FromENV()
	c.Security.FromENV()
	c.Cors.FromENV()
	c.LLM.FromENV()
	c.ObjectStorage.FromENV()
	c.Process.FromENV()
	setBool(&c.Metrics.EnableLoadavg, "METRICS_ENABLE_LOADAVG")
	setInt(&c.RateLimit.PerMinute, "RATE_LIMIT_PER_MINUTE")
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(ENV_PREFIX + key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setList(dst *[]string, key string) {
	if v, ok := lookup(key); ok {
		var res []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				res = append(res, item)
			}
		}
		*dst = res
	}
}

// DatabaseConfig satisfies sqlstore.ConnectConfig.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // postgres or sqlite3
	DSN    string `toml:"dsn"`
}

func (d *DatabaseConfig) FromENV() {
	setString(&d.Driver, "DATABASE_DRIVER")
	setString(&d.DSN, "DATABASE_DSN")
}

func (d DatabaseConfig) DriverName() string {
	return d.Driver
}

func (d DatabaseConfig) FormatDSN() string {
	return d.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"` // empty disables redis, locks stay in process
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

func (r *RedisConfig) FromENV() {
	setString(&r.Addr, "REDIS_ADDR")
	setString(&r.Password, "REDIS_PASSWORD")
	setInt(&r.DB, "REDIS_DB")
}

type VaultConfig struct {
	Addr           string `toml:"addr"`
	Token          string `toml:"token"`
	Mount          string `toml:"mount"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

func (v *VaultConfig) FromENV() {
	setString(&v.Addr, "VAULT_ADDR")
	setString(&v.Token, "VAULT_TOKEN")
	setString(&v.Mount, "VAULT_MOUNT")
	setInt(&v.TimeoutSeconds, "VAULT_TIMEOUT_SECONDS")
	setInt(&v.MaxRetries, "VAULT_MAX_RETRIES")
}

func (v VaultConfig) ClientConfig() vault.Config {
	return vault.Config{
		Addr:       v.Addr,
		Token:      v.Token,
		Mount:      v.Mount,
		Timeout:    time.Duration(v.TimeoutSeconds) * time.Second,
		MaxRetries: v.MaxRetries,
	}
}

type Security struct {
	JWTSecret       string `toml:"jwt_secret"`
	TokenTTLMinutes int    `toml:"token_ttl_minutes"`
}

func (s *Security) FromENV() {
	setString(&s.JWTSecret, "JWT_SECRET")
	setInt(&s.TokenTTLMinutes, "TOKEN_TTL_MINUTES")
}

func (s Security) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLMinutes) * time.Minute
}

type CorsConfig struct {
	Origins []string `toml:"origins"`
}

func (c *CorsConfig) FromENV() {
	setList(&c.Origins, "CORS_ORIGINS")
}

type LLMConfig struct {
	VerifyCredentials bool `toml:"verify_credentials"`
	TimeoutSeconds    int  `toml:"timeout_seconds"`
}

func (l *LLMConfig) FromENV() {
	setBool(&l.VerifyCredentials, "LLM_VERIFY_CREDENTIALS")
	setInt(&l.TimeoutSeconds, "LLM_TIMEOUT_SECONDS")
}

func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

const (
	OBJECT_STORAGE_LOCAL = "local"
	OBJECT_STORAGE_S3    = "s3"
)

type ObjectStorageDriver struct {
	Driver   string    `toml:"driver"`
	LocalDir string    `toml:"local_dir"`
	S3       *S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

func (o *ObjectStorageDriver) FromENV() {
	setString(&o.Driver, "OBJECT_STORAGE_DRIVER")
	setString(&o.LocalDir, "OBJECT_STORAGE_LOCAL_DIR")
	if o.Driver != OBJECT_STORAGE_S3 {
		return
	}
	if o.S3 == nil {
		o.S3 = &S3Config{}
	}
	setString(&o.S3.Bucket, "S3_BUCKET")
	setString(&o.S3.Region, "S3_REGION")
	setString(&o.S3.Endpoint, "S3_ENDPOINT")
	setString(&o.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&o.S3.SecretKey, "S3_SECRET_KEY")
	setBool(&o.S3.UsePathStyle, "S3_USE_PATH_STYLE")
}

type ProcessConfig struct {
	ReconcileSpec   string `toml:"reconcile_spec"` // cron spec
	PurgeSpec       string `toml:"purge_spec"`
	PurgeAfterHours int    `toml:"purge_after_hours"`
}

func (p *ProcessConfig) FromENV() {
	setString(&p.ReconcileSpec, "PROCESS_RECONCILE_SPEC")
	setString(&p.PurgeSpec, "PROCESS_PURGE_SPEC")
	setInt(&p.PurgeAfterHours, "PROCESS_PURGE_AFTER_HOURS")
}

func (p ProcessConfig) PurgeAfter() time.Duration {
	return time.Duration(p.PurgeAfterHours) * time.Hour
}

type MetricsConfig struct {
	EnableLoadavg bool `toml:"enable_loadavg"`
}

type RateLimitConfig struct {
	PerMinute int `toml:"per_minute"` // per client ip, 0 disables
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	setString(&l.Level, "LOG_LEVEL")
	setString(&l.Path, "LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
