package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/knowhive/knowhive/app/store/sqlstore"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/i18n"
	objectstorage "github.com/knowhive/knowhive/pkg/object-storage"
	"github.com/knowhive/knowhive/pkg/object-storage/local"
	"github.com/knowhive/knowhive/pkg/object-storage/s3"
	"github.com/knowhive/knowhive/pkg/secret/vault"
)

// SecretStore holds the llm api keys, addressed by (owner, credential).
type SecretStore interface {
	WriteSecret(ctx context.Context, ownerID, credentialID, value string) error
	ReadSecret(ctx context.Context, ownerID, credentialID string) (string, bool, error)
	DeleteSecret(ctx context.Context, ownerID, credentialID string) error
}

type Core struct {
	cfg CoreConfig

	stores    func() *sqlstore.Provider
	secrets   SecretStore
	storage   objectstorage.Storage
	redis     redis.UniversalClient
	locker    Locker
	limiters  *Limiters
	localizer i18n.Localizer
	checker   validator.CredentialChecker

	httpEngine *gin.Engine
	metrics    *Metrics
}

type Option func(*Core)

func WithStore(p *sqlstore.Provider) Option {
	return func(c *Core) {
		c.stores = func() *sqlstore.Provider { return p }
	}
}

func WithSecretStore(s SecretStore) Option {
	return func(c *Core) {
		c.secrets = s
	}
}

func WithObjectStorage(s objectstorage.Storage) Option {
	return func(c *Core) {
		c.storage = s
	}
}

func WithCredentialChecker(checker validator.CredentialChecker) Option {
	return func(c *Core) {
		c.checker = checker
	}
}

func WithLocker(l Locker) Option {
	return func(c *Core) {
		c.locker = l
	}
}

func setupLogger(cfg Log) {
	var writer io.Writer = os.Stdout
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

// MustSetupCore builds every collaborator the options did not provide.
// An empty jwt secret, an unreachable secret store or a rejected token stops the process.
func MustSetupCore(cfg CoreConfig, opts ...Option) *Core {
	setupLogger(cfg.Log)
	if cfg.Security.JWTSecret == "" {
		panic("security.jwt_secret is empty, set it in the config file or KNOWHIVE_JWT_SECRET")
	}

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("knowhive", "core"),
		httpEngine: gin.New(),
		localizer:  i18n.NewDefaultLocalizer(),
		limiters:   NewLimiters(cfg.RateLimit.PerMinute),
	}
	if cfg.LLM.VerifyCredentials {
		core.checker = validator.OpenAICredentialChecker(cfg.LLM.Timeout())
	}
	for _, opt := range opts {
		opt(core)
	}

	if core.stores == nil {
		core.stores = sqlstore.MustSetup(cfg.Database)
	}
	if core.secrets == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		core.secrets = vault.MustNew(ctx, cfg.Vault.ClientConfig())
		cancel()
	}
	if core.storage == nil {
		core.storage = mustSetupObjectStorage(cfg.ObjectStorage)
	}
	if cfg.Redis.Addr != "" {
		core.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if core.locker == nil {
		if core.redis != nil {
			core.locker = NewRedisLock(core.redis, "knowhive:lock:")
		} else {
			core.locker = NewSingleLock()
		}
	}
	return core
}

func mustSetupObjectStorage(cfg ObjectStorageDriver) objectstorage.Storage {
	switch cfg.Driver {
	case OBJECT_STORAGE_S3:
		if cfg.S3 == nil {
			panic("object storage driver s3 needs an [object_storage.s3] section")
		}
		cli, err := s3.NewS3Client(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey, s3.WithPathStyle(cfg.S3.UsePathStyle))
		if err != nil {
			panic(err)
		}
		return cli
	default:
		disk, err := local.New(cfg.LocalDir)
		if err != nil {
			panic(err)
		}
		return disk
	}
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Secrets() SecretStore {
	return s.secrets
}

func (s *Core) FileStorage() objectstorage.Storage {
	return s.storage
}

// Redis is nil when no address is configured.
func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

func (s *Core) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.locker.TryLock(ctx, key, ttl)
}

func (s *Core) UseLimiter(key string, opts ...LimitOption) Limiter {
	return s.limiters.Use(key, opts...)
}

func (s *Core) Localizer() i18n.Localizer {
	return s.localizer
}

// CredentialChecker is nil when remote verification is off.
func (s *Core) CredentialChecker() validator.CredentialChecker {
	return s.checker
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Close() error {
	if s.redis != nil {
		s.redis.Close()
	}
	return s.Store().Close()
}
