package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/integrations/pkg/document"
	"github.com/dmitrymomot/integrations/pkg/email"
	"github.com/dmitrymomot/integrations/pkg/environment"
	"github.com/dmitrymomot/integrations/pkg/file"
	"github.com/dmitrymomot/integrations/pkg/httpserver"
	"github.com/dmitrymomot/integrations/pkg/logger"
	"github.com/dmitrymomot/integrations/pkg/redis"
)

const (
	driverS3    = "s3"
	driverMinIO = "minio"
	driverLocal = "local"
)

type appConfig struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`
	Name          string        `env:"APP_NAME" envDefault:"integrations"`
	Namespace     string        `env:"RPC_NAMESPACE" envDefault:"integration."`
	RedisPrefix   string        `env:"RPC_REDIS_PREFIX" envDefault:"integration"`
	Concurrency   int           `env:"RPC_CONCURRENCY" envDefault:"8"`
	RPCTimeout    time.Duration `env:"RPC_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxBodySize   int64         `env:"RPC_MAX_BODY_SIZE" envDefault:"16777216"`
	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"s3"`
	MaxUploadSize int64         `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"`
	VerifyUploads bool          `env:"UPLOAD_VERIFY_AFTER_PUT" envDefault:"false"`
	MetricsPrefix string        `env:"METRICS_NAMESPACE" envDefault:"integrations"`
	ReadyTimeout  time.Duration `env:"READINESS_TIMEOUT" envDefault:"5s"`
}

func (c *appConfig) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case driverS3, driverMinIO, driverLocal:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of s3, minio, local; got %q", c.StorageDriver)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	if c.MaxBodySize < c.MaxUploadSize {
		return fmt.Errorf("RPC_MAX_BODY_SIZE must be at least UPLOAD_MAX_SIZE")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("RPC_CONCURRENCY must be at least 1")
	}
	return nil
}

// settings groups every env-loaded section the process needs.
type settings struct {
	App      appConfig
	Log      logger.Config
	HTTP     httpserver.Config
	Redis    redis.Config
	Email    email.Config
	Document document.Config
	S3       file.S3Config
	MinIO    file.MinIOConfig
	Local    file.LocalConfig
}

// checkDeployment rejects local-only backends outside development and test.
func checkDeployment(s settings) error {
	env := environment.Parse(s.App.Env)
	if !env.IsDeployed() {
		return nil
	}
	if s.App.StorageDriver == driverLocal {
		return fmt.Errorf("STORAGE_DRIVER=local is not allowed in %s", env)
	}
	if s.Email.Driver == email.DriverDev || s.Email.Driver == "" {
		return fmt.Errorf("EMAIL_DRIVER=dev is not allowed in %s", env)
	}
	return nil
}
