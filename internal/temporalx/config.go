package temporalx

import (
	"time"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	AutoRegister   bool
	RetentionDays  int
	WorkerParallel int
}

// Enabled reports whether a Temporal frontend was configured at all.
func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) tlsEnabled() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", "", nil),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "shopfront", nil),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "shopfront-orders", nil),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", "", nil),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", "", nil),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", "", nil),

		DialTimeout:    envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second),
		DialMaxWait:    envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second),
		AutoRegister:   envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:  envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 3),
		WorkerParallel: envutil.Int("TEMPORAL_WORKER_CONCURRENCY", 4),
	}
}
