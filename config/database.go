package config

// DBConfig contains PostgreSQL connection settings.
type DBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"tallyworks"`
	Password string `env:"PASSWORD" envDefault:"tallyworks"`
	Name     string `env:"NAME" envDefault:"tallyworks"`
	// SSLMode goes into the pgx DSN verbatim; disable suits the local
	// compose setup, require belongs in production.
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`
	// RunMigrationsOnStart applies pending migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis connection settings for every supported
// topology. URI drives the standalone client; sentinel and cluster take
// over when their Use* flags are set.
type RedisConfig struct {
	URI                string   `env:"URI" envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD" envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES" envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD" envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL" envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES" envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER" envDefault:"false"`
}
