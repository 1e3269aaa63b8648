package cache

import "time"

// RedisOption configures the redis-backed cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	Prefix       string
	DefaultTTL   time.Duration
}

// WithRedisAddr sets the host:port address.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisAuth sets password and database number.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithRedisPool sets connection pool settings.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
		c.PoolTimeout = timeout
	}
}

// WithRedisPrefix sets the key namespace prepended to every key.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// WithRedisDefaultTTL sets the expiry used when Set receives ttl <= 0.
func WithRedisDefaultTTL(ttl time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.DefaultTTL = ttl
	}
}

// MemoryOption configures the in-process cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds in-process cache settings.
type MemoryConfig struct {
	MaxEntries    int
	SweepInterval time.Duration
	DefaultTTL    time.Duration
}

// WithMemoryMaxEntries caps the number of cached payloads before LRU
// eviction kicks in.
func WithMemoryMaxEntries(n int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxEntries = n
	}
}

// WithMemorySweep sets how often expired entries are swept out.
func WithMemorySweep(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.SweepInterval = interval
	}
}

// WithMemoryDefaultTTL sets the expiry used when Set receives ttl <= 0.
func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.DefaultTTL = ttl
	}
}

// LayeredOption configures the two-level cache.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds layered cache settings.
type LayeredConfig struct {
	MemTTL     time.Duration
	MemEntries int
}

// WithLayeredMemTTL caps how long a redis hit stays in the local layer.
func WithLayeredMemTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemTTL = ttl
	}
}

// WithLayeredMemEntries sets the local layer capacity.
func WithLayeredMemEntries(n int) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemEntries = n
	}
}
