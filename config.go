package socketio

import "time"

// Options configures a Manager.
type Options struct {
	// HeartbeatInterval is the cadence at which streaming transports emit
	// heartbeat packets. Zero selects the default.
	HeartbeatInterval time.Duration

	// CloseTimeout is how long a polling transport keeps a request cycle
	// open waiting for data before finishing it empty.
	CloseTimeout time.Duration

	// Store is the cross-node substrate. Nil selects the in-process store.
	Store Store
}

func defaultOptions() *Options {
	return &Options{
		HeartbeatInterval: 15 * time.Second,
		CloseTimeout:      25 * time.Second,
	}
}

func getOptions(opts *Options) *Options {
	options := defaultOptions()

	if opts != nil {
		if opts.HeartbeatInterval > 0 {
			options.HeartbeatInterval = opts.HeartbeatInterval
		}

		if opts.CloseTimeout > 0 {
			options.CloseTimeout = opts.CloseTimeout
		}

		if opts.Store != nil {
			options.Store = opts.Store
		}
	}

	if options.Store == nil {
		options.Store = NewMemoryStore()
	}

	return options
}

// RedisStoreConfig is the configuration for the redis-backed store.
type RedisStoreConfig struct {
	Addr     string
	Prefix   string
	Network  string
	Password string
	DB       int
}

func (cfg *RedisStoreConfig) getAddr() string {
	return cfg.Addr
}

func defaultRedisConfig() *RedisStoreConfig {
	return &RedisStoreConfig{
		Addr:    "127.0.0.1:6379",
		Prefix:  "socket.io",
		Network: "tcp",
	}
}

func getRedisConfig(opts *RedisStoreConfig) *RedisStoreConfig {
	options := defaultRedisConfig()

	if opts != nil {
		if opts.Addr != "" {
			options.Addr = opts.Addr
		}

		if opts.Prefix != "" {
			options.Prefix = opts.Prefix
		}

		if opts.Network != "" {
			options.Network = opts.Network
		}

		if opts.DB > 0 {
			options.DB = opts.DB
		}

		if len(opts.Password) > 0 {
			options.Password = opts.Password
		}
	}

	return options
}
