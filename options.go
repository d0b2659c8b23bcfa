package payermatch

import (
	"log/slog"
	"runtime"

	"github.com/poiesic/payermatch/ai"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/matching"
	"github.com/poiesic/payermatch/search"
)

// Option configures a Service.
type Option func(*options) error

type options struct {
	logger           *slog.Logger
	aiConfig         *ai.Config
	provider         ai.AIProvider
	usersPath        string
	transactionsPath string
	users            []core.User
	transactions     []core.Transaction
	haveRecords      bool
	dbPath           string
	cacheCapacity    int
	poolSize         int
	weights          *matching.Weights
}

func defaultOptions() *options {
	return &options{
		logger:        slog.Default(),
		aiConfig:      ai.DefaultConfig(),
		cacheCapacity: search.DefaultCacheCapacity,
		poolSize:      runtime.NumCPU(),
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithAIConfig sets the configuration of the default OpenAI-compatible
// provider. It is ignored when WithProvider is used.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) error {
		if config == nil {
			config = ai.DefaultConfig()
		}
		if err := config.Validate(); err != nil {
			return err
		}
		o.aiConfig = config
		return nil
	}
}

// WithProvider injects an AI provider. The service takes ownership and
// closes it on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) error {
		if provider == nil {
			return ErrProviderRequired
		}
		o.provider = provider
		return nil
	}
}

// WithDataFiles imports users and transactions from CSV files on Open.
func WithDataFiles(usersPath, transactionsPath string) Option {
	return func(o *options) error {
		o.usersPath = usersPath
		o.transactionsPath = transactionsPath
		return nil
	}
}

// WithRecords imports the given records on Open instead of reading files.
func WithRecords(users []core.User, transactions []core.Transaction) Option {
	return func(o *options) error {
		o.users = users
		o.transactions = transactions
		o.haveRecords = true
		return nil
	}
}

// WithDBPath stores records in a badger directory at path.
// Default is an in-memory store.
func WithDBPath(path string) Option {
	return func(o *options) error {
		o.dbPath = path
		return nil
	}
}

// WithCacheCapacity bounds the embedding cache.
func WithCacheCapacity(capacity int) Option {
	return func(o *options) error {
		if capacity > 0 {
			o.cacheCapacity = capacity
		}
		return nil
	}
}

// WithPoolSize sets the number of workers used for batch matching and
// search scoring. Values <= 0 select the CPU count.
func WithPoolSize(size int) Option {
	return func(o *options) error {
		if size > 0 {
			o.poolSize = size
		}
		return nil
	}
}

// WithWeights replaces the default name scoring weights.
func WithWeights(weights matching.Weights) Option {
	return func(o *options) error {
		o.weights = &weights
		return nil
	}
}
