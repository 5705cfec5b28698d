package queue

import (
	"log/slog"
	"time"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
)

// Options holds everything a Queue is configured with. A Queue keeps one
// Options value behind an atomic pointer and replaces it on Reconfigure.
type Options struct {
	Config Config
	Codec  codec.Codec
	Logger *slog.Logger
	Clock  func() time.Time
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Config: DefaultConfig(),
		Codec:  codec.JSON{},
		Logger: slog.Default(),
		Clock:  time.Now,
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// StallTimeout sets how long a claimed job may go without a heartbeat.
func StallTimeout(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Config.StallTimeout = d
	})
}

// MaxRetries sets how many stall reclaims a job survives before it fails.
func MaxRetries(n int) Option {
	return optionFunc(func(o *Options) {
		o.Config.MaxRetries = n
	})
}

// DoneRetention sets how long completed jobs are kept.
func DoneRetention(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Config.DoneRetention = d
	})
}

// FailedRetention sets how long failed jobs are kept.
func FailedRetention(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Config.FailedRetention = d
	})
}

// WithConfig replaces all four timing and retry settings at once.
func WithConfig(c Config) Option {
	return optionFunc(func(o *Options) {
		o.Config = c
	})
}

// WithCodec sets the payload codec. Changing the codec of a queue that
// already holds jobs makes their payloads unreadable.
func WithCodec(c codec.Codec) Option {
	return optionFunc(func(o *Options) {
		o.Codec = c
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		o.Logger = l
	})
}

// WithClock sets the time source. Mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *Options) {
		o.Clock = now
	})
}

func (o *Options) validate() error {
	if o.Codec == nil {
		return core.ErrNilCodec
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o.Config.Validate()
}
