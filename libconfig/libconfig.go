// Package libconfig is the explicit collaborator bundle passed into reader
// and writer construction, replacing the "global site object" the original
// C++ core used for a process-wide default decoder and bitmap allocator.
// Built on internal/options's generic functional-option pattern, reused
// unchanged here since it is domain-agnostic plumbing.
package libconfig

import (
	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/codec"
	"github.com/carlzeiss/czi/internal/options"
)

// Config bundles the collaborators a reader or writer needs: the codec
// registry for subblock pixel decoding, an optional subblock cache, and the
// strict/lax validation mode.
type Config struct {
	Codecs                         *codec.Registry
	Cache                          cache.Cache
	Strict                         bool
	MinificationFactor             int32
	OnlyUseCacheForCompressedData  bool
}

// Option configures a Config.
type Option = options.Option[*Config]

// New builds a Config with sensible defaults (a fresh codec registry, no
// cache, lax validation, minification factor 2), then applies opts in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Codecs:             codec.NewRegistry(),
		Strict:             false,
		MinificationFactor: 2,
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithCodecs overrides the codec registry.
func WithCodecs(r *codec.Registry) Option {
	return options.NoError(func(c *Config) { c.Codecs = r })
}

// WithCache installs a subblock cache.
func WithCache(ch cache.Cache) Option {
	return options.NoError(func(c *Config) { c.Cache = ch })
}

// WithStrict enables strict-mode directory validation.
func WithStrict(strict bool) Option {
	return options.NoError(func(c *Config) { c.Strict = strict })
}

// WithMinificationFactor overrides the pyramid minification factor; must be >= 2.
func WithMinificationFactor(factor int32) Option {
	return options.NoError(func(c *Config) {
		if factor >= 2 {
			c.MinificationFactor = factor
		}
	})
}

// WithOnlyUseCacheForCompressedData restricts caching to subblocks whose
// compression is not Uncompressed.
func WithOnlyUseCacheForCompressedData(v bool) Option {
	return options.NoError(func(c *Config) { c.OnlyUseCacheForCompressedData = v })
}
