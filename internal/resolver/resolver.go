// Package resolver turns a resource reference into bytes.
//
// A reference starting with http:// or https:// is fetched over the network
// through an optional cache; anything else is looked up as a relative path
// under each configured root in order. When both fail, a replacement hook
// gets a chance to supply content before the reference is reported as not
// found.
package resolver

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/monitoring"
	"github.com/user/embed-images/internal/proxy"
)

// ReplacementFunc supplies substitute content for a reference that could not
// be retrieved. Returning false means no replacement.
type ReplacementFunc func(ctx context.Context, ref string) ([]byte, bool)

// NoReplacement is the default ReplacementFunc.
func NoReplacement(context.Context, string) ([]byte, bool) {
	return nil, false
}

// Resolver loads references from the network or the filesystem.
// It is safe for concurrent use if its cache is.
type Resolver struct {
	cache       cache.Cache
	roots       []string
	timeout     Timeout
	client      *http.Client
	replacement ReplacementFunc
	proxies     *proxy.Manager
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache puts c in front of network fetches. A nil cache disables caching.
func WithCache(c cache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithRoots sets the directories searched for relative references, in order.
func WithRoots(roots ...string) Option {
	return func(r *Resolver) { r.roots = roots }
}

// WithTimeout bounds each network fetch. Ignored when WithHTTPClient is given.
func WithTimeout(t Timeout) Option {
	return func(r *Resolver) { r.timeout = t }
}

// WithHTTPClient replaces the client built from the timeout and proxy settings.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithReplacement installs the replacement hook.
func WithReplacement(fn ReplacementFunc) Option {
	return func(r *Resolver) { r.replacement = fn }
}

// WithProxyManager routes fetches through pm's proxies and user agents.
func WithProxyManager(pm *proxy.Manager) Option {
	return func(r *Resolver) { r.proxies = pm }
}

// WithLogger sets the logger used for fetch and cache failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics records resolution outcomes and fetch durations in m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New returns a Resolver searching "." with no cache and no replacement.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		roots:       []string{"."},
		replacement: NoReplacement,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.replacement == nil {
		r.replacement = NoReplacement
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.client == nil {
		r.client = NewHTTPClient(r.timeout, r.proxies)
	}
	return r
}

// IsURL reports whether ref is fetched over the network.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load resolves ref. Errors match ErrNotFound.
func (r *Resolver) Load(ctx context.Context, ref string) ([]byte, error) {
	if IsURL(ref) {
		return r.LoadURL(ctx, ref)
	}
	return r.LoadFile(ctx, ref)
}

// LoadURL returns cached content for url, fetching and caching it on a miss.
// A cached entry is returned even if the remote resource has since changed.
func (r *Resolver) LoadURL(ctx context.Context, url string) ([]byte, error) {
	if content, ok := r.cacheGet(ctx, url); ok {
		r.metrics.IncResolution(monitoring.SourceCache, "hit")
		return content, nil
	}

	content, err := r.fetch(ctx, url)
	if err != nil {
		r.metrics.IncResolution(monitoring.SourceNetwork, "failed")
		r.logger.Error("failed to fetch resource", zap.String("url", url), zap.Error(err))
		if repl, ok := r.replace(ctx, url); ok {
			return repl, nil
		}
		return nil, &NotFoundError{Ref: url, Err: err}
	}
	r.metrics.IncResolution(monitoring.SourceNetwork, "ok")

	r.cacheSet(ctx, url, content)
	return content, nil
}

// LoadFile returns the first regular file named path under the configured roots.
func (r *Resolver) LoadFile(ctx context.Context, path string) ([]byte, error) {
	for _, root := range r.roots {
		full := filepath.Join(root, path)
		info, err := os.Stat(full)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				r.logger.Debug("stat failed", zap.String("path", full), zap.Error(err))
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		content, err := os.ReadFile(full)
		if err != nil {
			r.logger.Warn("failed to read resource file", zap.String("path", full), zap.Error(err))
			continue
		}
		r.metrics.IncResolution(monitoring.SourceFilesystem, "ok")
		return content, nil
	}
	r.metrics.IncResolution(monitoring.SourceFilesystem, "failed")

	if repl, ok := r.replace(ctx, path); ok {
		return repl, nil
	}
	return nil, &NotFoundError{Ref: path}
}

func (r *Resolver) replace(ctx context.Context, ref string) ([]byte, bool) {
	content, ok := r.replacement(ctx, ref)
	if !ok || content == nil {
		return nil, false
	}
	r.metrics.IncResolution(monitoring.SourceReplacement, "ok")
	r.logger.Info("using replacement content", zap.String("ref", ref))
	return content, true
}

func (r *Resolver) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}
	content, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		r.metrics.IncResolution(monitoring.SourceCache, "miss")
	}
	return content, ok
}

func (r *Resolver) cacheSet(ctx context.Context, key string, value []byte) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, value); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
