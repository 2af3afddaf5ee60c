// Package collector finds image references in HTML, resolves them, and
// rewrites each source to a content-id reference, emitting every distinct
// piece of content exactly once.
//
// Content identity is the MD5 digest of the resolved bytes. It is used for
// deduplication only, never for integrity.
package collector

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/embed-images/internal/domain"
	"github.com/user/embed-images/internal/monitoring"
)

const (
	imageSelector = `img, input[type="image"]`
	cidPrefix     = "img"

	kindImage      = "image"
	kindAttachment = "attachment"
)

// Loader resolves a reference to its content.
type Loader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// RaisePolicy decides whether a resolution failure aborts the collection.
// A nil return skips the reference and continues.
type RaisePolicy func(err error) error

// Absorb skips every failure. It is the default policy.
func Absorb(error) error { return nil }

// Strict aborts on the first failure.
func Strict(err error) error { return err }

// Collector is stateless between calls and safe for concurrent use.
type Collector struct {
	loader      Loader
	raise       RaisePolicy
	concurrency int
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// Option configures a Collector.
type Option func(*Collector)

// WithRaisePolicy replaces the default Absorb policy.
func WithRaisePolicy(p RaisePolicy) Option {
	return func(c *Collector) { c.raise = p }
}

// WithConcurrency resolves up to n references of one call in parallel.
// Identifiers are still assigned and the raise policy still applied in
// document order.
func WithConcurrency(n int) Option {
	return func(c *Collector) { c.concurrency = n }
}

// WithLogger sets the logger used to report unresolvable references.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithMetrics records not-found and collected counts in m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// New returns a Collector resolving through loader.
func New(loader Loader, opts ...Option) *Collector {
	c := &Collector{
		loader:      loader,
		raise:       Absorb,
		concurrency: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.raise == nil {
		c.raise = Absorb
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

type resolution struct {
	content []byte
	err     error
}

// resolveEach loads refs and hands each result to fn in input order. A non-nil
// return from fn stops the walk: no later reference is loaded sequentially, and
// loads still in flight are cancelled when running in parallel.
func (c *Collector) resolveEach(ctx context.Context, refs []string, fn func(i int, content []byte, err error) error) error {
	if c.concurrency == 1 {
		for i, ref := range refs {
			content, err := c.loader.Load(ctx, ref)
			if err := fn(i, content, err); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	results := make([]resolution, len(refs))
	done := make([]chan struct{}, len(refs))
	for i := range done {
		done[i] = make(chan struct{})
	}
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, ref := range refs {
			g.Go(func() error {
				defer close(done[i])
				if err := gctx.Err(); err != nil {
					results[i].err = err
					return nil
				}
				results[i].content, results[i].err = c.loader.Load(gctx, ref)
				return nil
			})
		}
	}()
	defer func() {
		cancel()
		<-launched
		_ = g.Wait()
	}()

	for i := range refs {
		<-done[i]
		if err := fn(i, results[i].content, results[i].err); err != nil {
			return err
		}
	}
	return nil
}

// failed logs err and applies the raise policy.
func (c *Collector) failed(kind, ref string, err error) error {
	c.logger.Error("failed to resolve "+kind, zap.String("ref", ref), zap.Error(err))
	c.metrics.IncNotFound(kind)
	return c.raise(err)
}

// CollectImages rewrites the src of every <img> and <input type="image"> in
// body to "cid:imgN" and returns the rewritten document with one resource per
// distinct content, in order of first occurrence. Elements whose source cannot
// be resolved keep their original src unless the raise policy aborts.
//
// body is interpreted in charset (empty means UTF-8) and the result is encoded
// back into it. The HTML5 parser normalizes the markup: missing html, head and
// body elements are added and void elements render as <img .../>.
func (c *Collector) CollectImages(ctx context.Context, body, charset string) (string, []domain.Resource, error) {
	codec, err := lookupCharset(charset)
	if err != nil {
		return "", nil, err
	}
	decoded, err := codec.decode(body)
	if err != nil {
		return "", nil, fmt.Errorf("decode html as %s: %w", codec.name, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		return "", nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		elements []*goquery.Selection
		sources  []string
	)
	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists {
			c.logger.Debug("skipping image element without src", zap.String("tag", goquery.NodeName(s)))
			return
		}
		elements = append(elements, s)
		sources = append(sources, src)
	})

	var (
		images  []domain.Resource
		seen    = make(map[[md5.Size]byte]string)
		counter int
	)
	err = c.resolveEach(ctx, sources, func(i int, content []byte, err error) error {
		src := sources[i]
		if err != nil {
			return c.failed(kindImage, src, err)
		}

		sum := md5.Sum(content)
		cid, ok := seen[sum]
		if !ok {
			counter++
			cid = fmt.Sprintf("%s%d", cidPrefix, counter)
			seen[sum] = cid
			major, minor := mimeType(src)
			images = append(images, domain.Resource{
				MainType: major,
				SubType:  minor,
				ID:       cid,
				Content:  content,
			})
		}
		elements[i].SetAttr("src", "cid:"+cid)
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	html, err := doc.Html()
	if err != nil {
		return "", nil, fmt.Errorf("render html: %w", err)
	}
	encoded, err := codec.encode(html)
	if err != nil {
		return "", nil, fmt.Errorf("encode html as %s: %w", codec.name, err)
	}

	c.metrics.AddCollected(kindImage, len(images))
	return encoded, images, nil
}

// CollectAttachments resolves refs in order and returns one resource per
// distinct content, identified by the base filename of its first reference.
func (c *Collector) CollectAttachments(ctx context.Context, refs []string) ([]domain.Resource, error) {
	var (
		attachments []domain.Resource
		seen        = make(map[[md5.Size]byte]struct{})
	)
	err := c.resolveEach(ctx, refs, func(i int, content []byte, err error) error {
		ref := refs[i]
		if err != nil {
			return c.failed(kindAttachment, ref, err)
		}

		sum := md5.Sum(content)
		if _, dup := seen[sum]; dup {
			return nil
		}
		seen[sum] = struct{}{}
		major, minor := mimeType(ref)
		attachments = append(attachments, domain.Resource{
			MainType: major,
			SubType:  minor,
			ID:       baseName(ref),
			Content:  content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.AddCollected(kindAttachment, len(attachments))
	return attachments, nil
}
