package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/t8nr/plubot/cache"
	"github.com/t8nr/plubot/catalog"
	"github.com/t8nr/plubot/metrics"
)

// Artifact is a rendered barcode image addressed by its product identity.
type Artifact struct {
	Key string
	PNG []byte
}

// Cache is a content-addressed artifact store: one PNG file per distinct
// (code, name) key in a flat directory, with an in-memory LRU in front.
// A key is rendered at most once; concurrent first renders of the same key
// are collapsed via singleflight and published with a temp-file + rename so
// a reader never sees a partial file. Renders for different keys are fully
// independent.
type Cache struct {
	dir      string
	renderer Renderer
	mem      *cache.LRU
	group    singleflight.Group
	log      *zap.SugaredLogger
}

// NewCache creates the artifact directory if needed and returns a Cache
// backed by renderer.
func NewCache(dir string, renderer Renderer, memCapacity int, log *zap.SugaredLogger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &Cache{
		dir:      dir,
		renderer: renderer,
		mem:      cache.NewLRU(memCapacity),
		log:      log,
	}, nil
}

// Key derives the artifact key for a record: sanitized code and name joined
// by an underscore.
func Key(rec catalog.ProductRecord) string {
	return sanitize(rec.Code) + "_" + sanitize(rec.Name)
}

// sanitize replaces every rune outside [A-Za-z0-9._-] with an underscore.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Path returns the durable file path for a key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+".png")
}

// Render returns the artifact for rec, rendering and storing it only if no
// artifact exists for its key yet. Existing artifacts are returned unchanged
// with no re-render and no byte-level re-verification.
func (c *Cache) Render(rec catalog.ProductRecord) (Artifact, error) {
	key := Key(rec)

	if b, ok := c.mem.Get(key); ok {
		metrics.IncRenderCache("memory")
		return Artifact{Key: key, PNG: b}, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.loadOrRender(key, rec)
	})
	if err != nil {
		metrics.IncRenderCache("error")
		return Artifact{}, err
	}

	b := v.([]byte)
	c.mem.Add(key, b)
	return Artifact{Key: key, PNG: b}, nil
}

func (c *Cache) loadOrRender(key string, rec catalog.ProductRecord) ([]byte, error) {
	path := c.Path(key)
	if b, err := os.ReadFile(path); err == nil {
		metrics.IncRenderCache("disk")
		return b, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("probe artifact %s: %w", path, err)
	}

	b, err := c.renderer.Render(rec)
	if err != nil {
		return nil, err
	}
	if err := c.publish(path, b); err != nil {
		return nil, err
	}
	metrics.IncRenderCache("render")
	c.log.Debugw("artifact rendered", "key", key, "bytes", len(b))
	return b, nil
}

// publish writes bytes to a temp file in the artifact directory and renames
// it over the final path. Rename is atomic on the same filesystem, so a
// concurrent reader sees either no file or the complete file; a losing
// concurrent render simply overwrites with identical content. A failed write
// leaves nothing visible under the key.
func (c *Cache) publish(path string, b []byte) error {
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact %s: %w", path, err)
	}
	return nil
}
