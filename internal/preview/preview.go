// Package preview renders the lightweight previews shown next to ingested
// files: inline data URIs for images, nothing for everything else.
package preview

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mtiwari1/filehaven/internal/metrics"
	"github.com/mtiwari1/filehaven/internal/source"
)

// Options tunes preview generation.
type Options struct {
	// ThumbnailWidth downscales wider images to this width. 0 keeps the
	// original bytes.
	ThumbnailWidth int
	// JPEGQuality is used when a thumbnail is re-encoded.
	JPEGQuality int
	// CacheSize bounds the number of cached previews. 0 disables the cache.
	CacheSize int
	CacheTTL  time.Duration
}

// Generator produces previews. It is safe for concurrent use.
type Generator struct {
	opts   Options
	cache  *expirable.LRU[string, string]
	logger *slog.Logger
}

// NewGenerator returns a Generator configured by opts.
func NewGenerator(opts Options, logger *slog.Logger) *Generator {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	g := &Generator{opts: opts, logger: logger}
	if opts.CacheSize > 0 {
		g.cache = expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL)
	}
	return g
}

// Generate returns a data URI preview for image content and "" for any
// other content type, without reading it. Read errors are returned as is;
// callers decide whether a missing preview matters.
func (g *Generator) Generate(ctx context.Context, f source.File) (string, error) {
	ct := f.ContentType()
	if !IsImage(ct) {
		return "", nil
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("preview: open %s: %w", f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("preview: read %s: %w", f.Name(), err)
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:]) + "|" + ct
	if g.cache != nil {
		if uri, ok := g.cache.Get(key); ok {
			metrics.PreviewCacheHits.Inc()
			return uri, nil
		}
		metrics.PreviewCacheMisses.Inc()
	}

	uri := g.render(ctx, f.Name(), ct, data)
	if g.cache != nil {
		g.cache.Add(key, uri)
	}
	return uri, nil
}

func (g *Generator) render(ctx context.Context, name, ct string, data []byte) string {
	if g.opts.ThumbnailWidth <= 0 || mediaType(ct) == "image/svg+xml" {
		return DataURI(ct, data)
	}
	thumb, err := thumbnail(data, g.opts.ThumbnailWidth, g.opts.JPEGQuality)
	if err != nil {
		g.logger.DebugContext(ctx, "thumbnail skipped, using original bytes",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		return DataURI(ct, data)
	}
	if thumb == nil {
		return DataURI(ct, data)
	}
	return DataURI("image/jpeg", thumb)
}

// thumbnail returns nil, nil when the image already fits maxWidth.
func thumbnail(data []byte, maxWidth, quality int) (out []byte, err error) {
	defer func() {
		// Corrupt images can panic inside decoders.
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("preview: thumbnail panic: %v", r)
		}
	}()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preview: decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return nil, nil
	}

	if _, paletted := img.(*image.Paletted); paletted {
		rgba := image.NewRGBA(b)
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		img = rgba
	}

	height := uint(float64(maxWidth) * float64(b.Dy()) / float64(b.Dx()))
	if height == 0 {
		height = 1
	}
	resized := resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("preview: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes data as a base64 data URI of the given content type.
func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsImage reports whether a content type denotes an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
