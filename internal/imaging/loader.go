package imaging

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
)

// DrawingCache provides thread-safe caching of decoded drawing rasters.
//
// The cache stores decoded image.Image objects keyed by their source (a file
// path, or any key passed to Put). Once a drawing is loaded, subsequent Load()
// calls for the same key return the cached copy without disk I/O.
//
// # Memory Management
//
// Cached drawings remain in memory until explicitly removed via Evict() or
// Clear(). Loading a new session evicts the previous session's drawings.
//
// # Example Usage
//
//	cache := imaging.NewDrawingCache()
//	img, err := cache.Load("/data/session-7/master.png")
//	if err != nil {
//	    return err
//	}
//	size := imaging.SizeOf(img)
type DrawingCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewDrawingCache creates and initializes a new empty drawing cache.
func NewDrawingCache() *DrawingCache {
	return &DrawingCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a drawing from the cache or loads it if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the drawing, or an http(s)
//     URL such as the inspection API's image endpoint. Supported formats
//     are PNG, JPEG, GIF, BMP and TIFF. JPEG EXIF orientation is applied.
//
// Returns:
//   - image.Image: The decoded drawing.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *DrawingCache) Load(path string) (image.Image, error) {
	if img, ok := c.Get(path); ok {
		return img, nil
	}

	var (
		img image.Image
		err error
	)
	if IsRemote(path) {
		img, err = fetch(path)
	} else {
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open drawing: %w", err)
	}

	c.Put(path, img)
	return img, nil
}

// IsRemote reports whether src names an http(s) resource.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func fetch(url string) (image.Image, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return imaging.Decode(resp.Body, imaging.AutoOrientation(true))
}

// Get returns a cached drawing without touching the disk.
func (c *DrawingCache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[key]
	return img, ok
}

// Put stores an already decoded drawing, for example one fetched over HTTP.
func (c *DrawingCache) Put(key string, img image.Image) {
	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
}

// Clear removes all drawings from the cache.
func (c *DrawingCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific drawing from the cache.
//
// If the key is not in the cache, this method does nothing.
func (c *DrawingCache) Evict(key string) {
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

// Len reports how many drawings are cached.
func (c *DrawingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// SizeOf returns the pixel size of img as a coordinate-space extent.
func SizeOf(img image.Image) geometry.Size {
	b := img.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// DrawingInfo contains metadata about a loaded drawing file.
type DrawingInfo struct {
	// Width is the drawing width in pixels.
	Width int `json:"width"`

	// Height is the drawing height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", "bmp",
	// "tiff", or "unknown". Detection is based on file extension.
	Format string `json:"format"`

	// FileSizeBytes is the size of the drawing file on disk in bytes. It is
	// zero for remote drawings.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadDrawingInfo loads a drawing and returns its metadata.
//
// Parameters:
//   - cache: The drawing cache to use for loading. Must not be nil.
//   - path: Path to the drawing file.
//
// Returns:
//   - *DrawingInfo: Metadata about the drawing.
//   - error: Non-nil if the drawing cannot be loaded or the file cannot be stat'd.
func LoadDrawingInfo(cache *DrawingCache, path string) (*DrawingInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	var size int64
	if !IsRemote(path) {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		size = stat.Size()
	}

	name := "unknown"
	if format, err := imaging.FormatFromFilename(path); err == nil {
		name = strings.ToLower(format.String())
	}

	bounds := img.Bounds()
	return &DrawingInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        name,
		FileSizeBytes: size,
	}, nil
}
