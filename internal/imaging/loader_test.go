package imaging

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createInMemoryImage returns a solid image of the given size.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestDrawing writes a solid PNG drawing into a temp dir and returns
// its path.
func writeTestDrawing(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawing.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create drawing: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode drawing: %v", err)
	}
	return path
}

func TestDrawingCache_Load(t *testing.T) {
	cache := NewDrawingCache()
	path := writeTestDrawing(t, 120, 80, color.RGBA{255, 255, 255, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if size := SizeOf(img1); size.Width != 120 || size.Height != 80 {
		t.Errorf("unexpected size: got %vx%v, want 120x80", size.Width, size.Height)
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached drawing")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestDrawingCache_Load_Errors(t *testing.T) {
	cache := NewDrawingCache()
	if _, err := cache.Load("/nonexistent/drawing.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads must not be cached, got %d entries", cache.Len())
	}
}

func TestDrawingCache_PutGetEvictClear(t *testing.T) {
	cache := NewDrawingCache()
	img := createInMemoryImage(10, 10, color.Black)

	cache.Put("session-1/master", img)
	got, ok := cache.Get("session-1/master")
	if !ok || got != image.Image(img) {
		t.Fatal("Get did not return the stored drawing")
	}

	cache.Evict("session-1/master")
	if _, ok := cache.Get("session-1/master"); ok {
		t.Error("Evict did not remove drawing")
	}
	cache.Evict("never-stored")

	cache.Put("a", img)
	cache.Put("b", img)
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear left %d drawings", cache.Len())
	}
}

func TestDrawingCache_ConcurrentAccess(t *testing.T) {
	cache := NewDrawingCache()
	path := writeTestDrawing(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestLoadDrawingInfo(t *testing.T) {
	cache := NewDrawingCache()
	path := writeTestDrawing(t, 64, 32, color.White)

	info, err := LoadDrawingInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadDrawingInfo failed: %v", err)
	}
	if info.Width != 64 || info.Height != 32 {
		t.Errorf("dimensions: got %dx%d, want 64x32", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %q, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
}

func TestDrawingCache_LoadRemote(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/master" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, createInMemoryImage(20, 10, color.Black))
	}))
	defer srv.Close()

	cache := NewDrawingCache()
	url := srv.URL + "/image/master"
	if !IsRemote(url) {
		t.Fatalf("IsRemote(%q) = false", url)
	}

	info, err := LoadDrawingInfo(cache, url)
	if err != nil {
		t.Fatalf("LoadDrawingInfo failed: %v", err)
	}
	if info.Width != 20 || info.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 20x10", info.Width, info.Height)
	}
	if info.FileSizeBytes != 0 {
		t.Errorf("FileSizeBytes: got %d, want 0 for remote drawings", info.FileSizeBytes)
	}

	if _, err := cache.Load(url); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected one fetch, got %d", hits)
	}

	if _, err := cache.Load(srv.URL + "/image/absent"); err == nil {
		t.Error("expected error for 404")
	}
}
