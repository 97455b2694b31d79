package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

const comparisonJSON = `[
  {"balloon_number": 1, "feature_description": "Bore", "master_nominal": 12.5, "status": "pass"},
  {"balloon_number": 2, "feature_description": "Slot", "status": "missing", "check_actual": 3.1, "deviation": 0.2},
  {"balloon_number": 3, "feature_description": "Chamfer"}
]`

const balloonsJSON = `{"drawing_id": "d1", "balloons": [
  {"balloon_number": 1, "coordinates": {"x": 10, "y": 20}, "value": "12.5", "unit": "mm", "status": "pass"},
  {"balloon_number": 2, "coordinates": {"x": 30, "y": 40}, "value": null, "unit": "mm"}
]}`

const reviewJSON = `{"missing_dimensions": [{"location": "top view", "description": "gone", "value": "12.5"}], "missing_tolerances": [], "modified_values": [], "summary": "1 finding"}`

func TestStore_Empty(t *testing.T) {
	s := NewStore()
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Zero(t, s.Info().Version)
}

func TestStore_ReplaceNotifies(t *testing.T) {
	s := NewStore()
	var seen []int
	s.OnReplace(func(snap *model.Snapshot) { seen = append(seen, len(snap.Items)) })

	v1 := s.Replace(&model.Snapshot{Items: []model.ComparisonItem{{BalloonNumber: 1}}}, "test")
	v2 := s.Replace(&model.Snapshot{Items: []model.ComparisonItem{{BalloonNumber: 1}, {BalloonNumber: 2}}}, "test")

	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(2), v2)
	assert.Equal(t, []int{1, 2}, seen)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Empty(t, snap.Items[0].Status, "installed snapshots are not rewritten")
	assert.Equal(t, "test", s.Info().Source)
}

func TestStore_WatchersSeeReplacementsInOrder(t *testing.T) {
	s := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var seen []string
	s.OnReplace(func(snap *model.Snapshot) {
		if snap.SessionID == "a" {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, snap.SessionID)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Replace(&model.Snapshot{SessionID: "a"}, "test")
	}()
	<-entered
	go func() {
		defer wg.Done()
		s.Replace(&model.Snapshot{SessionID: "b"}, "test")
	}()

	// b must wait for a's notification to finish.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, seen)
	mu.Unlock()

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"a", "b"}, seen)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "b", snap.SessionID)
	assert.Equal(t, uint64(2), s.Info().Version)
}

func TestStore_Update(t *testing.T) {
	s := NewStore()

	_, ok := s.Update("test", func(prev *model.Snapshot) *model.Snapshot {
		assert.Nil(t, prev)
		return nil
	})
	assert.False(t, ok)
	assert.Zero(t, s.Info().Version)

	s.Replace(&model.Snapshot{SessionID: "s1"}, "test")
	v, ok := s.Update("review", func(prev *model.Snapshot) *model.Snapshot {
		next := *prev
		next.Review = &model.ReviewResult{Summary: "done"}
		return &next
	})
	assert.True(t, ok)
	assert.Equal(t, uint64(2), v)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "done", snap.Review.Summary)
	assert.Equal(t, "review", s.Info().Source)
}

func TestStore_SubscribeDeliversCurrent(t *testing.T) {
	s := NewStore()
	var seen []string
	s.Subscribe(func(snap *model.Snapshot) { seen = append(seen, snap.SessionID) })
	assert.Empty(t, seen, "nothing loaded yet")

	s.Replace(&model.Snapshot{SessionID: "s1"}, "test")

	var late []string
	s.Subscribe(func(snap *model.Snapshot) { late = append(late, snap.SessionID) })
	s.Replace(&model.Snapshot{SessionID: "s2"}, "test")

	assert.Equal(t, []string{"s1", "s2"}, seen)
	assert.Equal(t, []string{"s1", "s2"}, late)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"s1","comparison":`+comparisonJSON+`}`), 0o644))

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SessionID)
	require.Len(t, snap.Items, 3)
	assert.Nil(t, snap.Items[1].CheckActual, "missing items carry no measurement")

	_, err = LoadFile(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

type apiServer struct {
	*httptest.Server
	comparisons atomic.Int32
	reviews     atomic.Int32
	fail        atomic.Bool

	// holdComparison / holdReview park the next matching request until
	// release is closed; held receives once the request is parked.
	holdComparison atomic.Bool
	holdReview     atomic.Bool
	held           chan struct{}
	release        chan struct{}
}

func (a *apiServer) park(hold *atomic.Bool) {
	if hold.CompareAndSwap(true, false) {
		a.held <- struct{}{}
		<-a.release
	}
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	a := &apiServer{held: make(chan struct{}, 1), release: make(chan struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inspection/session/s1/comparison", func(w http.ResponseWriter, r *http.Request) {
		a.comparisons.Add(1)
		a.park(&a.holdComparison)
		if a.fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(comparisonJSON))
	})
	mux.HandleFunc("GET /inspection/session/s1/balloons/{role}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(balloonsJSON))
	})
	mux.HandleFunc("POST /inspection/session/s1/review", func(w http.ResponseWriter, r *http.Request) {
		a.reviews.Add(1)
		a.park(&a.holdReview)
		_, _ = w.Write([]byte(reviewJSON))
	})
	a.Server = httptest.NewServer(mux)
	t.Cleanup(a.Close)
	return a
}

func TestRefresher_Refresh(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL+"/", "s1", 0, store, zerolog.Nop())

	v, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	snap, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Len(t, snap.Items, 3)
	assert.Len(t, snap.Master, 2)
	assert.Len(t, snap.Check, 2)
	assert.Equal(t, status.Pending, snap.Master[1].Status)
	assert.Equal(t, api.URL+"/inspection/session/s1/image/check", snap.Image(model.SideCheck))
	assert.Equal(t, "api", store.Info().Source)
}

func TestRefresher_ReviewSurvivesRefresh(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 0, store, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Review(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = r.Refresh(ctx)
	require.NoError(t, err)

	review, err := r.Review(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, review.Count())

	_, err = r.Refresh(ctx)
	require.NoError(t, err)
	snap, err := store.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Review)
	assert.Equal(t, "1 finding", snap.Review.Summary)
	assert.Equal(t, int32(1), api.reviews.Load())
}

func TestRefresher_ReviewDuringRefreshIsKept(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 0, store, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Refresh(ctx)
	require.NoError(t, err)

	api.holdComparison.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(ctx)
		done <- err
	}()
	<-api.held

	_, err = r.Review(ctx)
	require.NoError(t, err)
	close(api.release)
	require.NoError(t, <-done)

	snap, err := store.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Review, "refresh carries over the review installed while it was fetching")
	assert.Equal(t, "1 finding", snap.Review.Summary)
	assert.Equal(t, uint64(3), store.Info().Version)
}

func TestRefresher_RefreshDuringReviewIsKept(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 0, store, zerolog.Nop())
	ctx := context.Background()

	store.Replace(&model.Snapshot{SessionID: "s1"}, "test")

	api.holdReview.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := r.Review(ctx)
		done <- err
	}()
	<-api.held

	_, err := r.Refresh(ctx)
	require.NoError(t, err)
	close(api.release)
	require.NoError(t, <-done)

	snap, err := store.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Items, 3, "review is applied on top of the refreshed snapshot")
	require.NotNil(t, snap.Review)
	assert.Equal(t, "1 finding", snap.Review.Summary)
}

func TestRefresher_ErrorKeepsSnapshot(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 0, store, zerolog.Nop())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	api.fail.Store(true)
	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, uint64(1), store.Info().Version)
}

func TestRefresher_RunAndTrigger(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 0, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Info().Version == 1 }, 2*time.Second, 10*time.Millisecond)
	r.Trigger()
	require.Eventually(t, func() bool { return store.Info().Version == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRefresher_Polls(t *testing.T) {
	api := newAPIServer(t)
	store := NewStore()
	r := NewRefresher(api.URL, "s1", 20*time.Millisecond, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.Eventually(t, func() bool { return api.comparisons.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestFileWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	write := func(items string) {
		require.NoError(t, os.WriteFile(path, []byte(`{"comparison":`+items+`}`), 0o644))
	}
	write(`[{"balloon_number": 1}]`)

	store := NewStore()
	fw, err := NewFileWatcher(path, 20*time.Millisecond, store, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	snap, err := store.Snapshot()
	require.NoError(t, err, "existing file is loaded immediately")
	assert.Len(t, snap.Items, 1)

	write(comparisonJSON)
	require.Eventually(t, func() bool {
		snap, err := store.Snapshot()
		return err == nil && len(snap.Items) == 3
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "file", store.Info().Source)
}

func TestFileWatcher_IgnoresOtherFilesAndBadContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")

	store := NewStore()
	fw, err := NewFileWatcher(path, 20*time.Millisecond, store, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	_, err = store.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot, "missing file leaves the store empty")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, store.Info().Version)
}
