package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/drawing-inspector/internal/model"
)

const maxBody = 32 << 20

// Refresher pulls a session from the inspection REST API and replaces the
// store's snapshot. Failures are logged and retried on the next tick.
type Refresher struct {
	base      string
	sessionID string
	interval  time.Duration
	client    *http.Client
	store     *Store
	log       zerolog.Logger
	trigger   chan struct{}
}

// NewRefresher returns a refresher for one session. An interval of zero
// disables polling; Trigger still forces refreshes.
func NewRefresher(base, sessionID string, interval time.Duration, store *Store, logger zerolog.Logger) *Refresher {
	return &Refresher{
		base:      strings.TrimRight(base, "/"),
		sessionID: sessionID,
		interval:  interval,
		client:    &http.Client{Timeout: 30 * time.Second},
		store:     store,
		log:       logger.With().Str("component", "refresher").Str("session", sessionID).Logger(),
		trigger:   make(chan struct{}, 1),
	}
}

// Trigger requests an immediate refresh. Requests made while one is
// already pending are coalesced.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes once, then on every tick or trigger until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.refreshLogged(ctx)

	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		case <-r.trigger:
		}
		r.refreshLogged(ctx)
	}
}

func (r *Refresher) refreshLogged(ctx context.Context) {
	v, err := r.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Warn().Err(err).Msg("session refresh failed")
		}
		return
	}
	r.log.Debug().Uint64("version", v).Msg("session refreshed")
}

// Refresh fetches the session and replaces the snapshot. The previous
// review result is carried over; reviews are only replaced by Review.
func (r *Refresher) Refresh(ctx context.Context) (uint64, error) {
	snap, err := r.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	v, _ := r.store.Update("api", func(prev *model.Snapshot) *model.Snapshot {
		if prev != nil && prev.SessionID == snap.SessionID {
			snap.Review = prev.Review
		}
		return snap
	})
	return v, nil
}

// Fetch downloads the comparison items and both balloon sets.
func (r *Refresher) Fetch(ctx context.Context) (*model.Snapshot, error) {
	body, err := r.get(ctx, "comparison")
	if err != nil {
		return nil, err
	}
	items, err := model.DecodeItems(body)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		SessionID:   r.sessionID,
		Items:       items,
		MasterImage: r.endpoint("image", string(model.SideMaster)),
		CheckImage:  r.endpoint("image", string(model.SideCheck)),
	}
	for _, side := range []model.Side{model.SideMaster, model.SideCheck} {
		body, err := r.get(ctx, "balloons", string(side))
		if err != nil {
			return nil, err
		}
		db, err := model.DecodeDrawingBalloons(body)
		if err != nil {
			return nil, err
		}
		if side == model.SideMaster {
			snap.Master = db.Balloons
		} else {
			snap.Check = db.Balloons
		}
	}
	return snap, nil
}

// Review asks the API to run the review pass and stores the result on the
// current snapshot.
func (r *Refresher) Review(ctx context.Context) (*model.ReviewResult, error) {
	if _, err := r.store.Snapshot(); err != nil {
		return nil, err
	}
	body, err := r.do(ctx, http.MethodPost, r.endpoint("review"))
	if err != nil {
		return nil, err
	}
	review, err := model.DecodeReview(body)
	if err != nil {
		return nil, err
	}

	_, ok := r.store.Update("api", func(prev *model.Snapshot) *model.Snapshot {
		if prev == nil {
			return nil
		}
		next := *prev
		next.Review = review
		return &next
	})
	if !ok {
		return nil, ErrNoSnapshot
	}
	return review, nil
}

func (r *Refresher) endpoint(parts ...string) string {
	p := append([]string{r.base, "inspection", "session", url.PathEscape(r.sessionID)}, parts...)
	return strings.Join(p, "/")
}

func (r *Refresher) get(ctx context.Context, parts ...string) ([]byte, error) {
	return r.do(ctx, http.MethodGet, r.endpoint(parts...))
}

func (r *Refresher) do(ctx context.Context, method, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, u, resp.StatusCode)
	}
	return body, nil
}
