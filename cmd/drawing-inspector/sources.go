package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/drawing-inspector/internal/config"
	"github.com/ironsheep/drawing-inspector/internal/feed"
	"github.com/ironsheep/drawing-inspector/internal/session"
)

// Sources are the background producers of snapshots: the snapshot file
// watcher, the REST refresher and the event feed. Each is optional.
type Sources struct {
	Store     *session.Store
	Refresher *session.Refresher
	Feed      *feed.Client
	Events    *feed.Log

	cfg *config.Config
	log zerolog.Logger
}

// NewSources wires the sources enabled by cfg around one store.
func NewSources(cfg *config.Config, logger zerolog.Logger) (*Sources, error) {
	s := &Sources{
		Store:  session.NewStore(),
		Events: feed.NewLog(cfg.EventLogCapacity),
		cfg:    cfg,
		log:    logger,
	}

	if cfg.APIURL != "" && cfg.SessionID != "" {
		s.Refresher = session.NewRefresher(cfg.APIURL, cfg.SessionID, cfg.RefreshInterval, s.Store, logger)
	}
	if cfg.FeedURL != "" {
		endpoint, err := feed.SessionURL(cfg.FeedURL, cfg.SessionID)
		if err != nil {
			return nil, err
		}
		s.Feed = feed.NewClient(endpoint, cfg.ReconnectDelay, cfg.Keepalive, logger)
	}
	return s, nil
}

// Enabled reports whether any background source is configured.
func (s *Sources) Enabled() bool {
	return s.cfg.SnapshotFile != "" || s.Refresher != nil || s.Feed != nil
}

// Run drives every configured source until ctx is done.
func (s *Sources) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.cfg.SnapshotFile != "" {
		fw, err := session.NewFileWatcher(s.cfg.SnapshotFile, s.cfg.WatchDebounce, s.Store, s.log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return fw.Close()
		})
	}

	if s.Refresher != nil {
		g.Go(func() error { return s.Refresher.Run(ctx) })
	}

	if s.Feed != nil {
		g.Go(func() error { return s.Feed.Run(ctx, s.handleEvent) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleEvent records an event and refreshes the snapshot when a pipeline
// stage reports completion.
func (s *Sources) handleEvent(e feed.Event) {
	s.Events.Append(e)
	s.log.Info().Str("agent", e.Agent).Str("type", e.Type).Msg("event")
	if e.Completes() && s.Refresher != nil {
		s.Refresher.Trigger()
	}
}
