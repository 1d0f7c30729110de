package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"logship/pkg/codec"
	"logship/pkg/config"
	"logship/pkg/event"
	"logship/pkg/observability"
	"logship/pkg/sink"
)

// run listens until SIGINT/SIGTERM, logging every event it receives.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	if opts.Listen != "" {
		cfg.Sink.Listen = opts.Listen
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	c, err := codec.Lookup(cfg.Codec)
	if err != nil {
		zap.L().Error("codec", zap.Error(err))
		return 1
	}
	framing, err := event.ParseFraming(cfg.Framing)
	if err != nil {
		zap.L().Error("framing", zap.Error(err))
		return 1
	}

	d := newDecoder(c, framing, logger)
	sk, err := sink.Listen(cfg.Sink.Listen, sink.Options{Logger: logger, OnData: d.feed, OnClose: d.drop, Discard: true})
	if err != nil {
		zap.L().Error("listen failed", zap.String("addr", cfg.Sink.Listen), zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return sk.Close()
	})
	zap.L().Info("logship-sink running; press Ctrl+C to exit",
		zap.Stringer("addr", sk.Addr()),
		zap.String("codec", c.Name()),
		zap.Stringer("framing", framing),
	)
	if err := g.Wait(); err != nil {
		zap.L().Warn("sink close", zap.Error(err))
	}
	zap.L().Info("logship-sink stopped",
		zap.Int("connections", sk.Accepted()),
		zap.Int64("bytes", sk.Received()),
		zap.Int64("events", d.count()),
	)
	return 0
}

// decoder keeps one Splitter per connection and logs decoded events.
type decoder struct {
	c   codec.Codec
	f   event.Framing
	log *zap.Logger

	mu     sync.Mutex
	splits map[int]*event.Splitter
	events int64
}

func newDecoder(c codec.Codec, f event.Framing, log *zap.Logger) *decoder {
	return &decoder{c: c, f: f, log: log, splits: make(map[int]*event.Splitter)}
}

func (d *decoder) feed(id int, b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sp := d.splits[id]
	if sp == nil {
		sp = event.NewSplitter(d.f)
		d.splits[id] = sp
	}
	frames, err := sp.Feed(b)
	for _, fr := range frames {
		ev, derr := event.Decode(d.c, fr)
		if derr != nil {
			d.log.Warn("undecodable frame", zap.Int("conn", id), zap.Int("bytes", len(fr)), zap.Error(derr))
			continue
		}
		d.events++
		d.log.Info("event", zap.Int("conn", id), zap.String("id", ev.ID), zap.String("tag", ev.Tag), zap.Int64("time_ms", ev.TimeMS), zap.Any("record", ev.Record))
	}
	if err != nil {
		// the stream is out of sync; drop what is buffered and resync on new data
		d.log.Warn("bad frame", zap.Int("conn", id), zap.Error(err))
		d.splits[id] = event.NewSplitter(d.f)
	}
}

// drop forgets a finished connection, including any partial frame.
func (d *decoder) drop(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sp := d.splits[id]; sp != nil && sp.Buffered() > 0 {
		d.log.Warn("connection closed mid-frame", zap.Int("conn", id), zap.Int("bytes", sp.Buffered()))
	}
	delete(d.splits, id)
}

func (d *decoder) count() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}
