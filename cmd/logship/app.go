package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"logship/pkg/codec"
	"logship/pkg/config"
	"logship/pkg/event"
	"logship/pkg/observability"
	"logship/pkg/retry"
	"logship/pkg/transport"
	"logship/pkg/transport/mem"
	"logship/pkg/transport/tcp"
)

// run ships one event per input line (or the -message flag) and returns the
// process exit code.
func run(opts Options, stdin io.Reader) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		_, _ = os.Stderr.WriteString("invalid options: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	sender, err := newSender(cfg, logger)
	if err != nil {
		zap.L().Error("failed to build sender", zap.Error(err))
		return 1
	}
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
	em, err := event.NewEmitter(sender, c, framing, event.EmitterOptions{Logger: logger})
	if err != nil {
		zap.L().Error("failed to build emitter", zap.Error(err))
		return 1
	}
	defer func() {
		if err := em.Close(); err != nil {
			zap.L().Warn("close sender", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("logship started",
		zap.String("app", cfg.AppName),
		zap.String("endpoint", cfg.Endpoint().String()),
		zap.String("codec", c.Name()),
		zap.Stringer("framing", framing),
	)

	policy := policyFromConfig(cfg.Retry)
	policy.Logger = logger
	ship := func(line string) error {
		rec := map[string]any{"message": line}
		return retry.Do(ctx, policy, func() error { return em.Emit(cfg.Tag, rec) })
	}

	shipped := 0
	if opts.Message != "" {
		if err := ship(opts.Message); err != nil {
			zap.L().Error("ship failed", zap.Error(err))
			return 1
		}
		shipped++
	} else {
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 64*1024), event.MaxFrameSize)
		for sc.Scan() {
			if ctx.Err() != nil {
				break
			}
			line := sc.Text()
			if line == "" {
				continue
			}
			if err := ship(line); err != nil {
				zap.L().Error("ship failed", zap.Int("shipped", shipped), zap.Error(err))
				return 1
			}
			shipped++
		}
		if err := sc.Err(); err != nil {
			zap.L().Error("read input", zap.Error(err))
			return 1
		}
	}

	zap.L().Info("logship finished", zap.Int("shipped", shipped))
	return 0
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Host != "" {
		cfg.Sender.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Sender.Port = opts.Port
	}
	if opts.Tag != "" {
		cfg.Tag = opts.Tag
	}
}

// policyFromConfig converts the millisecond retry settings.
func policyFromConfig(c config.RetryConfig) retry.Policy {
	return retry.Policy{
		Attempts: c.Attempts,
		Initial:  time.Duration(c.InitialMS) * time.Millisecond,
		Max:      time.Duration(c.MaxMS) * time.Millisecond,
		Jitter:   time.Duration(c.JitterMS) * time.Millisecond,
	}
}

func newSender(cfg *config.Config, logger *zap.Logger) (transport.Sender, error) {
	k, err := transport.ParseKind(cfg.Sender.Kind)
	if err != nil {
		return nil, err
	}
	switch k {
	case transport.KindMem:
		return mem.New(cfg.Sender.Host, cfg.Sender.Port), nil
	default:
		return tcp.NewWithOptions(cfg.Sender.Host, cfg.Sender.Port, tcp.Options{Logger: logger}), nil
	}
}
