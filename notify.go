package ytdash

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Notifier announces that the comment table changed.
type Notifier interface {
	NotifyCommentsUpdated(ctx context.Context, count int)
	Close()
}

type noopNotifier struct{}

func (noopNotifier) NotifyCommentsUpdated(context.Context, int) {}
func (noopNotifier) Close()                                     {}

// Publisher sends comments-updated events over NATS.
type Publisher struct {
	log     *slog.Logger
	nc      *nats.Conn
	subject string
}

func NewPublisher(log *slog.Logger, addr, subject string) (*Publisher, error) {
	nc, err := nats.Connect(addr)
	if err != nil {
		return nil, err
	}
	log.Info("connected to broker", "addr", addr, "subject", subject)

	return &Publisher{
		log:     log,
		nc:      nc,
		subject: subject,
	}, nil
}

// NewNotifier returns a Publisher when a broker address is configured and a
// notifier that does nothing otherwise. A broker that cannot be reached is
// logged and ignored.
func NewNotifier(log *slog.Logger, b Broker) Notifier {
	if b.Address == "" {
		return noopNotifier{}
	}
	p, err := NewPublisher(log, b.Address, b.Subject)
	if err != nil {
		log.Warn("broker unavailable, events disabled", "addr", b.Address, "error", err)
		return noopNotifier{}
	}
	return p
}

func (p *Publisher) Close() {
	p.nc.Close()
}

func (p *Publisher) NotifyCommentsUpdated(ctx context.Context, count int) {
	if err := p.nc.Publish(p.subject, []byte("comments updated")); err != nil {
		p.log.Error("failed to publish comments updated", "error", err)
		return
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		p.log.Error("could not publish message", "error", err)
		return
	}
	p.log.Info("comments updated event published", "count", count)
}

// CacheWarmer rebuilds cached analysis results.
type CacheWarmer interface {
	Warm(ctx context.Context) error
}

// Subscriber warms the dashboard cache on every comments-updated event.
type Subscriber struct {
	log     *slog.Logger
	nc      *nats.Conn
	subject string
	warmer  CacheWarmer
}

func NewSubscriber(log *slog.Logger, addr, subject string, warmer CacheWarmer) (*Subscriber, error) {
	nc, err := nats.Connect(addr)
	if err != nil {
		return nil, err
	}
	log.Info("connected to broker", "addr", addr, "subject", subject)

	return &Subscriber{
		log:     log,
		nc:      nc,
		subject: subject,
		warmer:  warmer,
	}, nil
}

func (s *Subscriber) Close() {
	s.nc.Close()
}

// Start subscribes and handles events until ctx is done.
func (s *Subscriber) Start(ctx context.Context) error {
	ch := make(chan *nats.Msg, 10)

	sub, err := s.nc.ChanSubscribe(s.subject, ch)
	if err != nil {
		return err
	}

	go func() {
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				s.log.Error("failed to unsubscribe", "subject", s.subject, "error", err)
			}
			s.log.Info("nats subscriber stopped", "subject", s.subject)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					s.log.Info("nats channel closed", "subject", s.subject)
					return
				}
				s.log.Info("got comments updated event, warming cache", "subject", s.subject)
				if err := s.warmer.Warm(ctx); err != nil {
					s.log.Error("cache warm-up failed", "error", err)
				}
			}
		}
	}()

	return nil
}
