// Package dispatch decouples the flow engine's synchronous replies from its
// fire-and-forget side-effect sends. The engine enqueues; a worker delivers
// with a bounded timeout, so a stuck downstream call never blocks a reply.
package dispatch

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

// TextSender delivers a single text message.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

type outgoing struct {
	to   string
	body string
}

type Outbox struct {
	transport TextSender
	queue     chan outgoing
	stop      chan struct{}
	done      chan struct{}
}

func NewOutbox(transport TextSender, size int) *Outbox {
	if size <= 0 {
		size = 256
	}
	return &Outbox{
		transport: transport,
		queue:     make(chan outgoing, size),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (o *Outbox) Start() {
	go o.loop()
}

// Stop drains nothing; queued messages not yet delivered are dropped.
func (o *Outbox) Stop() {
	close(o.stop)
	<-o.done
}

// Enqueue never blocks. A full queue drops the message and logs it; the
// caller's reply to the user is already committed and must not be held up.
func (o *Outbox) Enqueue(to, body string) {
	select {
	case o.queue <- outgoing{to: to, body: body}:
	default:
		log.Warn().Str("to", to).Msg("outbox full, dropping message")
	}
}

func (o *Outbox) loop() {
	defer close(o.done)
	for {
		select {
		case msg := <-o.queue:
			if err := o.sendWithRetry(context.Background(), msg.to, msg.body); err != nil {
				log.Error().Err(err).Str("to", msg.to).Msg("outbox delivery failed")
			}
		case <-o.stop:
			return
		}
	}
}

func (o *Outbox) sendWithRetry(ctx context.Context, to, body string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := o.transport.SendText(sendCtx, to, body)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}
