package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetbolt/internal/amqp"
)

// Consumer delivers export requests to a handler until its context ends.
// *amqp.Client implements it.
type Consumer interface {
	ConsumeExportRequests(ctx context.Context, handler func(context.Context, *amqp.ExportRequest) error) error
}

// Processor runs a Worker against a Consumer in the background.
type Processor struct {
	consumer Consumer
	worker   *Worker

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

func NewProcessor(consumer Consumer, worker *Worker) *Processor {
	return &Processor{consumer: consumer, worker: worker}
}

// Start begins consuming. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("export processor is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.err = nil

	go p.run(runCtx, p.doneCh)

	slog.InfoContext(ctx, "Export processor started")
	return nil
}

func (p *Processor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := p.consumer.ConsumeExportRequests(ctx, p.worker.HandleExportRequest)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Export consumer stopped", "error", err)
	}

	p.mu.Lock()
	p.running = false
	p.err = err
	p.mu.Unlock()
}

// Stop cancels consumption and waits for the consumer to return.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.doneCh
	p.mu.Unlock()

	cancel()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the consumer loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done is closed when the consumer loop exits. It is nil before Start.
func (p *Processor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

// Err returns the error the consumer loop ended with, if any.
func (p *Processor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
