package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"budgetbolt/internal/amqp"
	"budgetbolt/internal/core"
	"budgetbolt/internal/reports"
	"budgetbolt/internal/sheets"
	"budgetbolt/internal/sheets/memory"
	"budgetbolt/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type countingRecorder struct {
	mu      sync.Mutex
	results map[string]int
}

func (r *countingRecorder) ObserveExport(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]int)
	}
	r.results[result]++
}

type failingWriter struct{ err error }

func (f failingWriter) WriteMonthlyReport(context.Context, string, reports.MonthlyReport) (string, error) {
	return "", f.err
}

func seededBuilder(t *testing.T) *reports.Builder {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_, err := store.CreateTransaction(ctx, core.Transaction{
		OwnerID: "alice", Kind: core.KindIncome, Amount: core.Money{Cents: 100000},
		OccurredAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, core.Transaction{
		OwnerID: "alice", Kind: core.KindExpense, Amount: core.Money{Cents: 40000},
		OccurredAt: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), CategoryID: "cat-travel",
	})
	require.NoError(t, err)
	return reports.NewBuilder(store)
}

func TestHandleExportRequest(t *testing.T) {
	writer := memory.New(language.English)
	rec := &countingRecorder{}
	w := NewWorker(seededBuilder(t), writer, rec, nil)

	err := w.HandleExportRequest(context.Background(), amqp.NewExportRequest("alice", 2024, 3))
	require.NoError(t, err)

	rows, ok := writer.Rows("2024-03 alice")
	require.True(t, ok)
	assert.Equal(t, "1,000.00", rows[2][1])
	assert.Equal(t, "400.00", rows[3][1])
	assert.Equal(t, "600.00", rows[4][1])
	assert.Equal(t, 1, rec.results[ResultWritten])
}

func TestHandleExportRequestRejectsBadPeriod(t *testing.T) {
	writer := memory.New(language.English)
	rec := &countingRecorder{}
	w := NewWorker(seededBuilder(t), writer, rec, nil)

	err := w.HandleExportRequest(context.Background(), &amqp.ExportRequest{OwnerID: "alice", Year: 2024, Month: 13})
	require.NoError(t, err, "a request that can never succeed must not be redelivered")
	assert.Empty(t, writer.Tabs())
	assert.Equal(t, 1, rec.results[ResultRejected])
}

func TestHandleExportRequestWriterFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	rec := &countingRecorder{}
	w := NewWorker(seededBuilder(t), failingWriter{err: boom}, rec, nil)

	err := w.HandleExportRequest(context.Background(), amqp.NewExportRequest("alice", 2024, 3))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.results[ResultFailed])
}

func TestHandleExportRequestWriterRejection(t *testing.T) {
	rejected := fmt.Errorf("%w: spreadsheet not found", sheets.ErrRejected)
	rec := &countingRecorder{}
	w := NewWorker(seededBuilder(t), failingWriter{err: rejected}, rec, nil)

	err := w.HandleExportRequest(context.Background(), amqp.NewExportRequest("alice", 2024, 3))
	require.NoError(t, err, "a rejected write is acknowledged, not redelivered")
	assert.Equal(t, 1, rec.results[ResultRejected])
	assert.Zero(t, rec.results[ResultFailed])
}

type fakeConsumer struct {
	requests []*amqp.ExportRequest
	handled  chan error
	err      error
}

func (f *fakeConsumer) ConsumeExportRequests(ctx context.Context, handler func(context.Context, *amqp.ExportRequest) error) error {
	for _, req := range f.requests {
		f.handled <- handler(ctx, req)
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestProcessorLifecycle(t *testing.T) {
	writer := memory.New(language.English)
	consumer := &fakeConsumer{
		requests: []*amqp.ExportRequest{amqp.NewExportRequest("alice", 2024, 3)},
		handled:  make(chan error, 1),
	}
	p := NewProcessor(consumer, NewWorker(seededBuilder(t), writer, nil, nil))

	assert.False(t, p.IsRunning())
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(context.Background()), "second start must fail")

	select {
	case err := <-consumer.handled:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("request was not handled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.False(t, p.IsRunning())
	assert.NoError(t, p.Err())
	assert.Equal(t, []string{"2024-03 alice"}, writer.Tabs())

	require.NoError(t, p.Stop(ctx), "stopping twice is a no-op")
}

func TestProcessorConsumerFailure(t *testing.T) {
	boom := errors.New("access refused")
	consumer := &fakeConsumer{handled: make(chan error), err: boom}
	p := NewProcessor(consumer, NewWorker(seededBuilder(t), memory.New(language.English), nil, nil))

	require.NoError(t, p.Start(context.Background()))

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop")
	}
	assert.False(t, p.IsRunning())
	assert.ErrorIs(t, p.Err(), boom)
}
