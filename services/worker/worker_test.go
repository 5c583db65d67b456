package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/toriwatch/helpers"
	perrors "sjsage522/toriwatch/pkg/errors"
	"sjsage522/toriwatch/pkg/parser"
	"sjsage522/toriwatch/pkg/timestamp"
	"sjsage522/toriwatch/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu        sync.Mutex
	published map[string][]parser.Item
	trimmed   int
	err       error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		published: make(map[string][]parser.Item),
	}
}

func (m *MockPublisher) Publish(_ context.Context, source string, items []parser.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published[source] = append(m.published[source], items...)
	return nil
}

func (m *MockPublisher) TrimStreams(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

// Ensure MockLogger implements helpers.LoggerInterface
var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{
		errors: make([]string, 0),
		infos:  make([]string, 0),
	}
}

func (m *MockLogger) LogError(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, source+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func row(n int, price, postedAt string) string {
	return fmt.Sprintf(`<a href="/uusimaa/Tuote_%[1]d.htm" id="item_%[1]d" data-row="%[1]d" data-company-ad="0">
<div class="li-title">Tuote %[1]d</div>
<p class="list_price ineuros">%[2]s</p>
<div class="date_image">%[3]s</div>
<div class="cat_geo"><p>Espoo</p><p>Myydään</p></div>
</a>`, n, price, postedAt)
}

func page(rows ...string) string {
	return `<html><head><meta charset="utf-8"></head><body><div class="list_mode_thumb">` +
		strings.Join(rows, "\n") + `</div></body></html>`
}

func writePage(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestWorkerRun(t *testing.T) {
	dir := t.TempDir()
	first := writePage(t, dir, "2023-03-25-105201-dump.html", page(
		row(1, "10 €", "tänään 09:15"),
		row(2, "abc", "tänään 09:20"),
		row(3, "30 €", "eilen 23:59"),
	))
	second := writePage(t, dir, "2024-01-30-123020-dump.html", page(row(4, "5 €", "29 jou 18:00")))
	broken := writePage(t, dir, "2024-01-31-080000-dump.html", `<html><body><p>maintenance</p></body></html>`)

	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	w := NewWorker(mockPublisher, mockLogger, Options{Concurrency: 2})

	results := w.Run(context.Background(), []Job{{Path: first}, {Path: second}, {Path: broken}})
	require.Len(t, results, 3)

	// results come back in job order
	assert.Equal(t, first, results[0].Job.Path)
	assert.Equal(t, second, results[1].Job.Path)
	assert.Equal(t, broken, results[2].Job.Path)

	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Outcome.Items, 2)
	assert.Equal(t, "1", results[0].Outcome.Items[0].ID)
	assert.Equal(t, "3", results[0].Outcome.Items[1].ID)
	require.Len(t, results[0].Outcome.Failures, 1)
	assert.Equal(t, "field:price", results[0].Outcome.Failures[0].StageName())

	helsinki := timestamp.SiteLocation()
	require.NoError(t, results[1].Err)
	require.Len(t, results[1].Outcome.Items, 1)
	assert.Equal(t, time.Date(2023, 12, 29, 18, 0, 0, 0, helsinki).UTC(), results[1].Outcome.Items[0].PostedAt)

	assert.True(t, perrors.IsStructural(results[2].Err))
	assert.Nil(t, results[2].Outcome)

	// items are published per page, failures are logged
	assert.Len(t, mockPublisher.published["2023-03-25-105201-dump.html"], 2)
	assert.Len(t, mockPublisher.published["2024-01-30-123020-dump.html"], 1)
	assert.NotContains(t, mockPublisher.published, "2024-01-31-080000-dump.html")
	assert.Equal(t, 1, mockPublisher.trimmed)

	require.Len(t, mockLogger.errors, 2)
	joined := strings.Join(mockLogger.errors, "\n")
	assert.Contains(t, joined, `2023-03-25-105201-dump.html: [field:price] listing #1 (id 2)`)
	assert.Contains(t, joined, "2024-01-31-080000-dump.html: [structure-not-found]")
}

func TestWorkerFetchTimeOverride(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "results.html", page(row(1, "10 €", "eilen 15:59")))

	w := NewWorker(nil, NewMockLogger(), Options{})
	ref := time.Date(2023, 3, 25, 10, 52, 1, 0, time.UTC)
	results := w.Run(context.Background(), []Job{{Path: path, FetchedAt: ref}})

	require.NoError(t, results[0].Err)
	assert.Equal(t, time.Date(2023, 3, 24, 13, 59, 0, 0, time.UTC), results[0].Outcome.Items[0].PostedAt)
	assert.Equal(t, ref, results[0].Outcome.Reference.UTC())
}

func TestWorkerMissingFetchTime(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "results.html", page(row(1, "10 €", "eilen 15:59")))

	mockLogger := NewMockLogger()
	w := NewWorker(nil, mockLogger, Options{})
	results := w.Run(context.Background(), []Job{{Path: path}})

	assert.ErrorIs(t, results[0].Err, helpers.ErrNoFetchTime)
	assert.Len(t, mockLogger.errors, 1)
}

func TestWorkerMissingFile(t *testing.T) {
	w := NewWorker(nil, NewMockLogger(), Options{})
	results := w.Run(context.Background(), []Job{{Path: filepath.Join(t.TempDir(), "2023-03-25-105201-dump.html")}})
	assert.ErrorIs(t, results[0].Err, os.ErrNotExist)
}

func TestWorkerPublishError(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "2023-03-25-105201-dump.html", page(row(1, "10 €", "tänään 09:15")))

	mockPublisher := NewMockPublisher()
	mockPublisher.err = errors.New("connection refused")
	mockLogger := NewMockLogger()

	w := NewWorker(mockPublisher, mockLogger, Options{})
	results := w.Run(context.Background(), []Job{{Path: path}})

	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Outcome.Items, 1)
	assert.EqualError(t, results[0].PublishErr, "connection refused")
	assert.Contains(t, mockLogger.errors[0], "connection refused")
}

func TestWorkerConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	w := NewWorker(nil, NewMockLogger(), Options{Concurrency: 3})
	w.readPage = func(path, _ string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return page(row(1, "1 €", "tänään 00:01")), nil
	}

	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = Job{Path: fmt.Sprintf("2023-03-25-1052%02d-dump.html", i)}
	}
	results := w.Run(context.Background(), jobs)

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, jobs[i].Path, r.Job.Path)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestWorkerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorker(nil, NewMockLogger(), Options{})
	w.readPage = func(string, string) (string, error) {
		t.Error("no page should be read after cancellation")
		return "", nil
	}

	results := w.Run(ctx, []Job{{Path: "2023-03-25-105201-dump.html"}, {Path: "2023-03-25-105202-dump.html"}})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
