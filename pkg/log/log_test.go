package log

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.olog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, e)
	}
}

func TestEventRoundTrip(t *testing.T) {
	d := 3 * time.Millisecond
	kind := 2
	event := Event{
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		ConnectionID: "c1",
		Direction:    DirectionOut,
		Layer:        LayerBridge,
		Category:     CategoryCallback,
		Protocol:     "oscquery",
		Device:       "synth",
		Callback:     &CallbackEvent{Address: "synth:/freq", Selector: "pvOnCallback", Duration: &d},
		Error:        &ErrorEventData{Layer: LayerHost, Message: "x", Kind: &kind},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if !got.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, event.Timestamp)
	}
	if got.Callback == nil || got.Callback.Address != "synth:/freq" || *got.Callback.Duration != d {
		t.Errorf("Callback = %+v", got.Callback)
	}
	if got.Error == nil || *got.Error.Kind != 2 {
		t.Errorf("Error = %+v", got.Error)
	}
	if got.Message != nil {
		t.Error("Message should stay nil")
	}
}

func TestReaderFilter(t *testing.T) {
	now := time.Now()
	events := []Event{
		{Timestamp: now, ConnectionID: "a", Layer: LayerTransport, Protocol: "osc",
			Message: &MessageEvent{Type: MessageTypeValue, Address: "/filter/cutoff"}},
		{Timestamp: now, ConnectionID: "b", Layer: LayerTransport, Protocol: "minuit",
			Message: &MessageEvent{Type: MessageTypeNamespace, Address: "/"}},
		{Timestamp: now, ConnectionID: "c", Layer: LayerBridge, Category: CategoryCallback,
			Callback: &CallbackEvent{Address: "/filter/q", Dropped: true}},
	}
	path := createTestLogFile(t, events)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"a", "b", "c"}},
		{"protocol", Filter{Protocol: "minuit"}, []string{"b"}},
		{"address prefix", Filter{Address: "/filter"}, []string{"a", "c"}},
		{"layer", Filter{Layer: ptr(LayerBridge)}, []string{"c"}},
		{"category", Filter{Category: ptr(CategoryError)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader() error = %v", err)
			}
			defer r.Close()

			var ids []string
			for _, e := range readAll(t, r) {
				ids = append(ids, e.ConnectionID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", ids, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.olog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(Event{Timestamp: time.Now(), Layer: LayerHost})
		}()
	}
	wg.Wait()
	if written, failed := logger.Stats(); written != 20 || failed != 0 {
		t.Errorf("Stats() = %d, %d; want 20, 0", written, failed)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	logger.Log(Event{}) // ignored after close

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	if n := len(readAll(t, r)); n != 20 {
		t.Errorf("read %d events, want 20", n)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Layer:    LayerTransport,
		Protocol: "osc",
		Message:  &MessageEvent{Type: MessageTypeValue, Address: "/gain", Size: 16},
	})

	out := buf.String()
	for _, want := range []string{"layer=TRANSPORT", "protocol=osc", "msg_type=VALUE", "address=/gain", "size=16"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

type countingLogger struct {
	mu sync.Mutex
	n  int
}

func (c *countingLogger) Log(Event) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func TestMultiLogger(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}
	m := NewMultiLogger(a, b, NoopLogger{})
	m.Log(Event{})
	m.Log(Event{})

	if a.n != 2 || b.n != 2 {
		t.Errorf("counts = %d, %d; want 2, 2", a.n, b.n)
	}
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
}

func TestFileLoggerStampsAndCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "s.olog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	before := time.Now()
	logger.Log(Event{Layer: LayerBridge, Category: CategoryCallback})
	logger.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	got := readAll(t, r)
	if len(got) != 1 {
		t.Fatalf("read %d events, want 1", len(got))
	}
	if got[0].Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want stamped at or after %v", got[0].Timestamp, before)
	}
}

func TestCombine(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}

	if Combine() != nil || Combine(nil, nil) != nil {
		t.Error("Combine() without loggers should be nil")
	}
	if got := Combine(nil, a); got != Logger(a) {
		t.Errorf("Combine(nil, a) = %v, want a", got)
	}
	m, ok := Combine(a, nil, b).(*MultiLogger)
	if !ok {
		t.Fatal("Combine(a, nil, b) should return a MultiLogger")
	}
	m.Log(Event{})
	if a.n != 1 || b.n != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", a.n, b.n)
	}
}

func TestReaderTruncatedTail(t *testing.T) {
	now := time.Now()
	path := createTestLogFile(t, []Event{
		{Timestamp: now, Layer: LayerTransport, Category: CategoryMessage},
		{Timestamp: now, Layer: LayerHost, Category: CategoryState},
	})

	partial, err := EncodeEvent(Event{Timestamp: now, Layer: LayerBridge, Device: "synth"})
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if _, err := f.Write(partial[:len(partial)/2]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	if n := len(readAll(t, r)); n != 2 {
		t.Errorf("read %d events, want 2", n)
	}
}
