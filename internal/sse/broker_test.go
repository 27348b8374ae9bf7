package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/store"
)

func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "notice", Data: map[string]string{"message": "hi"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: notice\n") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `data: {"message":"hi"}`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChangePayloads(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	item := models.MediaItem{ID: "abc", Title: "Dune", Category: models.CategoryBooks, Status: models.StatusTodo}
	prefs := models.DefaultPreferences()
	b.PublishChange(store.Change{Kind: store.ItemAdded, ID: "abc", Item: &item})
	b.PublishChange(store.Change{Kind: store.ItemDeleted, ID: "abc"})
	b.PublishChange(store.Change{Kind: store.PreferencesUpdated, Preferences: &prefs})

	msgs := drain(ch)
	// added, stats (first, unthrottled), deleted, preferences
	if len(msgs) != 4 {
		t.Fatalf("got %d messages: %q", len(msgs), msgs)
	}
	if !strings.HasPrefix(msgs[0], "event: item.added\n") || !strings.Contains(msgs[0], `"title":"Dune"`) {
		t.Errorf("added = %q", msgs[0])
	}
	if !strings.HasPrefix(msgs[1], "event: stats.updated\n") {
		t.Errorf("stats = %q", msgs[1])
	}
	if !strings.HasPrefix(msgs[2], "event: item.deleted\n") || !strings.Contains(msgs[2], `{"id":"abc"}`) {
		t.Errorf("deleted = %q", msgs[2])
	}
	if !strings.HasPrefix(msgs[3], "event: preferences.updated\n") || !strings.Contains(msgs[3], `"currentTheme":"dark"`) {
		t.Errorf("preferences = %q", msgs[3])
	}
}

func TestStatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(store.Change{Kind: store.ItemDeleted, ID: "a"})
	b.PublishChange(store.Change{Kind: store.ItemDeleted, ID: "b"})

	stats, items := 0, 0
	for _, m := range drain(ch) {
		if strings.Contains(m, StatsUpdated) {
			stats++
		} else {
			items++
		}
	}
	if items != 2 {
		t.Errorf("item events = %d, want 2", items)
	}
	if stats != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", stats)
	}
}

func TestStoreSubscription(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	s := store.New(nopPersister{})
	s.Subscribe(b.PublishChange)
	s.SetTheme(models.ThemeLight)

	msgs := drain(ch)
	if len(msgs) != 1 || !strings.Contains(msgs[0], `"currentTheme":"light"`) {
		t.Fatalf("messages = %q", msgs)
	}
}

type nopPersister struct{}

func (nopPersister) Load() (models.State, error) { return models.NewState(), nil }
func (nopPersister) Save(models.State) error     { return nil }

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(store.Change{Kind: store.ItemDeleted, ID: "x"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: item.deleted") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The client buffer holds 64 messages; the rest must be dropped, not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// no-ops after close
	b.Publish(Event{Type: "x", Data: 1})
	b.PublishChange(store.Change{Kind: store.StateReloaded})
}
