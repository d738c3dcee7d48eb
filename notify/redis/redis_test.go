package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/supervise/iox"
	"github.com/justapithecus/supervise/notify"
)

func testMessage() *notify.Message {
	return &notify.Message{
		Kind:      notify.KindFailure,
		RunID:     "run-001",
		Label:     "trainer",
		Text:      "❌ **trainer** exited with code 2 after 4s",
		Timestamp: time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC),
	}
}

// asyncReceive reads one message from the subscriber in the background.
// Must be called before Send; miniredis delivers pub/sub synchronously.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestSend_JSON(t *testing.T) {
	mr := miniredis.RunT(t)

	tr, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(tr))

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultChannel)
	ch := asyncReceive(sub)

	if err := tr.Send(t.Context(), testMessage()); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg := waitMessage(t, ch)
	if msg.Channel != DefaultChannel {
		t.Errorf("channel = %q, want %q", msg.Channel, DefaultChannel)
	}

	var received notify.Message
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Kind != notify.KindFailure {
		t.Errorf("kind = %q, want failure", received.Kind)
	}
	if received.RunID != "run-001" || received.Label != "trainer" {
		t.Errorf("unexpected identity %s/%s", received.RunID, received.Label)
	}
}

func TestSend_Msgpack(t *testing.T) {
	mr := miniredis.RunT(t)

	tr, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "ops:jobs", Encoding: EncodingMsgpack})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(tr))

	sub := mr.NewSubscriber()
	sub.Subscribe("ops:jobs")
	ch := asyncReceive(sub)

	want := testMessage()
	if err := tr.Send(t.Context(), want); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg := waitMessage(t, ch)
	var received notify.Message
	if err := msgpack.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if received.Text != want.Text {
		t.Errorf("text = %q, want %q", received.Text, want.Text)
	}
	if !received.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", received.Timestamp, want.Timestamp)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "not-a-url://x"}); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := New(Config{URL: "redis://localhost:6379", Encoding: "xml"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"": EncodingJSON, "json": EncodingJSON, "msgpack": EncodingMsgpack} {
		got, err := ParseEncoding(in)
		if err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestSend_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	tr, err := New(Config{URL: "redis://" + addr, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(tr))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Send(ctx, testMessage()); err == nil {
		t.Error("expected error when server is down")
	}
}
