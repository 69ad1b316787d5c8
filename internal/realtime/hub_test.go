package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHubBroadcastToCourseClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	courseID := uuid.New()
	otherCourse := uuid.New()

	watcher := &client{courseID: courseID, send: make(chan []byte, 4)}
	bystander := &client{courseID: otherCourse, send: make(chan []byte, 4)}
	hub.register <- watcher
	hub.register <- bystander

	ev := MarkEvent{
		CourseID:    courseID,
		Date:        "2024-02-01",
		StudentID:   uuid.New(),
		StudentName: "Ada",
	}
	hub.BroadcastMark(ev)

	select {
	case data := <-watcher.send:
		var got MarkEvent
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Date != "2024-02-01" || got.StudentName != "Ada" {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not receive mark event")
	}

	select {
	case <-bystander.send:
		t.Fatal("bystander received event for another course")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	cl := &client{courseID: uuid.New(), send: make(chan []byte, 1)}
	hub.register <- cl
	hub.unregister <- cl

	select {
	case _, ok := <-cl.send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}
