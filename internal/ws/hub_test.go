package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testClient(restaurantID uuid.UUID) *Client {
	return &Client{
		restaurantID: restaurantID,
		send:         make(chan []byte, 8),
	}
}

func waitForMessage(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast")
		return nil
	}
}

func TestBroadcastReachesOnlySubscribedRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	ridA := uuid.New()
	ridB := uuid.New()

	clientA := testClient(ridA)
	clientB := testClient(ridB)
	hub.register <- clientA
	hub.register <- clientB

	orderID := uuid.New()
	hub.BroadcastToRestaurant(ridA, Event{
		Type:    EventOrderCreated,
		Payload: OrderPayload{OrderID: orderID, OrderNumber: "CW-001", Status: "PENDING", Total: "517.50"},
	})

	msg := waitForMessage(t, clientA)
	var event Event
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("broadcast is not valid JSON: %v", err)
	}
	if event.Type != EventOrderCreated {
		t.Errorf("expected type %s, got %s", EventOrderCreated, event.Type)
	}
	if event.Payload.OrderID != orderID || event.Payload.OrderNumber != "CW-001" {
		t.Errorf("payload did not survive the wire: %+v", event.Payload)
	}
	if event.Payload.Total != "517.50" {
		t.Errorf("expected total 517.50, got %q", event.Payload.Total)
	}

	select {
	case msg := <-clientB.send:
		t.Errorf("client in another room received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastFansOutWithinRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	rid := uuid.New()
	first := testClient(rid)
	second := testClient(rid)
	hub.register <- first
	hub.register <- second

	hub.BroadcastToRestaurant(rid, Event{Type: EventOrderUpdated, Payload: OrderPayload{OrderID: uuid.New()}})

	waitForMessage(t, first)
	waitForMessage(t, second)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	rid := uuid.New()
	client := testClient(rid)
	hub.register <- client
	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Errorf("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}

	// Broadcasting to an emptied room must not block or panic.
	hub.BroadcastToRestaurant(rid, Event{Type: EventOrderDeleted, Payload: OrderPayload{OrderID: uuid.New()}})
}
