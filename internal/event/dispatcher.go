package event

import (
	"context"
	"encoding/json"
	"log"

	"go-utang-ledger/internal/ws"
)

// MemberLookup lists the users of a store.
type MemberLookup interface {
	MemberIDs(ctx context.Context, storeID string) ([]string, error)
}

// message is the JSON frame pushed to sockets and published to Kafka.
type message struct {
	Type string `json:"type"`
	Change
}

// Dispatcher fans a change out to the websocket hub and an optional
// publisher. Either side may be nil.
type Dispatcher struct {
	hub         *ws.Hub
	publisher   Publisher
	members     MemberLookup
	topicPrefix string
}

func NewDispatcher(hub *ws.Hub, publisher Publisher, members MemberLookup, topicPrefix string) *Dispatcher {
	return &Dispatcher{
		hub:         hub,
		publisher:   publisher,
		members:     members,
		topicPrefix: topicPrefix,
	}
}

// Notify delivers c in the background; the request that caused it has
// already committed.
func (d *Dispatcher) Notify(ctx context.Context, c Change) {
	go d.Deliver(context.WithoutCancel(ctx), c)
}

// Deliver sends c synchronously. Failures are logged only.
func (d *Dispatcher) Deliver(ctx context.Context, c Change) {
	payload, err := json.Marshal(message{Type: "resource_changed", Change: c})
	if err != nil {
		log.Printf("event: encode %s %s: %v", c.Resource, c.Action, err)
		return
	}

	if d.hub != nil {
		d.hub.Send(d.recipients(ctx, c), payload)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(c.Topic(d.topicPrefix), c.ID, payload); err != nil {
			log.Printf("event: publish %s: %v", c.Topic(d.topicPrefix), err)
		}
	}
}

func (d *Dispatcher) recipients(ctx context.Context, c Change) []string {
	users := []string{c.ActorID}
	if c.Recipients != nil {
		return append(users, c.Recipients...)
	}
	if c.StoreID == "" || d.members == nil {
		return users
	}

	ids, err := d.members.MemberIDs(ctx, c.StoreID)
	if err != nil {
		log.Printf("event: members of store %s: %v", c.StoreID, err)
		return users
	}
	return append(users, ids...)
}
