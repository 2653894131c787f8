// Package event carries resource change notifications to websocket clients
// and, when configured, to Kafka.
package event

import (
	"context"
	"time"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Change describes one successful write through the resource API.
type Change struct {
	Resource string    `json:"resource"`
	Action   Action    `json:"action"`
	ID       string    `json:"id"`
	StoreID  string    `json:"storeId,omitempty"`
	ActorID  string    `json:"actorId"`
	At       time.Time `json:"at"`

	// Recipients, when set, replaces the store member lookup at delivery.
	Recipients []string `json:"-"`
}

// Topic is the Kafka topic for c under prefix, e.g. "utang.customers.created".
func (c Change) Topic(prefix string) string {
	return prefix + "." + c.Resource + "." + string(c.Action)
}

// Notifier is told about every committed change. Implementations must not
// block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// Nop discards every change.
type Nop struct{}

func (Nop) Notify(context.Context, Change) {}
