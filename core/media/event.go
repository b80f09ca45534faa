package media

import (
	"fmt"
	"time"
)

// EventKind distinguishes host change notifications.
type EventKind string

const (
	// EventItemAdded is emitted once when the host discovers a new item.
	EventItemAdded EventKind = "added"
	// EventItemUpdated is emitted whenever the host saves an item, possibly in bursts.
	EventItemUpdated EventKind = "updated"
)

// Event is a typed change notification for a single item.
type Event struct {
	Kind   EventKind `json:"kind"`
	ItemID string    `json:"item_id"`

	// Item is the observable state at emission time. When nil the
	// reconciler fetches the current state from the library.
	Item *Item `json:"item,omitempty"`

	At time.Time `json:"at"`
}

// Validate checks that the event can be routed.
func (e Event) Validate() error {
	switch e.Kind {
	case EventItemAdded, EventItemUpdated:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ItemID == "" {
		return fmt.Errorf("event %s has no item id", e.Kind)
	}
	if e.Item != nil && e.Item.ID != e.ItemID {
		return fmt.Errorf("event item id %q does not match snapshot id %q", e.ItemID, e.Item.ID)
	}
	return nil
}
