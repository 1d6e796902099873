// Package chat defines the conversation data model and the state reducer
// that reconciles a fetched message set with the current display state.
package chat

import "time"

// Message is the atomic unit exchanged in a 1:1 conversation. Ids are
// assigned by the remote store, never locally. IsRead only ever flips
// false -> true.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// View is the display state of one open conversation. It is exclusively
// owned and mutated by that conversation's scheduler.
type View struct {
	// Messages in arrival order from the remote store. The slice is only
	// ever replaced wholesale by a fetch; never appended to locally.
	Messages []Message

	// UserHasScrolledAway is true once the viewer has scrolled away from
	// the latest message. Maintained by the presentation boundary.
	UserHasScrolledAway bool

	// Loaded becomes true after the first fetch attempt, successful or not.
	Loaded bool
}
