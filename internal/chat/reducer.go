package chat

// ScrollIntent is the reducer's decision about whether the presentation
// layer should jump to the latest message.
type ScrollIntent int

const (
	// PreservePosition leaves the viewport where the user put it.
	PreservePosition ScrollIntent = iota

	// ScrollToBottom jumps to the latest message.
	ScrollToBottom
)

func (s ScrollIntent) String() string {
	if s == ScrollToBottom {
		return "scroll-to-bottom"
	}
	return "preserve-position"
}

// Reduction is the outcome of one reconcile step.
type Reduction struct {
	View View

	// ReadReceipts holds the ids of fetched messages addressed to the
	// current user that the remote store still reports as unread. It is
	// recomputed on every successful fetch, not only when novelty is
	// detected, because a read flag can flip without a length change.
	ReadReceipts []string

	Scroll ScrollIntent
}

// Reduce reconciles a freshly fetched message set with the previous view.
//
// Novelty is detected by comparing lengths only: duplicate ids, reordering,
// or same-count content changes between fetches are not detected. This is a
// deliberate, known limitation carried over from the production behavior; an
// id-set comparison would change when re-render and scroll decisions fire.
func Reduce(prev View, fetched []Message, self string) Reduction {
	next := prev
	next.Loaded = true

	novelty := len(fetched) != len(prev.Messages)
	if novelty {
		next.Messages = fetched
	}

	var receipts []string
	for _, msg := range fetched {
		if msg.To == self && !msg.IsRead {
			receipts = append(receipts, msg.ID)
		}
	}

	scroll := PreservePosition
	if novelty && !prev.UserHasScrolledAway {
		scroll = ScrollToBottom
	}

	return Reduction{
		View:         next,
		ReadReceipts: receipts,
		Scroll:       scroll,
	}
}
