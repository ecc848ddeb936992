package feed

import (
	"encoding/json"
	"fmt"

	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Event is one row-level change on a user's bookmark set. Insert and update
// carry the affected row; delete carries only the id.
type Event struct {
	Type     ChangeType       `json:"type"`
	Bookmark *types.Bookmark  `json:"bookmark,omitempty"`
	Id       types.BookmarkId `json:"id,omitempty"`
}

func Insert(b types.Bookmark) Event {
	return Event{Type: ChangeInsert, Bookmark: &b, Id: b.Id}
}

func Update(b types.Bookmark) Event {
	return Event{Type: ChangeUpdate, Bookmark: &b, Id: b.Id}
}

func Delete(id types.BookmarkId) Event {
	return Event{Type: ChangeDelete, Id: id}
}

func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode feed event: %w", err)
	}
	return data, nil
}

// Decode parses a wire payload into a typed event. The dynamic shape of the
// payload is checked here, at the subscription boundary, so consumers only
// ever see a well-formed tagged union.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode feed event: %w", err)
	}
	switch e.Type {
	case ChangeInsert, ChangeUpdate:
		if e.Bookmark == nil {
			return Event{}, fmt.Errorf("feed event %q without bookmark", e.Type)
		}
		if e.Id == "" {
			e.Id = e.Bookmark.Id
		}
	case ChangeDelete:
		if e.Id == "" {
			return Event{}, fmt.Errorf("feed delete event without id")
		}
	default:
		return Event{}, fmt.Errorf("unknown feed event type %q", e.Type)
	}
	return e, nil
}
