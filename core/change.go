package core

// ChangeType is the kind of mutation a push frame describes.
type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeNotification is a push frame describing a mutation made by some
// client. CREATE and UPDATE carry the full object; DELETE carries only
// the id. Frames are delivered at-least-once with no ordering guarantee
// relative to REST responses, so every application of one must be
// idempotent.
type ChangeNotification struct {
	Type     ChangeType    `json:"type"`
	Object   *CanvasObject `json:"object,omitempty"`
	ObjectID int64         `json:"objectId,omitempty"`
}

// Valid reports whether the frame carries the payload its type requires.
func (n ChangeNotification) Valid() bool {
	switch n.Type {
	case ChangeCreate, ChangeUpdate:
		return n.Object != nil
	case ChangeDelete:
		return n.ObjectID != 0
	default:
		return false
	}
}
