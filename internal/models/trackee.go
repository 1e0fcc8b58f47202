package models

// Trackee is an opaque tracked-entity document. Only its "id" field is interpreted.
type Trackee map[string]any

// ID returns the trackee's id field, or an empty string when missing or not a string.
func (t Trackee) ID() string {
	id, _ := t["id"].(string)
	return id
}
