package depend

import "encoding/json"

type jsonCell[T any] struct {
	Ref   *Ref `json:"ref,omitempty"`
	Value *T   `json:"value,omitempty"`
}

// MarshalJSON renders a literal cell as {"value": v} and a reference
// cell as {"ref": {"Key": ..., "Selector": ...}} (Ref has no json tags,
// so its Go field names are the JSON keys), so a resolved value
// persisted to the mirror round-trips, and so does a cell that was
// never resolved (e.g. a stored entry written before its dependency
// had run, in a store that crashed mid-apply).
func (c Cell[T]) MarshalJSON() ([]byte, error) {
	if c.isRef {
		ref := c.ref
		return json.Marshal(jsonCell[T]{Ref: &ref})
	}
	return json.Marshal(jsonCell[T]{Value: &c.literal})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell[T]) UnmarshalJSON(data []byte) error {
	var wire jsonCell[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Ref != nil {
		*c = Cell[T]{ref: *wire.Ref, isRef: true}
		return nil
	}
	if wire.Value != nil {
		*c = Cell[T]{literal: *wire.Value}
		return nil
	}
	*c = Cell[T]{}
	return nil
}
