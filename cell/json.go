package cell

import "encoding/json"

func marshalRemote[T comparable](r Remote[T]) ([]byte, error) {
	if r.state != stateKnown {
		return json.Marshal(jsonRemote[T]{Known: false})
	}
	return json.Marshal(jsonRemote[T]{Known: true, Value: r.value})
}

func unmarshalRemote[T comparable](data []byte, out *Remote[T]) error {
	var wire jsonRemote[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Known {
		*out = UnknownCell[T]()
		return nil
	}
	*out = KnownCell(wire.Value)
	return nil
}
