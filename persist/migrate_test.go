package persist

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type thingV2 struct {
	Name string `json:"name"`
}

func TestDecodeSucceeds(t *testing.T) {
	entry := Entry{TypeTag: "thing", Data: json.RawMessage(`{"name":"a"}`)}
	dec := func(data json.RawMessage) (any, error) {
		var v thingV2
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	v, inert := Decode("web", entry, dec)
	require.Nil(t, inert)
	assert.Equal(t, thingV2{Name: "a"}, v)
}

func TestDecodeFallsBackToInertEntry(t *testing.T) {
	entry := Entry{TypeTag: "thing", Data: json.RawMessage(`"unrecognized-legacy-shape"`)}
	dec := func(data json.RawMessage) (any, error) {
		var v thingV2
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("unrecognized shape: %w", err)
		}
		return v, nil
	}

	v, inert := Decode("web", entry, dec)
	assert.Nil(t, v)
	require.NotNil(t, inert)
	assert.Equal(t, "web", inert.Key)
	assert.Equal(t, "thing", inert.TypeTag)
}
