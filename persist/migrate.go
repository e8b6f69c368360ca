package persist

import "encoding/json"

// InertEntry is a stored entry whose payload could not be decoded
// against any shape its type tag's adapter recognizes — the Go
// rendition of teleform's Migrated/MigratedProxy fallback. It carries
// the original bytes forward unchanged so a later apply can still
// destroy it (the only action an inert entry is eligible for); it can
// never be updated, recreated, or read, since nothing in the running
// process knows how to interpret its payload.
type InertEntry struct {
	Key          string
	TypeTag      string
	Data         json.RawMessage
	Dependencies []string
}

// Decoder decodes a stored entry's raw payload into the current Go
// shape a registered type expects. A decoder may be handed bytes from
// an older schema version of that type; a Decoder should attempt every
// shape it still recognizes before giving up.
type Decoder func(data json.RawMessage) (any, error)

// Decode runs dec against e, returning an InertEntry instead of an
// error when dec cannot make sense of the payload — schema drift a
// resource type's author didn't account for becomes a tombstone rather
// than a decode error. The store destroys such an entry without a
// platform call once its key is no longer declared (and its type is
// registered); while its key is still declared, the store's Plan fails
// with ErrSchemaMigration.
func Decode(key string, e Entry, dec Decoder) (value any, inert *InertEntry) {
	v, err := dec(e.Data)
	if err != nil {
		return nil, &InertEntry{Key: key, TypeTag: e.TypeTag, Data: e.Data, Dependencies: e.Dependencies}
	}
	return v, nil
}
