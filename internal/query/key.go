package query

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key identifies one cached read: the resource family it belongs to, the
// operation, and the operation's parameters in order.
type Key struct {
	Resource  string
	Operation string
	Params    []any
}

func NewKey(resource, operation string, params ...any) Key {
	return Key{Resource: resource, Operation: operation, Params: params}
}

// Hash is a stable string form of the key. Keys with equal hashes share one
// cache entry and one in-flight request.
func (k Key) Hash() string {
	parts := make([]any, 0, len(k.Params)+2)
	parts = append(parts, k.Resource, k.Operation)
	parts = append(parts, k.Params...)

	data, err := json.Marshal(parts)
	if err != nil {
		// Params are plain values; fall back to fmt for anything exotic.
		return fmt.Sprintf("%q", fmt.Sprint(parts...))
	}
	return string(data)
}

func (k Key) String() string {
	return k.Hash()
}
