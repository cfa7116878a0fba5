package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Wisdom is the accumulated run state threaded through a conversation.
// Engine code treats a Wisdom as immutable: stages produce a new value with Merge.
type Wisdom map[string]any

// NewWisdom returns an empty Wisdom.
func NewWisdom() Wisdom {
	return make(Wisdom)
}

// Merge returns a new Wisdom holding w overlaid by each of over, in order.
// Keys set later win; keys not mentioned by a later layer are preserved.
func (w Wisdom) Merge(over ...Wisdom) Wisdom {
	size := len(w)
	for _, o := range over {
		size += len(o)
	}
	out := make(Wisdom, size)
	maps.Copy(out, w)
	for _, o := range over {
		maps.Copy(out, o)
	}
	return out
}

// With returns a new Wisdom with a single key set.
func (w Wisdom) With(key string, value any) Wisdom {
	return w.Merge(Wisdom{key: value})
}

// Clone returns a shallow copy.
func (w Wisdom) Clone() Wisdom {
	return w.Merge()
}

// String returns the value of key rendered as text.
// Missing keys yield "", strings are returned verbatim and anything else is JSON encoded.
func (w Wisdom) String(key string) string {
	v, ok := w[key]
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Has reports whether key is present.
func (w Wisdom) Has(key string) bool {
	_, ok := w[key]
	return ok
}

// Stringify renders an arbitrary wisdom value as prompt text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
