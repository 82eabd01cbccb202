package pkg

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// IDKind discriminates the shapes a student identifier arrives in
type IDKind int

const (
	IDAbsent  IDKind = iota // null or missing
	IDPlain                 // bare string or scalar
	IDWrapped               // object carrying the id in one of wrapperFields
)

// wrapperFields are checked in order; the first string-valued one wins.
var wrapperFields = []string{"$oid", "oid", "id"}

// RawID is an identifier exactly as upstream sent it
type RawID struct {
	Kind  IDKind
	Field string // wrapper field name, only for IDWrapped
	Value string
}

// PlainID wraps a bare identifier.
func PlainID(v string) RawID {
	return RawID{Kind: IDPlain, Value: v}
}

// WrappedID wraps an identifier carried in an object field such as {"$oid": "..."}.
func WrappedID(field, v string) RawID {
	return RawID{Kind: IDWrapped, Field: field, Value: v}
}

// UnmarshalJSON resolves the identifier shape once, at decode time.
func (id *RawID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = RawID{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := sonic.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("failed to decode id string: %w", err)
		}
		*id = PlainID(s)
	case '{':
		var fields map[string]any
		if err := sonic.Unmarshal(trimmed, &fields); err != nil {
			return fmt.Errorf("failed to decode id object: %w", err)
		}
		for _, f := range wrapperFields {
			if s, ok := fields[f].(string); ok {
				*id = WrappedID(f, s)
				return nil
			}
		}
		// unknown wrapper: keep its JSON text so it can still be compared
		*id = PlainID(string(trimmed))
	default:
		// numbers, booleans and arrays compare by their literal text
		*id = PlainID(string(trimmed))
	}
	return nil
}

// MarshalJSON writes the identifier back in its original shape.
func (id RawID) MarshalJSON() ([]byte, error) {
	switch id.Kind {
	case IDPlain:
		return sonic.Marshal(id.Value)
	case IDWrapped:
		return sonic.Marshal(map[string]string{id.Field: id.Value})
	default:
		return []byte("null"), nil
	}
}

// NormalizedID returns the comparable form of an identifier. Absent ids normalize to "".
func NormalizedID(raw RawID) string {
	if raw.Kind == IDAbsent {
		return ""
	}
	return strings.TrimSpace(raw.Value)
}

// MatchKey recognises the upstream rows that belong to one student
type MatchKey struct {
	ids   map[string]struct{}
	rolls map[string]struct{}
}

// NewMatchKey trims the given keys and drops empty ones.
func NewMatchKey(idKeys, rollKeys []string) MatchKey {
	return MatchKey{ids: keySet(idKeys), rolls: keySet(rollKeys)}
}

// Matches reports whether row's normalized student_id is one of the id or roll keys,
// or its trimmed student_roll is one of the roll keys.
func (k MatchKey) Matches(row AttendanceRow) bool {
	if sid := NormalizedID(row.StudentID); sid != "" {
		if _, ok := k.ids[sid]; ok {
			return true
		}
		if _, ok := k.rolls[sid]; ok {
			return true
		}
	}
	if roll := NormalizedID(row.StudentRoll); roll != "" {
		if _, ok := k.rolls[roll]; ok {
			return true
		}
	}
	return false
}

// Empty is true when no key could ever match.
func (k MatchKey) Empty() bool {
	return len(k.ids) == 0 && len(k.rolls) == 0
}

func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}
