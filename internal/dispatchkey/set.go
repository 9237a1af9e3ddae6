package dispatchkey

import (
	"math/bits"
	"strings"
)

// Set is a bitset over Key. The zero value is the empty set. Sets are
// values: Add, Remove and Intersect return a new Set and never mutate the
// receiver, so a Set can be published through an atomic word.
type Set uint64

// Full returns the set holding every addressable key.
func Full() Set {
	var s Set
	for k := Undefined + 1; k < numKeys; k++ {
		s = s.Add(k)
	}
	return s
}

// Add returns s with k included. Adding Undefined is a no-op.
func (s Set) Add(k Key) Set {
	if !k.Valid() {
		return s
	}
	return s | 1<<uint(k)
}

// Remove returns s with k excluded.
func (s Set) Remove(k Key) Set {
	if !k.Valid() {
		return s
	}
	return s &^ (1 << uint(k))
}

// Has reports whether k is a member of s.
func (s Set) Has(k Key) bool {
	return k.Valid() && s&(1<<uint(k)) != 0
}

// Intersect returns the keys present in both sets.
func (s Set) Intersect(o Set) Set {
	return s & o
}

// Empty reports whether s holds no keys.
func (s Set) Empty() bool {
	return s == 0
}

// Highest returns the highest-priority member of s, or Undefined when s is
// empty. Dispatch resolution always picks the highest key first.
func (s Set) Highest() Key {
	if s == 0 {
		return Undefined
	}
	return Key(bits.Len64(uint64(s)) - 1)
}

// Keys returns the members of s in ascending priority order.
func (s Set) Keys() []Key {
	var out []Key
	for k := Undefined + 1; k < numKeys; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, NumKeys)
	for _, k := range s.Keys() {
		names = append(names, k.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}
