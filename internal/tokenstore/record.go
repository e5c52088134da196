// Package tokenstore persists OAuth2 token material as a flat key=value file.
// Each line of the file holds exactly one entry; keys are unique and the
// order in which they were first set is preserved on write.
package tokenstore

// Well-known record keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyEmail        = "email"
	KeyName         = "name"
)

// Record is an insertion-ordered mapping of token fields.
// The zero value is an empty record ready for use.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (r *Record) Get(key string) (string, bool) {
	if r == nil || r.values == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of entries.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Merge copies every entry of other into r, overwriting per key.
// Keys missing from other are left untouched.
func (r *Record) Merge(other *Record) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		r.Set(k, other.values[k])
	}
}

// Clone returns an independent copy of r.
func (r *Record) Clone() *Record {
	out := NewRecord()
	out.Merge(r)
	return out
}

// Equal reports whether r and other hold the same entries, ignoring order.
func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		ov, ok := other.Get(k)
		if !ok || ov != v {
			return false
		}
	}
	return true
}
