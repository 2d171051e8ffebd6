// Package meta holds the free-form attributes users attach to customers and
// suppliers (notes, IBAN, region codes...). Keys are slugs; JSON encoding is
// stable so stored rows diff cleanly.
package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/slug"
)

// Metadata is a small string map with validation and stable JSON encoding.
type Metadata map[string]string

const (
	MaxPairs     = 20
	MaxKeyLen    = 40
	MaxValLen    = 256
	MaxTotalJSON = 4096
)

// New copies m, slugifying keys. Keys that slugify to nothing are dropped.
func New(m map[string]string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if sk := slug.Slugify(k); sk != "" {
			out[sk] = v
		}
	}
	return out
}

func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	return maps.Clone(m)
}

func (m Metadata) Get(k string) (string, bool) {
	v, ok := m[k]
	return v, ok
}

// Merge applies other on top of m. An empty value deletes the key.
func (m Metadata) Merge(other Metadata) {
	for _, k := range slices.Sorted(maps.Keys(other)) {
		if other[k] == "" {
			delete(m, k)
			continue
		}
		m[k] = other[k]
	}
}

func (m Metadata) Validate() error {
	if len(m) > MaxPairs {
		return errs.Invalid("metadata", fmt.Sprintf("at most %d pairs", MaxPairs))
	}
	for k, v := range m {
		if !slug.IsSlug(k) || len(k) > MaxKeyLen {
			return errs.Invalid("metadata", "invalid key "+k)
		}
		if len(v) > MaxValLen {
			return errs.Invalid("metadata", "value too long for "+k)
		}
	}
	b, err := m.MarshalStableJSON()
	if err != nil {
		return err
	}
	if len(b) > MaxTotalJSON {
		return errs.Invalid("metadata", "exceeds max json size")
	}
	return nil
}

// MarshalStableJSON returns a deterministic JSON representation with keys sorted.
func (m Metadata) MarshalStableJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m Metadata) MarshalJSON() ([]byte, error) { return m.MarshalStableJSON() }

func (m *Metadata) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var tmp map[string]string
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*m = New(tmp)
	return nil
}
