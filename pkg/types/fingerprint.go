package types

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Fingerprint computes a murmur3 hash over a canonical encoding of the
// schema. It is a cheap pre-filter for schema-version bookkeeping
// (internal/metadata): equal fingerprints are necessary but not
// sufficient for schema equality, so callers must still fall back to a
// structural comparison before trusting a match.
func (s Schema) Fingerprint() uint64 {
	names := make([]string, 0, len(s.classes))
	byName := make(map[string]ObjectSchema, len(s.classes))
	for _, c := range s.classes {
		names = append(names, c.Name)
		byName[c.Name] = c
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		c := byName[name]
		b.WriteString("class:")
		b.WriteString(c.Name)
		b.WriteByte(':')
		b.WriteString(c.TableType.String())
		b.WriteByte(':')
		b.WriteString(c.PrimaryKey)
		b.WriteByte('\n')

		props := append([]Property(nil), c.PersistedProperties...)
		sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
		for _, p := range props {
			b.WriteString("prop:")
			b.WriteString(p.Name)
			b.WriteByte(':')
			b.WriteString(p.TypeString())
			b.WriteByte(':')
			b.WriteString(strconv.FormatBool(p.IsPrimary))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(p.Index)))
			b.WriteByte('\n')
		}
	}

	return murmur3.Sum64([]byte(b.String()))
}

// StructurallyEqual reports whether two schemas have the same classes,
// properties, and primary keys, ignoring property/table key bindings
// (which only exist once a schema is materialized against a Group).
func StructurallyEqual(a, b Schema) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, ca := range a.classes {
		cb := b.Find(ca.Name)
		if cb == nil || !objectSchemasEqual(ca, *cb) {
			return false
		}
	}
	return true
}

func objectSchemasEqual(a, b ObjectSchema) bool {
	if a.TableType != b.TableType || a.PrimaryKey != b.PrimaryKey {
		return false
	}
	if len(a.PersistedProperties) != len(b.PersistedProperties) {
		return false
	}
	for _, pa := range a.PersistedProperties {
		pb := b.PropertyForName(pa.Name)
		if pb == nil || !propertiesEqual(pa, *pb) {
			return false
		}
	}
	return true
}

func propertiesEqual(a, b Property) bool {
	return a.Type == b.Type && a.IsPrimary == b.IsPrimary && a.Index == b.Index && a.ObjectType == b.ObjectType
}
