// Package config reads, overrides, describes and watches the smoothing configuration.
package config

import (
	"strings"

	"github.com/pkg/errors"
)

// AttributeMap is a convenience wrapper for pulling data out of JSON.
type AttributeMap map[string]interface{}

// Has returns whether or not the given name is in the map. Dotted names look into nested maps.
func (am AttributeMap) Has(name string) bool {
	head, rest, nested := strings.Cut(name, ".")
	value, ok := am[head]
	if !ok || !nested {
		return ok
	}
	sub, ok := asAttributeMap(value)
	return ok && sub.Has(rest)
}

// Set stores value under name. Dotted names ("weights.time") create nested maps as needed.
func (am AttributeMap) Set(name string, value interface{}) {
	head, rest, nested := strings.Cut(name, ".")
	if !nested {
		am[head] = value
		return
	}
	sub, ok := asAttributeMap(am[head])
	if !ok {
		sub = AttributeMap{}
	}
	sub.Set(rest, value)
	am[head] = sub
}

// Merge copies every entry of other into the map, merging nested maps.
func (am AttributeMap) Merge(other AttributeMap) {
	for key, value := range other {
		if sub, ok := asAttributeMap(value); ok {
			if existing, ok := asAttributeMap(am[key]); ok {
				existing.Merge(sub)
				am[key] = existing
				continue
			}
		}
		am[key] = value
	}
}

func asAttributeMap(v interface{}) (AttributeMap, bool) {
	switch m := v.(type) {
	case AttributeMap:
		return m, true
	case map[string]interface{}:
		return AttributeMap(m), true
	default:
		return nil, false
	}
}

// ParseOverrides turns "key=value" pairs, as given on the command line, into an AttributeMap.
// Values stay strings; decoding converts them to the field types.
func ParseOverrides(pairs []string) (AttributeMap, error) {
	attrs := AttributeMap{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("override %q must have the form key=value", pair)
		}
		attrs.Set(key, strings.TrimSpace(value))
	}
	return attrs, nil
}
