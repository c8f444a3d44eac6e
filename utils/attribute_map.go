// Package utils contains small helpers shared by the configuration and code generation packages.
package utils

import (
	"sort"

	"github.com/samber/lo"
)

// AttributeMap is a convenience wrapper for pulling out
// typed information from a raw configuration entry.
type AttributeMap map[string]interface{}

// Has returns whether or not the given name is in the map.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Keys returns the keys of the map in sorted order.
func (am AttributeMap) Keys() []string {
	keys := lo.Keys(am)
	sort.Strings(keys)
	return keys
}

// Without returns a copy of the map without the given keys.
func (am AttributeMap) Without(names ...string) AttributeMap {
	return lo.OmitByKeys(am, names)
}
