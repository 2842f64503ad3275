// Package stats presents port statistics of a whole session as tables.
package stats

import (
	"context"
	"sort"

	"github.com/xena-tools/xenamanager-go/pkg/service"
)

// PortStats holds the counters of one port: group → stat → value.
type PortStats map[string]map[string]int64

// Statistics holds the counters of many ports keyed by port name.
type Statistics map[string]PortStats

// FlatStats holds one row per port with "<group>_<stat>" columns.
type FlatStats map[string]map[string]int64

// PortsView reads the statistics of every port in a session.
type PortsView struct {
	session    *service.Session
	statistics Statistics
}

// NewPortsView creates a view over the session ports.
func NewPortsView(session *service.Session) *PortsView {
	return &PortsView{session: session}
}

// Read queries every statistics group of every session port and keeps the
// result as the current statistics.
func (v *PortsView) Read(ctx context.Context) (Statistics, error) {
	ports := v.session.Ports()
	result := make(Statistics, len(ports))
	for _, name := range sortedKeys(ports) {
		all, err := ports[name].ReadAllPortStats(ctx)
		if err != nil {
			return nil, err
		}
		result[name] = all
	}
	v.statistics = result
	return result, nil
}

// Statistics returns the result of the last Read.
func (v *PortsView) Statistics() Statistics {
	return v.statistics
}

// Flat returns the result of the last Read flattened.
func (v *PortsView) Flat() FlatStats {
	return Flatten(v.statistics)
}

// Flatten joins group and stat names: {"pt_total": {"packets": 5}} becomes
// {"pt_total_packets": 5}.
func Flatten(s Statistics) FlatStats {
	flat := make(FlatStats, len(s))
	for name, groups := range s {
		row := make(map[string]int64)
		for group, values := range groups {
			for stat, value := range values {
				row[group+"_"+stat] = value
			}
		}
		flat[name] = row
	}
	return flat
}

// Rows returns the row names of a flat table in sorted order.
func (f FlatStats) Rows() []string {
	return sortedKeys(f)
}

// Columns returns the union of column names in sorted order.
func (f FlatStats) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range f {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
