package schema

import (
	"sort"
	"strings"
)

// Tablespace areas known to the renderer. Each is configured through the
// "TABLESPACE_<AREA>" setting.
var Areas = []string{
	"address_data",
	"address_index",
	"search_data",
	"search_index",
	"aux_data",
	"aux_index",
}

const (
	// PartitionTable holds one row per country with its partition id.
	PartitionTable  = "country_name"
	PartitionColumn = "partition"
	// DefaultPartition is always part of the partition list.
	DefaultPartition = "0"
	// SearchTable is absent on reverse-only installations.
	SearchTable = "search_name"
)

// SettingKey returns the configuration key of a tablespace area.
func SettingKey(area string) string {
	return "TABLESPACE_" + strings.ToUpper(area)
}

// Snapshot is an immutable view of the target database taken at one point
// in time.
type Snapshot struct {
	tables      map[string]struct{}
	tableKey    func(string) string
	partitions  []string
	tablespaces map[string]string
}

// NewSnapshot builds a Snapshot from already known facts. Areas missing from
// tablespaces map to the empty clause. A nil tableKey keeps names as-is.
func NewSnapshot(tables, partitions []string, tablespaces map[string]string, tableKey func(string) string) *Snapshot {
	if tableKey == nil {
		tableKey = func(s string) string { return s }
	}
	s := &Snapshot{
		tables:      make(map[string]struct{}, len(tables)),
		tableKey:    tableKey,
		partitions:  append([]string(nil), partitions...),
		tablespaces: make(map[string]string, len(Areas)),
	}
	for _, t := range tables {
		s.tables[tableKey(t)] = struct{}{}
	}
	for _, area := range Areas {
		s.tablespaces[area] = ""
	}
	for area, clause := range tablespaces {
		s.tablespaces[area] = clause
	}
	return s
}

// HasTable reports whether the table existed when the snapshot was taken.
func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.tables[s.tableKey(name)]
	return ok
}

// Tables returns the table keys in sorted order.
func (s *Snapshot) Tables() []string {
	out := make([]string, 0, len(s.tables))
	for t := range s.tables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *Snapshot) Partitions() []string {
	return append([]string(nil), s.partitions...)
}

// Tablespace returns the clause for an area; ok is false for unknown areas.
func (s *Snapshot) Tablespace(area string) (clause string, ok bool) {
	clause, ok = s.tablespaces[area]
	return clause, ok
}

func (s *Snapshot) Tablespaces() map[string]string {
	out := make(map[string]string, len(s.tablespaces))
	for k, v := range s.tablespaces {
		out[k] = v
	}
	return out
}

// ReverseOnly is true when the search tables were dropped.
func (s *Snapshot) ReverseOnly() bool {
	return !s.HasTable(SearchTable)
}
