package funnel

// DefaultSourceKey is the group key for records without a source tag
const DefaultSourceKey = "default"

// SourceColumn is one column of the funnel detail view. Aliases are older
// source tags for the same column, tried in order when Key has no records.
type SourceColumn struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Aliases []string `json:"aliases,omitempty"`
}

func (c SourceColumn) keys() []string {
	return append([]string{c.Key}, c.Aliases...)
}

var sourceLayouts = map[FunnelType][]SourceColumn{
	FunnelTypeEventos: {
		{Key: "lec_25", Label: "LEC 25", Aliases: []string{"evento_a"}},
		{Key: "expo_25", Label: "Expo 25", Aliases: []string{"evento_b"}},
	},
	FunnelTypeAds: {
		{Key: "meta", Label: "Meta"},
		{Key: "google", Label: "Google"},
	},
	FunnelTypeOutbound: {
		{Key: "cold_email", Label: "Cold Email"},
		{Key: "cold_call", Label: "Cold Call"},
		{Key: "linkedin", Label: "LinkedIn"},
	},
	FunnelTypeParceiros: {
		{Key: DefaultSourceKey, Label: "Parceiros"},
	},
	FunnelTypeIndicados: {
		{Key: DefaultSourceKey, Label: "Indicados"},
	},
}

// SourceLayout returns the known source columns of a funnel category in
// presentation order. Unknown categories get a single default column.
func SourceLayout(t FunnelType) []SourceColumn {
	layout, ok := sourceLayouts[t]
	if !ok {
		return []SourceColumn{{Key: DefaultSourceKey, Label: t.Label()}}
	}
	out := make([]SourceColumn, len(layout))
	for i, col := range layout {
		out[i] = col
		out[i].Aliases = append([]string(nil), col.Aliases...)
	}
	return out
}

// SourceGroup is the stage sequence of one source column with its financial
// table
type SourceGroup struct {
	Column    SourceColumn   `json:"column"`
	Known     bool           `json:"known"`
	Stages    []StageRecord  `json:"stages"`
	Financial FinancialTable `json:"financial"`
}

// ArrangeGroups lays grouped records out for a funnel category: the known
// columns first in layout order (empty when no record matched), then every
// unrecognised source key in the order it was first seen in records.
// A known column takes the records of its first key or alias that has any.
// Other keys, including aliases shadowed by an earlier key, become extra
// columns and are returned as unknown, so nothing is dropped.
func ArrangeGroups(t FunnelType, records []StageRecord) (groups []SourceGroup, unknown []string) {
	grouped := GroupBySource(records)
	layout := SourceLayout(t)

	claimed := make(map[string]bool, len(layout))
	for _, col := range layout {
		var stages []StageRecord
		for _, key := range col.keys() {
			if len(grouped[key]) > 0 {
				stages = grouped[key]
				claimed[key] = true
				break
			}
		}
		groups = append(groups, newSourceGroup(col, true, stages))
	}

	seen := make(map[string]bool)
	for _, r := range records {
		key := r.SourceKey()
		if claimed[key] || seen[key] {
			continue
		}
		seen[key] = true
		unknown = append(unknown, key)
		groups = append(groups, newSourceGroup(SourceColumn{Key: key, Label: key}, false, grouped[key]))
	}
	return groups, unknown
}

func newSourceGroup(col SourceColumn, known bool, records []StageRecord) SourceGroup {
	stages := OrderStages(records)
	return SourceGroup{
		Column:    col,
		Known:     known,
		Stages:    stages,
		Financial: FinancialSummary(stages),
	}
}
