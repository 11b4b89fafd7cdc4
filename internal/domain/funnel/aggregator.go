package funnel

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PerformanceMetrics are the top-line figures of a funnel
type PerformanceMetrics struct {
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	ClosedRevenue  decimal.Decimal `json:"closed_revenue"`
	TotalPipeline  decimal.Decimal `json:"total_pipeline"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	ClosedLeads    int64           `json:"closed_leads"`
	EntryLeads     int64           `json:"entry_leads"`
}

// FinancialRow is one line of the financial summary table
type FinancialRow struct {
	StageName    StageName       `json:"stage_name"`
	Label        string          `json:"label"`
	LeadCount    int64           `json:"lead_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	AverageValue decimal.Decimal `json:"average_value"`
}

// FinancialTable is the financial summary with its trailing total row
type FinancialTable struct {
	Rows  []FinancialRow `json:"rows"`
	Total FinancialRow   `json:"total"`
}

// GroupBySource partitions records by source tag. Records without a source
// are grouped under DefaultSourceKey. Input order is kept within a group.
func GroupBySource(records []StageRecord) map[string][]StageRecord {
	groups := make(map[string][]StageRecord)
	for _, r := range records {
		key := r.SourceKey()
		groups[key] = append(groups[key], r)
	}
	return groups
}

// TotalAcrossSources collapses all sources into one synthetic record per
// stage, in canonical order. Every stage is present even when no record
// matched it. The result depends only on the multiset of records.
func TotalAcrossSources(records []StageRecord, now time.Time) []StageRecord {
	leads := make([]int64, len(AllStages))
	values := make([]decimal.Decimal, len(AllStages))
	for i := range values {
		values[i] = decimal.Zero
	}

	for _, r := range records {
		idx := r.StageName.Index()
		if idx < 0 {
			continue
		}
		leads[idx] += r.LeadCount
		values[idx] = values[idx].Add(r.TotalValue)
	}

	totals := make([]StageRecord, len(AllStages))
	for i, stage := range AllStages {
		totals[i] = StageRecord{
			ID:         TotalStageID(stage),
			StageName:  stage,
			LeadCount:  leads[i],
			TotalValue: values[i],
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return totals
}

// ComputePerformanceMetrics derives conversion rate, closed revenue, total
// pipeline and average ticket from the records of one funnel.
//
// The conversion denominator is the first entry-stage record in input order,
// so callers pass records in creation order. The conversion rate is 0 when
// there is no entry-stage record or when it holds no leads. The average
// ticket is 0 without closed leads.
func ComputePerformanceMetrics(records []StageRecord) PerformanceMetrics {
	m := PerformanceMetrics{
		ConversionRate: decimal.Zero,
		ClosedRevenue:  decimal.Zero,
		TotalPipeline:  decimal.Zero,
		AverageTicket:  decimal.Zero,
	}

	hasEntry := false
	for _, r := range records {
		m.TotalPipeline = m.TotalPipeline.Add(r.TotalValue)
		if r.StageName.IsClosedWon() {
			m.ClosedRevenue = m.ClosedRevenue.Add(r.TotalValue)
			m.ClosedLeads += r.LeadCount
		}
		if r.StageName == EntryStage && !hasEntry {
			hasEntry = true
			m.EntryLeads = r.LeadCount
		}
	}

	if hasEntry && m.EntryLeads > 0 {
		m.ConversionRate = decimal.NewFromInt(m.ClosedLeads).
			Mul(hundred).
			Div(decimal.NewFromInt(m.EntryLeads))
	}
	if m.ClosedLeads > 0 {
		m.AverageTicket = m.ClosedRevenue.Div(decimal.NewFromInt(m.ClosedLeads))
	}
	return m
}

// FinancialSummary builds the financial table. Only financial stages present
// in records produce a row; rows follow FinancialStages order and sum all
// sources of a stage.
func FinancialSummary(records []StageRecord) FinancialTable {
	byStage := make(map[StageName]*FinancialRow)
	for _, r := range records {
		if !isFinancial(r.StageName) {
			continue
		}
		row, ok := byStage[r.StageName]
		if !ok {
			row = &FinancialRow{StageName: r.StageName, Label: r.StageName.Label(), TotalValue: decimal.Zero}
			byStage[r.StageName] = row
		}
		row.LeadCount += r.LeadCount
		row.TotalValue = row.TotalValue.Add(r.TotalValue)
	}

	table := FinancialTable{
		Rows:  make([]FinancialRow, 0, len(byStage)),
		Total: FinancialRow{Label: "Total", TotalValue: decimal.Zero},
	}
	for _, stage := range FinancialStages {
		row, ok := byStage[stage]
		if !ok {
			continue
		}
		row.AverageValue = averageValue(row.TotalValue, row.LeadCount)
		table.Rows = append(table.Rows, *row)
		table.Total.LeadCount += row.LeadCount
		table.Total.TotalValue = table.Total.TotalValue.Add(row.TotalValue)
	}
	table.Total.AverageValue = averageValue(table.Total.TotalValue, table.Total.LeadCount)
	return table
}

// OrderStages returns the records sorted by canonical stage order. Records
// of the same stage keep their relative order; unknown stages go last.
func OrderStages(records []StageRecord) []StageRecord {
	out := make([]StageRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return stageRank(out[i].StageName) < stageRank(out[j].StageName)
	})
	return out
}

func stageRank(s StageName) int {
	if idx := s.Index(); idx >= 0 {
		return idx
	}
	return len(AllStages)
}

func isFinancial(stage StageName) bool {
	for _, s := range FinancialStages {
		if s == stage {
			return true
		}
	}
	return false
}

func averageValue(total decimal.Decimal, leads int64) decimal.Decimal {
	if leads <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(leads))
}
