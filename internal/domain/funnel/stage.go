package funnel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StageName identifies one of the nine fixed pipeline stages
type StageName string

const (
	StageEmContato             StageName = "em_contato"
	StageReunioes              StageName = "reunioes"
	StageFollowUp              StageName = "follow_up"
	StagePropostas             StageName = "propostas"
	StageNegociacoes           StageName = "negociacoes"
	StageContratos             StageName = "contratos"
	StageContratosAssinados    StageName = "contratos_assinados"
	StageOportunidadesPerdidas StageName = "oportunidades_perdidas"
	StageOportunidadesVencidas StageName = "oportunidades_vencidas"
)

// AllStages is the canonical stage order
var AllStages = []StageName{
	StageEmContato,
	StageReunioes,
	StageFollowUp,
	StagePropostas,
	StageNegociacoes,
	StageContratos,
	StageContratosAssinados,
	StageOportunidadesPerdidas,
	StageOportunidadesVencidas,
}

// EntryStage is the stage conversion is measured against
const EntryStage = StageEmContato

// ClosedWonStages are the stages counted as closed revenue
var ClosedWonStages = []StageName{
	StageContratos,
	StageContratosAssinados,
}

// FinancialStages are the rows of the financial summary, in display order
var FinancialStages = []StageName{
	StageNegociacoes,
	StageContratos,
	StageContratosAssinados,
	StageOportunidadesVencidas,
	StageOportunidadesPerdidas,
}

// IsValid returns true if the stage name is part of the enumeration
func (s StageName) IsValid() bool {
	return s.Index() >= 0
}

// Index returns the canonical position of the stage, or -1 if unknown
func (s StageName) Index() int {
	switch s {
	case StageEmContato:
		return 0
	case StageReunioes:
		return 1
	case StageFollowUp:
		return 2
	case StagePropostas:
		return 3
	case StageNegociacoes:
		return 4
	case StageContratos:
		return 5
	case StageContratosAssinados:
		return 6
	case StageOportunidadesPerdidas:
		return 7
	case StageOportunidadesVencidas:
		return 8
	default:
		return -1
	}
}

// Label returns the pt-BR display label of the stage
func (s StageName) Label() string {
	switch s {
	case StageEmContato:
		return "Em Contato"
	case StageReunioes:
		return "Reuniões"
	case StageFollowUp:
		return "Follow-Up"
	case StagePropostas:
		return "Propostas"
	case StageNegociacoes:
		return "Negociações"
	case StageContratos:
		return "Contratos"
	case StageContratosAssinados:
		return "Contratos Assinados"
	case StageOportunidadesPerdidas:
		return "Oportunidades Perdidas"
	case StageOportunidadesVencidas:
		return "Oportunidades Vencidas"
	default:
		return string(s)
	}
}

// IsClosedWon returns true for stages that count as closed revenue
func (s StageName) IsClosedWon() bool {
	return s == StageContratos || s == StageContratosAssinados
}

// String returns the string representation of the stage name
func (s StageName) String() string {
	return string(s)
}

// StageRecord is the lead count and value of one stage of a funnel,
// optionally partitioned by source. ID is a uuid string for stored records
// and a synthetic key for computed totals.
type StageRecord struct {
	ID         string          `json:"id"`
	FunnelID   uuid.UUID       `json:"funnel_id"`
	StageName  StageName       `json:"stage_name"`
	LeadCount  int64           `json:"lead_count"`
	TotalValue decimal.Decimal `json:"total_value"`
	Source     *string         `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Validate checks the stage record invariants
func (r StageRecord) Validate() error {
	if !r.StageName.IsValid() {
		return ErrInvalidStage
	}
	if r.LeadCount < 0 {
		return ErrNegativeLeadCount
	}
	if r.TotalValue.IsNegative() {
		return ErrNegativeValue
	}
	return nil
}

// SourceKey returns the grouping key of the record's source
func (r StageRecord) SourceKey() string {
	if r.Source == nil || *r.Source == "" {
		return DefaultSourceKey
	}
	return *r.Source
}

// TotalStageID returns the synthetic identity of a computed total record
func TotalStageID(stage StageName) string {
	return "total_" + string(stage)
}
