package model

import (
	"strings"
)

// Commodity is the closed vocabulary of primary commodities a project can be
// tagged with.
type Commodity string

const (
	CommodityLithium    Commodity = "lithium"
	CommodityCopper     Commodity = "copper"
	CommodityGold       Commodity = "gold"
	CommoditySilver     Commodity = "silver"
	CommodityNickel     Commodity = "nickel"
	CommodityUranium    Commodity = "uranium"
	CommodityRareEarths Commodity = "rare-earths"
	CommodityZinc       Commodity = "zinc"
	CommodityCobalt     Commodity = "cobalt"
	CommodityGraphite   Commodity = "graphite"
	CommodityIronOre    Commodity = "iron-ore"
	CommodityOther      Commodity = "other"
)

// Commodities lists every known commodity except CommodityOther, in the order
// used when matching free text.
var Commodities = []Commodity{
	CommodityLithium,
	CommodityCopper,
	CommodityGold,
	CommoditySilver,
	CommodityNickel,
	CommodityUranium,
	CommodityRareEarths,
	CommodityZinc,
	CommodityCobalt,
	CommodityGraphite,
	CommodityIronOre,
}

// commodityAliases maps lowercase substrings found in extracted text to a
// commodity.
var commodityAliases = []struct {
	alias     string
	commodity Commodity
}{
	{"rare earth", CommodityRareEarths},
	{"rare-earth", CommodityRareEarths},
	{"iron ore", CommodityIronOre},
	{"magnetite", CommodityIronOre},
	{"hematite", CommodityIronOre},
	{"spodumene", CommodityLithium},
	{"lithium", CommodityLithium},
	{"copper", CommodityCopper},
	{"gold", CommodityGold},
	{"silver", CommoditySilver},
	{"nickel", CommodityNickel},
	{"uranium", CommodityUranium},
	{"u3o8", CommodityUranium},
	{"zinc", CommodityZinc},
	{"cobalt", CommodityCobalt},
	{"graphite", CommodityGraphite},
}

// commoditySymbols matches element symbols and abbreviations exactly.
var commoditySymbols = map[string]Commodity{
	"li":  CommodityLithium,
	"cu":  CommodityCopper,
	"au":  CommodityGold,
	"ag":  CommoditySilver,
	"ni":  CommodityNickel,
	"u":   CommodityUranium,
	"ree": CommodityRareEarths,
	"zn":  CommodityZinc,
	"co":  CommodityCobalt,
	"fe":  CommodityIronOre,
}

// ParseCommodity maps free text ("Copper-Gold porphyry", "Li") onto the
// closed vocabulary. Hybrid deposits resolve to the commodity named first;
// unrecognized text maps to CommodityOther.
func ParseCommodity(s string) Commodity {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return CommodityOther
	}
	if c, ok := commoditySymbols[lower]; ok {
		return c
	}
	best, bestPos, bestLen := CommodityOther, -1, 0
	for _, a := range commodityAliases {
		pos := strings.Index(lower, a.alias)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(a.alias) > bestLen) {
			best, bestPos, bestLen = a.commodity, pos, len(a.alias)
		}
	}
	return best
}

// Stage is the closed vocabulary of project development stages, ordered from
// earliest to latest.
type Stage string

const (
	StageExploration    Stage = "Exploration"
	StagePreFeasibility Stage = "Pre-Feasibility"
	StageFeasibility    Stage = "Feasibility"
	StageConstruction   Stage = "Construction"
	StageProduction     Stage = "Production"
)

// Stages lists all stages in development order.
var Stages = []Stage{
	StageExploration,
	StagePreFeasibility,
	StageFeasibility,
	StageConstruction,
	StageProduction,
}

// ParseStage maps free text onto the closed stage vocabulary. Anything that
// cannot be placed is treated as exploration.
func ParseStage(s string) Stage {
	lower := strings.ToLower(strings.TrimSpace(s))
	lower = strings.NewReplacer("-", "", "_", "", " ", "").Replace(lower)
	switch {
	case lower == "":
		return StageExploration
	case strings.Contains(lower, "prefeas"), lower == "pfs", strings.Contains(lower, "scoping"), lower == "pea":
		return StagePreFeasibility
	case strings.Contains(lower, "feasib"), lower == "dfs", lower == "bfs", lower == "fs":
		return StageFeasibility
	case strings.Contains(lower, "construct"), strings.Contains(lower, "development"), strings.Contains(lower, "commission"),
		strings.Contains(lower, "preproduc"):
		return StageConstruction
	case strings.Contains(lower, "produc"), strings.Contains(lower, "operat"):
		return StageProduction
	default:
		return StageExploration
	}
}

// RawMetrics holds numeric values as extracted from free text. A nil field
// means the document did not state it.
type RawMetrics struct {
	NPVUSDM           *float64 `json:"npv_usd_m,omitempty"`
	IRRPct            *float64 `json:"irr_pct,omitempty"`
	CapexUSDM         *float64 `json:"capex_usd_m,omitempty"`
	AISCUSD           *float64 `json:"aisc_usd,omitempty"`
	AnnualProduction  *float64 `json:"annual_production,omitempty"`
	MineLifeYears     *float64 `json:"mine_life_years,omitempty"`
	PaybackYears      *float64 `json:"payback_years,omitempty"`
	ResourceTonnageMt *float64 `json:"resource_tonnage_mt,omitempty"`
}

// RawExtractedProject is the language model's unvalidated guess at a project.
type RawExtractedProject struct {
	Name        string     `json:"project_name"`
	Company     string     `json:"company_name"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Commodity   string     `json:"commodity,omitempty"`
	Stage       string     `json:"stage,omitempty"`
	Metrics     RawMetrics `json:"metrics"`
}

// Valid reports whether the candidate names both a project and a company.
func (p RawExtractedProject) Valid() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Company) != ""
}

// DedupKey identifies the project within one extraction run.
func (p RawExtractedProject) DedupKey() string {
	return DedupKey(p.Name, p.Company)
}

// DedupKey builds the lowercase "name-company" key used to drop duplicate
// extraction results.
func DedupKey(name, company string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "-" + strings.ToLower(strings.TrimSpace(company))
}

// Metrics holds a complete metric bundle; every field is populated either
// from extraction or from defaults.
type Metrics struct {
	NPVUSDM           float64 `json:"npv_usd_m"`
	IRRPct            float64 `json:"irr_pct"`
	CapexUSDM         float64 `json:"capex_usd_m"`
	AISCUSD           float64 `json:"aisc_usd"`
	AnnualProduction  float64 `json:"annual_production"`
	MineLifeYears     float64 `json:"mine_life_years"`
	PaybackYears      float64 `json:"payback_years"`
	ResourceTonnageMt float64 `json:"resource_tonnage_mt"`
}

// RiskTier is a coarse jurisdiction risk rating.
type RiskTier string

const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// EnrichedProject is a normalized, fully populated project ready to persist.
type EnrichedProject struct {
	Name             string    `json:"project_name"`
	Company          string    `json:"company_name"`
	Description      string    `json:"description"`
	Location         string    `json:"location"`
	Country          string    `json:"country"`
	Commodity        Commodity `json:"commodity"`
	Stage            Stage     `json:"stage"`
	Metrics          Metrics   `json:"metrics"`
	DefaultedFields  []string  `json:"defaulted_fields,omitempty"`
	SourceURL        string    `json:"source_url"`
	ReportType       string    `json:"report_type"`
	DataSource       string    `json:"data_source"`
	JurisdictionRisk RiskTier  `json:"jurisdiction_risk"`
	ESGScore         string    `json:"esg_score"`
}

// DedupKey identifies the project within one extraction run.
func (p EnrichedProject) DedupKey() string {
	return DedupKey(p.Name, p.Company)
}

// StoredProject is a project as read back from the project store.
type StoredProject struct {
	ID string `json:"id"`
	EnrichedProject
}
