package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/mining-intel/internal/defaults"
	"github.com/sells-group/mining-intel/internal/model"
)

// Provenance describes where a project record came from.
type Provenance struct {
	SourceURL  string
	ReportType string
	DataSource string
}

// Enricher normalizes raw candidates and fills missing metrics from the
// defaults provider.
type Enricher struct {
	defaults *defaults.Provider
}

// NewEnricher creates an Enricher.
func NewEnricher(p *defaults.Provider) *Enricher {
	return &Enricher{defaults: p}
}

// Enrich returns a fully populated project. The caller has already checked
// raw.Valid().
func (e *Enricher) Enrich(raw model.RawExtractedProject, prov Provenance) model.EnrichedProject {
	commodity := model.ParseCommodity(raw.Commodity)
	stage := model.ParseStage(raw.Stage)
	metrics, defaulted := e.fillMetrics(raw.Metrics, commodity, stage)
	country := countryOf(raw.Location)
	if country != "" {
		// Casers are stateful, so one per call.
		country = cases.Title(language.English, cases.NoLower).String(country)
	}

	return model.EnrichedProject{
		Name:             strings.TrimSpace(raw.Name),
		Company:          strings.TrimSpace(raw.Company),
		Description:      strings.TrimSpace(raw.Description),
		Location:         strings.TrimSpace(raw.Location),
		Country:          country,
		Commodity:        commodity,
		Stage:            stage,
		Metrics:          metrics,
		DefaultedFields:  defaulted,
		SourceURL:        prov.SourceURL,
		ReportType:       prov.ReportType,
		DataSource:       prov.DataSource,
		JurisdictionRisk: e.defaults.JurisdictionRisk(country),
		ESGScore:         e.defaults.ESGScore(),
	}
}

// fillMetrics keeps every stated value and defaults the rest, returning the
// JSON names of the defaulted fields.
func (e *Enricher) fillMetrics(raw model.RawMetrics, c model.Commodity, s model.Stage) (model.Metrics, []string) {
	d := e.defaults.Defaults(c, s)
	var defaulted []string
	take := func(name string, v *float64, fallback float64) float64 {
		if v != nil {
			return *v
		}
		defaulted = append(defaulted, name)
		return fallback
	}

	m := model.Metrics{
		NPVUSDM:           take("npv_usd_m", raw.NPVUSDM, d.NPVUSDM),
		IRRPct:            take("irr_pct", raw.IRRPct, d.IRRPct),
		CapexUSDM:         take("capex_usd_m", raw.CapexUSDM, d.CapexUSDM),
		AISCUSD:           take("aisc_usd", raw.AISCUSD, d.AISCUSD),
		AnnualProduction:  take("annual_production", raw.AnnualProduction, d.AnnualProduction),
		MineLifeYears:     take("mine_life_years", raw.MineLifeYears, d.MineLifeYears),
		PaybackYears:      take("payback_years", raw.PaybackYears, d.PaybackYears),
		ResourceTonnageMt: take("resource_tonnage_mt", raw.ResourceTonnageMt, d.ResourceTonnageMt),
	}
	return m, defaulted
}

// countryOf takes the last comma-separated part of a location.
func countryOf(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if i := strings.LastIndex(location, ","); i >= 0 {
		location = location[i+1:]
	}
	return strings.TrimSpace(location)
}
