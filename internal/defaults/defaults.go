// Package defaults supplies baseline metrics for projects whose documents do
// not state them, plus jurisdiction risk and synthetic ESG grades.
package defaults

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/sells-group/mining-intel/internal/model"
)

// Jitter bounds applied to every defaulted value.
const (
	JitterMin = 0.8
	JitterMax = 1.2
)

// FallbackCommodity is used for commodities without their own baseline.
const FallbackCommodity = model.CommodityCopper

// baselines hold production-scale reference values per commodity before
// stage scaling. AISC is in USD per unit of payable output.
var baselines = map[model.Commodity]model.Metrics{
	model.CommodityLithium:    {NPVUSDM: 1200, IRRPct: 24, CapexUSDM: 650, AISCUSD: 5500, AnnualProduction: 40000, MineLifeYears: 22, PaybackYears: 3.5},
	model.CommodityCopper:     {NPVUSDM: 1500, IRRPct: 20, CapexUSDM: 1100, AISCUSD: 2.1, AnnualProduction: 120000, MineLifeYears: 25, PaybackYears: 4.5},
	model.CommodityGold:       {NPVUSDM: 800, IRRPct: 28, CapexUSDM: 450, AISCUSD: 1150, AnnualProduction: 200000, MineLifeYears: 14, PaybackYears: 3},
	model.CommoditySilver:     {NPVUSDM: 350, IRRPct: 26, CapexUSDM: 250, AISCUSD: 15, AnnualProduction: 8000000, MineLifeYears: 12, PaybackYears: 3},
	model.CommodityNickel:     {NPVUSDM: 1000, IRRPct: 18, CapexUSDM: 900, AISCUSD: 11000, AnnualProduction: 30000, MineLifeYears: 25, PaybackYears: 5},
	model.CommodityUranium:    {NPVUSDM: 900, IRRPct: 30, CapexUSDM: 500, AISCUSD: 32, AnnualProduction: 5000000, MineLifeYears: 15, PaybackYears: 3},
	model.CommodityRareEarths: {NPVUSDM: 700, IRRPct: 22, CapexUSDM: 600, AISCUSD: 12, AnnualProduction: 10000, MineLifeYears: 20, PaybackYears: 4},
}

// tonnageBaselines hold production-scale resource tonnage in million tonnes.
var tonnageBaselines = map[model.Commodity]float64{
	model.CommodityLithium:    60,
	model.CommodityCopper:     800,
	model.CommodityGold:       50,
	model.CommoditySilver:     40,
	model.CommodityNickel:     150,
	model.CommodityUranium:    30,
	model.CommodityRareEarths: 45,
}

// stageMultipliers scale monetary and production values:
// exploration < pre-feasibility < feasibility < construction < production.
var stageMultipliers = map[model.Stage]float64{
	model.StageExploration:    0.3,
	model.StagePreFeasibility: 0.55,
	model.StageFeasibility:    0.75,
	model.StageConstruction:   0.9,
	model.StageProduction:     1.0,
}

var jurisdictionRisk = map[string]model.RiskTier{
	"canada":        model.RiskLow,
	"australia":     model.RiskLow,
	"united states": model.RiskLow,
	"usa":           model.RiskLow,
	"us":            model.RiskLow,
	"chile":         model.RiskLow,
	"finland":       model.RiskLow,
	"sweden":        model.RiskLow,
	"norway":        model.RiskLow,
	"ireland":       model.RiskLow,
	"portugal":      model.RiskLow,
	"drc":           model.RiskHigh,
	"congo":         model.RiskHigh,
	"mali":          model.RiskHigh,
	"burkina faso":  model.RiskHigh,
	"niger":         model.RiskHigh,
	"venezuela":     model.RiskHigh,
	"russia":        model.RiskHigh,
	"myanmar":       model.RiskHigh,
	"zimbabwe":      model.RiskHigh,
	"sudan":         model.RiskHigh,
	"afghanistan":   model.RiskHigh,
	"guinea":        model.RiskHigh,
}

// esgWeights bias the synthetic grade toward B.
var esgWeights = []struct {
	grade  string
	weight int
}{
	{"A", 15},
	{"B", 45},
	{"C", 30},
	{"D", 10},
}

// Provider hands out jittered defaults. It is safe for concurrent use.
type Provider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewProvider creates a Provider drawing from rng. A nil rng is seeded from
// the clock.
func NewProvider(rng *rand.Rand) *Provider {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Provider{rng: rng}
}

// Baseline returns the unjittered, unscaled baseline for a commodity and
// whether the commodity has its own entry.
func Baseline(c model.Commodity) (model.Metrics, bool) {
	b, ok := baselines[c]
	if !ok {
		return baselines[FallbackCommodity], false
	}
	return b, true
}

// StageMultiplier returns the scale applied to monetary and production
// values for a stage.
func StageMultiplier(s model.Stage) float64 {
	if m, ok := stageMultipliers[s]; ok {
		return m
	}
	return stageMultipliers[model.StageExploration]
}

// Defaults returns a complete metric bundle for the commodity and stage.
// NPV, capex and annual production scale with stage; ratios and durations
// are jittered only.
func (p *Provider) Defaults(c model.Commodity, s model.Stage) model.Metrics {
	b, _ := Baseline(c)
	mul := StageMultiplier(s)

	p.mu.Lock()
	defer p.mu.Unlock()
	return model.Metrics{
		NPVUSDM:           b.NPVUSDM * mul * p.jitter(),
		IRRPct:            b.IRRPct * p.jitter(),
		CapexUSDM:         b.CapexUSDM * mul * p.jitter(),
		AISCUSD:           b.AISCUSD * p.jitter(),
		AnnualProduction:  b.AnnualProduction * mul * p.jitter(),
		MineLifeYears:     b.MineLifeYears * p.jitter(),
		PaybackYears:      b.PaybackYears * p.jitter(),
		ResourceTonnageMt: p.tonnage(c, s),
	}
}

// ResourceTonnage returns a jittered resource estimate in million tonnes.
func (p *Provider) ResourceTonnage(c model.Commodity, s model.Stage) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tonnage(c, s)
}

func (p *Provider) tonnage(c model.Commodity, s model.Stage) float64 {
	t, ok := tonnageBaselines[c]
	if !ok {
		t = tonnageBaselines[FallbackCommodity]
	}
	return t * StageMultiplier(s) * p.jitter()
}

// jitter returns a multiplier uniformly distributed in [JitterMin, JitterMax).
// Callers hold p.mu.
func (p *Provider) jitter() float64 {
	return JitterMin + p.rng.Float64()*(JitterMax-JitterMin)
}

// JurisdictionRisk rates a country. Unknown or empty countries are Medium.
func (p *Provider) JurisdictionRisk(country string) model.RiskTier {
	key := strings.TrimSpace(cases.Fold().String(country))
	key = strings.TrimPrefix(key, "the ")
	key = strings.TrimSuffix(key, ".")
	if tier, ok := jurisdictionRisk[key]; ok {
		return tier
	}
	return model.RiskMedium
}

// ESGScore draws a synthetic grade weighted toward B.
func (p *Provider) ESGScore() string {
	total := 0
	for _, w := range esgWeights {
		total += w.weight
	}

	p.mu.Lock()
	n := p.rng.IntN(total)
	p.mu.Unlock()

	for _, w := range esgWeights {
		if n < w.weight {
			return w.grade
		}
		n -= w.weight
	}
	return "B"
}
