package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommodity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Commodity
	}{
		{"Lithium", CommodityLithium},
		{"spodumene concentrate", CommodityLithium},
		{"Li", CommodityLithium},
		{"Copper-Gold porphyry", CommodityCopper},
		{"Gold-Copper", CommodityGold},
		{"Silver-Gold", CommoditySilver},
		{"nickel, copper and cobalt", CommodityNickel},
		{"Uranium-Vanadium", CommodityUranium},
		{"gold with rare earth credits", CommodityGold},
		{"Cu", CommodityCopper},
		{"Rare Earth Elements", CommodityRareEarths},
		{"REE", CommodityRareEarths},
		{"U3O8", CommodityUranium},
		{"iron ore", CommodityIronOre},
		{"potash", CommodityOther},
		{"", CommodityOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCommodity(tt.in))
		})
	}
}

func TestParseStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Stage
	}{
		{"Exploration", StageExploration},
		{"pre-feasibility", StagePreFeasibility},
		{"Prefeasibility Study", StagePreFeasibility},
		{"PFS", StagePreFeasibility},
		{"PEA", StagePreFeasibility},
		{"Feasibility", StageFeasibility},
		{"DFS", StageFeasibility},
		{"under construction", StageConstruction},
		{"Production", StageProduction},
		{"operating", StageProduction},
		{"Pre-Production", StageConstruction},
		{"pre-development", StageConstruction},
		{"preproduction ramp-up", StageConstruction},
		{"", StageExploration},
		{"unknown", StageExploration},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseStage(tt.in))
		})
	}
}

func TestDedupKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "thacker pass-lithium americas", DedupKey(" Thacker Pass ", "Lithium Americas"))
	assert.Equal(t,
		RawExtractedProject{Name: "Arcadia", Company: "Zhejiang Huayou"}.DedupKey(),
		EnrichedProject{Name: "ARCADIA", Company: "zhejiang huayou"}.DedupKey())
}

func TestRawExtractedProject_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, RawExtractedProject{Name: "A", Company: "B"}.Valid())
	assert.False(t, RawExtractedProject{Name: "A"}.Valid())
	assert.False(t, RawExtractedProject{Name: "  ", Company: "B"}.Valid())
}
