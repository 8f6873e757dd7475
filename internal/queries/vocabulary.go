package queries

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Vocabulary holds the word lists the diversifier combines into queries.
type Vocabulary struct {
	Commodities   []string `yaml:"commodities"`
	DocumentTypes []string `yaml:"document_types"`
	Stages        []string `yaml:"stages"`
	Regions       []string `yaml:"regions"`
	Companies     []string `yaml:"companies"`
}

// DefaultVocabulary returns the built-in word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Commodities: []string{
			"lithium", "copper", "gold", "silver", "nickel", "uranium", "rare earth",
		},
		DocumentTypes: []string{
			"NI 43-101 technical report",
			"JORC resource estimate",
			"preliminary economic assessment",
			"feasibility study NPV IRR",
			"S-K 1300 technical report summary",
		},
		Stages: []string{
			"exploration", "pre-feasibility", "feasibility", "construction decision", "commercial production",
		},
		Regions: []string{
			"Nevada", "Quebec", "Western Australia", "Chile", "Peru", "Ontario", "British Columbia", "Finland",
		},
		Companies: []string{
			"Rio Tinto", "BHP", "Newmont", "Barrick Gold", "Freeport-McMoRan", "Albemarle", "Glencore", "Teck Resources",
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Lists the file leaves empty
// keep their built-in values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, eris.Wrapf(err, "queries: read vocabulary %s", path)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, eris.Wrap(err, "queries: parse vocabulary")
	}
	return v.withDefaults(), nil
}

func (v Vocabulary) withDefaults() Vocabulary {
	d := DefaultVocabulary()
	if len(v.Commodities) == 0 {
		v.Commodities = d.Commodities
	}
	if len(v.DocumentTypes) == 0 {
		v.DocumentTypes = d.DocumentTypes
	}
	if len(v.Stages) == 0 {
		v.Stages = d.Stages
	}
	if len(v.Regions) == 0 {
		v.Regions = d.Regions
	}
	if len(v.Companies) == 0 {
		v.Companies = d.Companies
	}
	return v
}
