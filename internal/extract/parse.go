package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/model"
)

// ErrUnparseable is returned when the model's output holds no JSON project
// data. Callers treat it as zero candidates.
var ErrUnparseable = eris.New("extract: unparseable model output")

// number accepts JSON numbers, numeric strings ("1,200", "$450", "22%") and
// null. Anything else decodes as absent.
type number struct {
	v *float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.v = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n.v = &f
	}
	return nil
}

type wireMetrics struct {
	NPVUSDM           number `json:"npv_usd_m"`
	IRRPct            number `json:"irr_pct"`
	CapexUSDM         number `json:"capex_usd_m"`
	AISCUSD           number `json:"aisc_usd"`
	AnnualProduction  number `json:"annual_production"`
	MineLifeYears     number `json:"mine_life_years"`
	PaybackYears      number `json:"payback_years"`
	ResourceTonnageMt number `json:"resource_tonnage_mt"`
}

// wireProject accepts metrics either nested under "metrics" or flat at the
// top level. Nested values win.
type wireProject struct {
	Name        string      `json:"project_name"`
	Company     string      `json:"company_name"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Commodity   string      `json:"commodity"`
	Stage       string      `json:"stage"`
	Metrics     wireMetrics `json:"metrics"`
	wireMetrics
}

func (w wireProject) toRaw() model.RawExtractedProject {
	pick := func(nested, flat number) *float64 {
		if nested.v != nil {
			return nested.v
		}
		return flat.v
	}
	n, f := w.Metrics, w.wireMetrics
	return model.RawExtractedProject{
		Name:        strings.TrimSpace(w.Name),
		Company:     strings.TrimSpace(w.Company),
		Description: strings.TrimSpace(w.Description),
		Location:    strings.TrimSpace(w.Location),
		Commodity:   strings.TrimSpace(w.Commodity),
		Stage:       strings.TrimSpace(w.Stage),
		Metrics: model.RawMetrics{
			NPVUSDM:           pick(n.NPVUSDM, f.NPVUSDM),
			IRRPct:            pick(n.IRRPct, f.IRRPct),
			CapexUSDM:         pick(n.CapexUSDM, f.CapexUSDM),
			AISCUSD:           pick(n.AISCUSD, f.AISCUSD),
			AnnualProduction:  pick(n.AnnualProduction, f.AnnualProduction),
			MineLifeYears:     pick(n.MineLifeYears, f.MineLifeYears),
			PaybackYears:      pick(n.PaybackYears, f.PaybackYears),
			ResourceTonnageMt: pick(n.ResourceTonnageMt, f.ResourceTonnageMt),
		},
	}
}

// ParseProjects decodes model output into raw projects. It accepts a JSON
// array, a single project object or an object with a "projects" array,
// optionally wrapped in code fences or prose. An empty array is a valid
// answer and yields no projects.
func ParseProjects(text string) ([]model.RawExtractedProject, error) {
	body := cleanJSON(text)
	if body == "" {
		return nil, ErrUnparseable
	}

	var wires []wireProject
	switch body[0] {
	case '[':
		if err := json.Unmarshal([]byte(body), &wires); err != nil {
			return nil, eris.Wrap(ErrUnparseable, err.Error())
		}
	case '{':
		var envelope struct {
			Projects *[]wireProject `json:"projects"`
		}
		if err := json.Unmarshal([]byte(body), &envelope); err != nil {
			return nil, eris.Wrap(ErrUnparseable, err.Error())
		}
		if envelope.Projects != nil {
			wires = *envelope.Projects
			break
		}
		var single wireProject
		if err := json.Unmarshal([]byte(body), &single); err != nil {
			return nil, eris.Wrap(ErrUnparseable, err.Error())
		}
		wires = []wireProject{single}
	default:
		return nil, ErrUnparseable
	}

	out := make([]model.RawExtractedProject, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toRaw())
	}
	return out, nil
}

// cleanJSON strips code fences and surrounding prose, returning the outermost
// JSON array or object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start, closer := objStart, "}"
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
