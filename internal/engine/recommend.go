package engine

import "github.com/couchcryptid/disease-risk-service/internal/domain"

var recommendations = map[domain.DiseaseID][]string{
	domain.Malaria: {
		"Increase mosquito control measures in high-risk areas",
		"Distribute mosquito nets to vulnerable populations",
		"Conduct awareness campaigns about preventive measures",
		"Stock up on anti-malarial medications",
		"Monitor standing water sources",
	},
	domain.Dengue: {
		"Intensify vector control programs",
		"Eliminate mosquito breeding sites",
		"Increase public awareness about dengue symptoms",
		"Ensure adequate hospital bed capacity",
		"Stock diagnostic kits and IV fluids",
	},
	domain.Cholera: {
		"Ensure safe drinking water supply",
		"Improve sanitation infrastructure",
		"Stock oral rehydration salts (ORS)",
		"Conduct hygiene awareness programs",
		"Monitor water quality in flood-prone areas",
	},
	domain.HeatStroke: {
		"Issue heat wave warnings",
		"Set up cooling centers in urban areas",
		"Advise outdoor activity restrictions",
		"Ensure adequate hydration facilities",
		"Monitor vulnerable populations (elderly, children)",
	},
	domain.Respiratory: {
		"Monitor air quality levels",
		"Advise mask usage during poor air quality",
		"Stock respiratory medications",
		"Reduce outdoor activities during pollution peaks",
		"Increase ventilation in indoor spaces",
	},
}

// Advice is the recommendation set for a disease framed by risk severity.
type Advice struct {
	Disease         domain.DiseaseID `json:"disease"`
	Tier            domain.Tier      `json:"tier"`
	Headline        string           `json:"headline"`
	Recommendations []string         `json:"recommendations"`
}

// Recommendations returns the canned actions for disease. The set depends only
// on the disease; risk is accepted for symmetry with Advise. Diseases without
// a recommendation set yield an empty list.
func (e *Engine) Recommendations(disease string, risk float64) ([]string, error) {
	a, err := e.Advise(disease, risk)
	if err != nil {
		return nil, err
	}
	return a.Recommendations, nil
}

// Advise pairs the disease's recommendations with the tier and headline for risk.
func (e *Engine) Advise(disease string, risk float64) (Advice, error) {
	d, err := e.registry.Disease(disease)
	if err != nil {
		return Advice{}, err
	}
	risk = domain.ClampRisk(risk)
	return Advice{
		Disease:         d.ID,
		Tier:            domain.TierFor(risk),
		Headline:        Framing(risk),
		Recommendations: append([]string{}, recommendations[d.ID]...),
	}, nil
}

// Framing returns the severity headline for a risk value.
func Framing(risk float64) string {
	switch {
	case risk > 70:
		return "HIGH - Immediate action required"
	case risk > 40:
		return "MEDIUM - Immediate action recommended"
	default:
		return "LOW - Immediate action not required"
	}
}
