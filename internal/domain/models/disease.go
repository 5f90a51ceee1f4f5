package models

import "strings"

type Disease string

const (
	DiseaseMalaria   Disease = "malaria"
	DiseaseDengue    Disease = "dengue"
	DiseaseDiarrhoea Disease = "diarrhoea"
)

func (d Disease) String() string { return string(d) }

// ParseDisease normalizes free-form input ("MALARIA", "Dengue") to a known disease.
func ParseDisease(s string) (Disease, bool) {
	switch Disease(strings.ToLower(strings.TrimSpace(s))) {
	case DiseaseMalaria:
		return DiseaseMalaria, true
	case DiseaseDengue:
		return DiseaseDengue, true
	case DiseaseDiarrhoea:
		return DiseaseDiarrhoea, true
	}
	return "", false
}

type HeuristicKind string

const (
	HeuristicPeakCycle  HeuristicKind = "peak_cycle"
	HeuristicSalesSurge HeuristicKind = "sales_surge"
	HeuristicSalesRatio HeuristicKind = "sales_ratio"
)

// LagUpdatePolicy selects how the recursive forecaster rewrites target lag
// features from prior predictions. Malaria historically overwrites only
// lag-1; dengue and diarrhoea shift the whole chain. The split is preserved
// per disease and pinned by tests.
type LagUpdatePolicy string

const (
	LagUpdateHeadOnly   LagUpdatePolicy = "head_only"
	LagUpdateShiftChain LagUpdatePolicy = "shift_chain"
)

// DiseaseSpec is the data-driven description of one disease pipeline:
// which medicine sales columns it tracks, which calendar features it uses,
// and which heuristic corrects its predictions.
type DiseaseSpec struct {
	Disease         Disease
	Medicines       []string // tracked sales columns, in feature order
	IncludeYear     bool     // year,month,dow,dom calendar block instead of dow,dom,month
	Heuristic       HeuristicKind
	PredictorColumn string // train-time heuristic column, "" when none
	LagUpdate       LagUpdatePolicy
}

var diseaseSpecs = map[Disease]DiseaseSpec{
	DiseaseMalaria: {
		Disease:         DiseaseMalaria,
		Medicines:       []string{"Coartem", "Fansidar"},
		IncludeYear:     true,
		Heuristic:       HeuristicPeakCycle,
		PredictorColumn: "peak_cycle_predictor",
		LagUpdate:       LagUpdateHeadOnly,
	},
	DiseaseDengue: {
		Disease:   DiseaseDengue,
		Medicines: []string{"Panadol", "Calpol"},
		Heuristic: HeuristicSalesSurge,
		LagUpdate: LagUpdateShiftChain,
	},
	DiseaseDiarrhoea: {
		Disease:   DiseaseDiarrhoea,
		Medicines: []string{"Zincat", "ORS Sachet"},
		Heuristic: HeuristicSalesRatio,
		LagUpdate: LagUpdateShiftChain,
	},
}

// SpecFor returns the pipeline description for a disease.
func SpecFor(d Disease) (DiseaseSpec, bool) {
	s, ok := diseaseSpecs[d]
	return s, ok
}

// AllSpecs returns every configured disease spec in a stable order.
func AllSpecs() []DiseaseSpec {
	return []DiseaseSpec{
		diseaseSpecs[DiseaseMalaria],
		diseaseSpecs[DiseaseDengue],
		diseaseSpecs[DiseaseDiarrhoea],
	}
}

// categoryOrder fixes the match order for medicines listed under more than
// one disease (Panadol treats dengue fevers and shows up in diarrhoea
// rehydration kits). Dengue wins those ties.
var categoryOrder = []Disease{DiseaseDengue, DiseaseMalaria, DiseaseDiarrhoea}

// categoryMedicines drives pharmacy import classification. These are the
// full catalog lists, a superset of the tracked feature columns in
// DiseaseSpec.Medicines.
var categoryMedicines = map[Disease][]string{
	DiseaseDengue: {
		"Panadol", "Calpol", "Febrol", "Disprol", "Relifal", "Plasaline",
		"Medisol", "Medilact-D", "Hartmann's Solution", "Lensaline",
		"Dextrone-40", "Vitamin C Tablets", "Folic Acid Tablets",
	},
	DiseaseMalaria: {
		"Bassoquin", "Amdaquin", "Amoquine", "Unesoquine", "Fansidar",
		"Geridar", "Neosidar", "Sulfadar", "Fantar DS", "One-3 Syrup",
		"Artheget", "Gen-M", "Mosquinet", "Coartem",
	},
	DiseaseDiarrhoea: {
		"Pedialyte", "ORS-L", "Zincolak", "Zincat", "Enterogermina",
		"Lacteol Fort", "Vomil-S", "Hidrasec", "Rotarix", "RotaTeq",
		"Flagyl", "Bifilac", "ORS Sachet", "Calpol", "Panadol",
	},
}

// DetectMedicineDiseases returns every disease whose catalog matches the
// medicine name. Matching is case-insensitive and substring in either
// direction, so "Coartem 80mg" and "Coartem" find each other.
func DetectMedicineDiseases(name string) []Disease {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	var matched []Disease
	for _, d := range categoryOrder {
		for _, med := range categoryMedicines[d] {
			m := strings.ToLower(med)
			if strings.Contains(needle, m) || strings.Contains(m, needle) {
				matched = append(matched, d)
				break
			}
		}
	}
	return matched
}

// MedicineCategory returns the primary disease a medicine is catalogued
// under, or "" when unknown.
func MedicineCategory(name string) Disease {
	if matched := DetectMedicineDiseases(name); len(matched) > 0 {
		return matched[0]
	}
	return ""
}
