package triage

import "strings"

// Symptom accumulation is additive across a session: several mild complaints
// can jointly justify a higher tier than any one of them alone. The rules in
// this file run on the full accumulated set, after the current turn's
// retractions have been removed.

// UnionSymptoms merges previously reported symptoms with the current turn's,
// removes whatever the user explicitly retracted, and deduplicates while
// preserving first-seen order.
func UnionSymptoms(previous, current, retracted []string) []string {
	dropped := make(map[string]bool, len(retracted))
	for _, s := range retracted {
		dropped[normalize(s)] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, previous...), current...) {
		key := normalize(s)
		if key == "" || dropped[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// combination is a set of keyword groups; the combination fires when every
// group is matched by at least one accumulated symptom.
type combination struct {
	name   string
	groups [][]string
}

var dangerousCombinations = []combination{
	{
		name: "fiebre con rigidez de cuello",
		groups: [][]string{
			{"fiebre"},
			{"rigidez de cuello", "cuello rigido", "rigidez en el cuello"},
		},
	},
	{
		name: "dolor de pecho con dificultad respiratoria",
		groups: [][]string{
			{"dolor de pecho", "dolor en el pecho", "opresion en el pecho"},
			{"dificultad para respirar", "falta de aire", "ahogo"},
		},
	},
	{
		name: "dolor de pecho con fiebre y palpitaciones",
		groups: [][]string{
			{"dolor de pecho", "dolor en el pecho"},
			{"fiebre"},
			{"latidos rapidos", "palpitaciones", "taquicardia"},
		},
	},
	{
		name: "fiebre con confusión o convulsiones",
		groups: [][]string{
			{"fiebre"},
			{"confusion", "convulsion", "convulsiones", "dificultad para hablar"},
		},
	},
	{
		name: "dolor abdominal intenso con vómitos o sangrado",
		groups: [][]string{
			{"dolor abdominal"},
			{"vomitos persistentes", "sangre en el vomito", "sangre en las heces", "vomito con sangre"},
		},
	},
}

// DangerousCombination reports whether the accumulated symptom set matches a
// recognized emergency combination.
func DangerousCombination(symptoms []string) (string, bool) {
	normalized := make([]string, len(symptoms))
	for i, s := range symptoms {
		normalized[i] = normalize(s)
	}

	for _, combo := range dangerousCombinations {
		matched := 0
		for _, group := range combo.groups {
			if matchesGroup(normalized, group) {
				matched++
			}
		}
		if matched == len(combo.groups) {
			return combo.name, true
		}
	}
	return "", false
}

func matchesGroup(symptoms []string, keywords []string) bool {
	for _, s := range symptoms {
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return true
			}
		}
	}
	return false
}

// FinalTier applies the monotonicity rule: the assigned tier is at least the
// model's own assessment, at least tier 4 when a dangerous combination is
// present, and never below the previous turn's tier unless the user retracted
// a symptom this turn (a retraction invalidates the old floor).
func FinalTier(modelTier, previousTier Tier, comboFired, retractedThisTurn bool) Tier {
	tier := modelTier
	if comboFired && tier < TierEmergency {
		tier = TierEmergency
	}
	if !retractedThisTurn && previousTier > tier {
		tier = previousTier
	}
	return tier
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
