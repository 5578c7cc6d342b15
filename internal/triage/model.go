package triage

import (
	"fmt"

	"health-assistant/internal/llm"
)

// Tier is the care layer assigned to a set of symptoms, ordered by urgency.
type Tier int

const (
	TierVirtualDoctor Tier = 1 // mild, short-lived, no alarm signs
	TierHomeDoctor    Tier = 2 // moderate acute, patient should not travel
	TierInPersonVisit Tier = 3 // chronic or needs studies / specialist
	TierEmergency     Tier = 4 // alarm signs, immediate attention
)

// Action is the recommended next step, one per tier.
type Action string

const (
	ActionVirtualDoctor Action = "contactar_medico_virtual"
	ActionHomeDoctor    Action = "solicitar_medico_a_domicilio"
	ActionInPersonVisit Action = "consulta_presencial"
	ActionCallEmergency Action = "llamar_emergencias"
)

// DefaultAction maps a tier to its mandatory recommended action.
func (t Tier) DefaultAction() Action {
	switch t {
	case TierVirtualDoctor:
		return ActionVirtualDoctor
	case TierHomeDoctor:
		return ActionHomeDoctor
	case TierInPersonVisit:
		return ActionInPersonVisit
	default:
		return ActionCallEmergency
	}
}

var validActions = map[Action]bool{
	ActionVirtualDoctor: true,
	ActionHomeDoctor:    true,
	ActionInPersonVisit: true,
	ActionCallEmergency: true,
}

// Warning is attached to every triage answer, no matter the tier.
const Warning = "Este asistente no reemplaza una evaluación médica profesional. " +
	"Si tus síntomas empeoran o presentas signos de alarma, acude de inmediato a un servicio de emergencia."

// Assessment is the structured object the model must return for a triage
// turn. JSON tags match the Spanish field names demanded by the prompt.
type Assessment struct {
	Tier               Tier     `json:"capa"`
	Reasons            []string `json:"razones"`
	Symptoms           []string `json:"sintomas"`
	RetractedSymptoms  []string `json:"sintomas_retirados"`
	SuggestedSpecialty string   `json:"especialidad_sugerida"`
	SuggestedWorkshop  string   `json:"taller_sugerido"`
	RecommendedAction  Action   `json:"accion_recomendada"`
	NeedsMoreInfo      bool     `json:"requiere_mas_informacion"`
	ReferTo            string   `json:"derivar_a"`
}

// Validate enforces the required shape right after the model call. A triage
// answer with an out-of-range tier or an unknown action is unusable; guessing
// a classification here would be unsafe.
func (a *Assessment) Validate(raw string) error {
	if a.Tier < TierVirtualDoctor || a.Tier > TierEmergency {
		return &llm.MalformedOutputError{
			Reason: fmt.Sprintf("capa %d outside 1-4", a.Tier),
			Raw:    raw,
		}
	}
	if a.RecommendedAction == "" {
		a.RecommendedAction = a.Tier.DefaultAction()
	} else if !validActions[a.RecommendedAction] {
		return &llm.MalformedOutputError{
			Reason: fmt.Sprintf("unknown accion_recomendada %q", a.RecommendedAction),
			Raw:    raw,
		}
	}
	return nil
}

// Response is what /triage/interpret returns to the caller.
type Response struct {
	Tier               Tier     `json:"capa"`
	Reasons            []string `json:"razones"`
	Symptoms           []string `json:"sintomas"`
	SuggestedSpecialty string   `json:"especialidad_sugerida,omitempty"`
	SuggestedWorkshop  string   `json:"taller_sugerido,omitempty"`
	RecommendedAction  Action   `json:"accion_recomendada"`
	NeedsMoreInfo      bool     `json:"requiere_mas_informacion"`
	ReferTo            string   `json:"derivar_a,omitempty"`
	Warning            string   `json:"advertencia"`
	Message            string   `json:"message"`
}
