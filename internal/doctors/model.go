package doctors

import (
	"fmt"

	"health-assistant/internal/criteria"
	"health-assistant/internal/llm"
)

// Operation is what the user wants done with appointments.
type Operation string

const (
	OpSearch Operation = "buscar"
	OpBook   Operation = "agendar"
	OpCancel Operation = "cancelar"
	OpList   Operation = "ver_citas"
)

var validOperations = map[Operation]bool{
	OpSearch: true,
	OpBook:   true,
	OpCancel: true,
	OpList:   true,
}

const Warning = "Este asistente no reemplaza una evaluación médica profesional."

// Specialties is the closed list the model must choose from; anything else
// in the especialidad slot is rejected at parse time.
var Specialties = []string{
	"Radiología",
	"Medicina de Emergencias",
	"Neurología",
	"Medicina Familiar",
	"Neumología",
	"Cardiología",
	"Medicina Interna",
	"Pediatría",
	"Dermatología",
	"Reumatología",
}

var specialtySet = func() map[string]bool {
	m := make(map[string]bool, len(Specialties))
	for _, s := range Specialties {
		m[s] = true
	}
	return m
}()

// Interpretation is the model's reading of the current message alone. The
// criteria here are NOT merged with history; that is the accumulator's job.
type Interpretation struct {
	Operation Operation    `json:"accion"`
	Criteria  criteria.Set `json:"criterios"`
	ReferTo   string       `json:"derivar_a"`
}

func (in *Interpretation) Validate(raw string) error {
	if !validOperations[in.Operation] {
		return &llm.MalformedOutputError{
			Reason: fmt.Sprintf("unknown accion %q", in.Operation),
			Raw:    raw,
		}
	}
	in.Criteria.Normalize()
	if in.Criteria.Specialty != nil && !specialtySet[*in.Criteria.Specialty] {
		return &llm.MalformedOutputError{
			Reason: fmt.Sprintf("especialidad %q not in the allowed list", *in.Criteria.Specialty),
			Raw:    raw,
		}
	}
	return nil
}

// Response is what /doctors/interpret returns. Criteria carries the merged
// (effective) set, not just the current turn's extraction, so the next turn
// can rebuild its previous_criteria from the stored payload.
type Response struct {
	Operation       Operation        `json:"accion"`
	Criteria        criteria.Set     `json:"criterios"`
	Doctors         []map[string]any `json:"doctores_encontrados"`
	Slots           []map[string]any `json:"horarios_disponibles"`
	NeedsMoreInfo   bool             `json:"requiere_mas_informacion"`
	PendingQuestion string           `json:"pregunta_pendiente,omitempty"`
	ReferTo         string           `json:"derivar_a,omitempty"`
	Warning         string           `json:"advertencia"`
	Message         string           `json:"message"`
}
