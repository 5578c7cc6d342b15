package workshops

import (
	"fmt"

	"health-assistant/internal/llm"
)

// Operation is what the user wants done with wellness workshops.
type Operation string

const (
	OpSearch   Operation = "SEARCH"
	OpListMine Operation = "LIST_MY_WORKSHOPS"
	OpRegister Operation = "REGISTER"
)

var validOperations = map[Operation]bool{
	OpSearch:   true,
	OpListMine: true,
	OpRegister: true,
}

// Workshop topics form a closed set; "any" means the user did not narrow.
const (
	TopicStress    = "stress_management"
	TopicSleep     = "sleep_hygiene"
	TopicNutrition = "nutrition"
	TopicAnxiety   = "anxiety_management"
	TopicGeneral   = "general_wellbeing"
	TopicAny       = "any"
)

// Filters narrows a workshop search. Slots are independently nullable.
type Filters struct {
	Topic     *string `json:"tema"`
	Date      *string `json:"fecha"`
	TimeOfDay *string `json:"horario"`
	Modality  *string `json:"modalidad"`
	Location  *string `json:"ubicacion"`
}

// Intent is the model's reading of the current message.
type Intent struct {
	Operation  Operation `json:"operacion"`
	Filters    Filters   `json:"filtros"`
	WorkshopID *string   `json:"taller_id"`
}

func (in *Intent) Validate(raw string) error {
	if !validOperations[in.Operation] {
		return &llm.MalformedOutputError{
			Reason: fmt.Sprintf("unknown operacion %q", in.Operation),
			Raw:    raw,
		}
	}
	if in.Operation == OpRegister && (in.WorkshopID == nil || *in.WorkshopID == "") {
		return &llm.MalformedOutputError{
			Reason: "REGISTER without taller_id",
			Raw:    raw,
		}
	}
	return nil
}

// Workshop is one offering a user can browse or register for.
type Workshop struct {
	ID          string `json:"taller_id"`
	Title       string `json:"titulo"`
	Topic       string `json:"tema"`
	Date        string `json:"fecha"`
	StartTime   string `json:"hora_inicio"`
	EndTime     string `json:"hora_fin"`
	Modality    string `json:"modalidad"`
	Location    string `json:"ubicacion,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// Response is what /workshops/interpret returns.
type Response struct {
	Operation  Operation  `json:"operacion"`
	Filters    Filters    `json:"filtros"`
	Workshops  []Workshop `json:"talleres"`
	Registered *Workshop  `json:"taller_registrado,omitempty"`
	Message    string     `json:"message"`
}
