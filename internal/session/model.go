package session

import (
	"encoding/json"
	"time"
)

// Endpoint names double as routing labels and as the per-turn origin marker.
// They are spelled exactly like the HTTP paths they correspond to.
const (
	EndpointTriage    = "triage/interpret"
	EndpointDoctors   = "doctors/interpret"
	EndpointWorkshops = "workshops/interpret"
)

// Turn is one user/system exchange. Turns are append-only: once written they
// are never mutated, only eventually evicted by the history bound.
type Turn struct {
	Message   string         `json:"message"`
	Response  map[string]any `json:"response"`
	Endpoint  string         `json:"endpoint"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is the per-user aggregate the stores persist. Fields carries
// UpdateSession entries that have no dedicated column of their own.
type Session struct {
	UserID        string         `json:"user_id"`
	TriageContext map[string]any `json:"triage_context,omitempty"`
	History       []Turn         `json:"conversation_history"`
	LastEndpoint  string         `json:"last_endpoint,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ToPayload converts a typed interpreter response into the generic mapping
// stored on a Turn, using the struct's JSON tags as field names.
func ToPayload(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
