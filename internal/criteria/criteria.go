// Package criteria implements the cross-turn accumulation of appointment
// search criteria: the per-slot merge of what the user said this turn with
// what earlier turns already established, and the sufficiency policy that
// decides between running a search and asking one follow-up question.
package criteria

import (
	"encoding/json"
	"strings"

	"health-assistant/internal/session"
)

const (
	ModalityVirtual  = "virtual"
	ModalityInPerson = "presencial"
)

// TimePreference is the preferred time-of-day range for an appointment.
type TimePreference struct {
	Range *string `json:"rango,omitempty"`
	Start *string `json:"inicio,omitempty"`
	End   *string `json:"fin,omitempty"`
}

// Set holds the named search slots for the appointment domain. Every slot is
// independently nullable; JSON tags match the Spanish field names the model
// is instructed to emit.
type Set struct {
	Specialty         *string         `json:"especialidad"`
	Subspecialty      *string         `json:"subespecialidad"`
	PreferredGender   *string         `json:"genero_preferido"`
	PreferredLanguage *string         `json:"idioma_preferido"`
	Modality          *string         `json:"modalidad"`
	Date              *string         `json:"fecha"`
	Weekday           *string         `json:"dia_semana"`
	TimeOfDay         *TimePreference `json:"hora_preferida"`
	Department        *string         `json:"departamento"`
	District          *string         `json:"distrito"`
	DoctorID          *string         `json:"doctor_id"`
}

// Merge combines the criteria established by earlier turns with the slots
// extracted from the current message. The merge is right-biased per slot: an
// explicit mention in the current turn always replaces the remembered value
// (the user changed their mind), a silent slot carries forward, and a slot
// set by neither side stays null. Values are never accumulated into lists.
func Merge(previous, current Set) Set {
	return Set{
		Specialty:         pick(previous.Specialty, current.Specialty),
		Subspecialty:      pick(previous.Subspecialty, current.Subspecialty),
		PreferredGender:   pick(previous.PreferredGender, current.PreferredGender),
		PreferredLanguage: pick(previous.PreferredLanguage, current.PreferredLanguage),
		Modality:          pick(previous.Modality, current.Modality),
		Date:              pick(previous.Date, current.Date),
		Weekday:           pick(previous.Weekday, current.Weekday),
		TimeOfDay:         pickTime(previous.TimeOfDay, current.TimeOfDay),
		Department:        pick(previous.Department, current.Department),
		District:          pick(previous.District, current.District),
		DoctorID:          pick(previous.DoctorID, current.DoctorID),
	}
}

func pick(prev, cur *string) *string {
	if cur != nil {
		return cur
	}
	return prev
}

func pickTime(prev, cur *TimePreference) *TimePreference {
	if cur != nil {
		return cur
	}
	return prev
}

// Normalize drops empty-string slots. Models regularly emit "" where the
// prompt asked for null, and an empty string must not count as an explicit
// mention during the merge.
func (s *Set) Normalize() {
	s.Specialty = cleaned(s.Specialty)
	s.Subspecialty = cleaned(s.Subspecialty)
	s.PreferredGender = cleaned(s.PreferredGender)
	s.PreferredLanguage = cleaned(s.PreferredLanguage)
	s.Modality = cleaned(s.Modality)
	s.Date = cleaned(s.Date)
	s.Weekday = cleaned(s.Weekday)
	s.Department = cleaned(s.Department)
	s.District = cleaned(s.District)
	s.DoctorID = cleaned(s.DoctorID)
	if s.TimeOfDay != nil {
		s.TimeOfDay.Range = cleaned(s.TimeOfDay.Range)
		s.TimeOfDay.Start = cleaned(s.TimeOfDay.Start)
		s.TimeOfDay.End = cleaned(s.TimeOfDay.End)
		if s.TimeOfDay.Range == nil && s.TimeOfDay.Start == nil && s.TimeOfDay.End == nil {
			s.TimeOfDay = nil
		}
	}
}

func cleaned(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// Sufficiency is the outcome of the "can we search yet" check.
type Sufficiency struct {
	Sufficient      bool
	PendingQuestion string
}

// Evaluate decides whether the merged criteria can seed a concrete lookup.
// At least one of specialty, district or an explicit doctor id is required;
// an in-person modality additionally requires a location (department or
// district). When insufficient, exactly one follow-up question is produced,
// always about a slot that is still null.
func Evaluate(s Set) Sufficiency {
	hasSeed := s.Specialty != nil || s.District != nil || s.DoctorID != nil
	needsLocation := s.Modality != nil && *s.Modality == ModalityInPerson &&
		s.Department == nil && s.District == nil

	if hasSeed && !needsLocation {
		return Sufficiency{Sufficient: true}
	}

	switch {
	case !hasSeed:
		return Sufficiency{PendingQuestion: "¿Con qué especialidad médica deseas atenderte?"}
	default:
		return Sufficiency{PendingQuestion: "¿En qué distrito te gustaría la consulta presencial?"}
	}
}

// ResolvedSlots lists the Spanish names of the non-null slots, used to make
// sure a pending question never asks about something already answered.
func (s Set) ResolvedSlots() []string {
	var out []string
	add := func(name string, p *string) {
		if p != nil {
			out = append(out, name)
		}
	}
	add("especialidad", s.Specialty)
	add("subespecialidad", s.Subspecialty)
	add("genero_preferido", s.PreferredGender)
	add("idioma_preferido", s.PreferredLanguage)
	add("modalidad", s.Modality)
	add("fecha", s.Date)
	add("dia_semana", s.Weekday)
	if s.TimeOfDay != nil {
		out = append(out, "hora_preferida")
	}
	add("departamento", s.Department)
	add("distrito", s.District)
	add("doctor_id", s.DoctorID)
	return out
}

// FromHistory reconstructs the criteria earlier appointment turns
// established, by folding each stored turn's extracted criteria oldest to
// newest with the same right-biased merge used at request time.
func FromHistory(turns []session.Turn) Set {
	var acc Set
	for _, t := range turns {
		if t.Endpoint != session.EndpointDoctors {
			continue
		}
		raw, ok := t.Response["criterios"]
		if !ok {
			continue
		}
		var extracted Set
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, &extracted); err != nil {
			continue
		}
		extracted.Normalize()
		acc = Merge(acc, extracted)
	}
	return acc
}

// FromTriageContext seeds a specialty from a previous triage result, so a
// user who was told "ve a cardiología" and then asks for "una cita" is not
// asked which specialty they want.
func FromTriageContext(tc map[string]any) Set {
	var seed Set
	if tc == nil {
		return seed
	}
	if v, ok := tc["especialidad_sugerida"].(string); ok && strings.TrimSpace(v) != "" {
		s := strings.TrimSpace(v)
		seed.Specialty = &s
	}
	return seed
}
