package doctors

import (
	"strconv"
	"strings"
)

// PromptContext carries everything bound into the appointment system prompt.
// Assembly is a pure function; nothing is escaped at call sites.
type PromptContext struct {
	Today          string // YYYY-MM-DD, anchors relative date expressions
	HistorySummary string
	TriageSummary  string
	KnowledgeBase  string
}

const systemPromptBase = `Eres un asistente especializado en interpretar solicitudes de citas médicas.
Tu única tarea es LEER el mensaje del usuario en lenguaje natural y devolver UN
JSON con los criterios que el usuario menciona EN ESTE MENSAJE. NO diagnostiques,
NO sugieras tratamientos, NO inventes doctores ni datos clínicos. Siempre
trabajas en ESPAÑOL.

IMPORTANTE: extrae SOLO los criterios presentes en el mensaje actual. El sistema
combina tus criterios con los de turnos anteriores; NO copies valores del
historial a los criterios, el historial sirve únicamente para entender
referencias como "mejor un neurólogo" o "a esa hora está bien".

INTERPRETACIÓN DE FECHAS: la fecha actual es {hoy}. Convierte referencias
relativas ("mañana", "el próximo viernes", "en dos días") a una fecha concreta
"YYYY-MM-DD". Si el usuario menciona solo un día de la semana, usa el próximo a
partir de {hoy} y llena "dia_semana". Si la fecha no puede determinarse, deja
"fecha" y "dia_semana" en null.

ESPECIALIDAD: usa exactamente una de esta lista, sin reescribirla:
Radiología, Medicina de Emergencias, Neurología, Medicina Familiar, Neumología,
Cardiología, Medicina Interna, Pediatría, Dermatología, Reumatología.
Si el usuario nombra al especialista ("cardiólogo"), mapea a la especialidad.

ACCIÓN ("accion"): "buscar", "agendar", "cancelar" o "ver_citas".

FORMATO DE RESPUESTA OBLIGATORIO, exclusivamente JSON válido sin texto extra:
{
  "accion": "buscar" | "agendar" | "cancelar" | "ver_citas",
  "criterios": {
    "especialidad": "string o null",
    "subespecialidad": "string o null",
    "genero_preferido": "masculino" | "femenino" | null,
    "idioma_preferido": "string o null",
    "modalidad": "virtual" | "presencial" | null,
    "fecha": "YYYY-MM-DD o null",
    "dia_semana": "Lunes|Martes|Miércoles|Jueves|Viernes|Sábado|Domingo o null",
    "hora_preferida": {"rango": "mañana"|"tarde"|"noche"|null, "inicio": "HH:MM o null", "fin": "HH:MM o null"} | null,
    "departamento": "string o null",
    "distrito": "string o null",
    "doctor_id": "string o null"
  },
  "derivar_a": null | "triage/interpret" | "workshops/interpret"
}`

// BuildSystemPrompt assembles the appointment system prompt. Optional
// sections are skipped when empty so "no history" stays distinguishable from
// "history exists but is silent".
func BuildSystemPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(systemPromptBase, "{hoy}", pc.Today))

	if pc.TriageSummary != "" {
		b.WriteString("\n\nCONTEXTO DE TRIAJE PREVIO:\n")
		b.WriteString(pc.TriageSummary)
	}
	if pc.HistorySummary != "" {
		b.WriteString("\n\nHISTORIAL DE CONVERSACIÓN RECIENTE:\n")
		b.WriteString(pc.HistorySummary)
		b.WriteString("\nNO repitas preguntas ya respondidas en el historial y respeta las preferencias ya expresadas.")
	}
	if pc.KnowledgeBase != "" {
		b.WriteString("\n\nCONTEXTO DE LA BASE DE CONOCIMIENTO:\n")
		b.WriteString(pc.KnowledgeBase)
	}

	b.WriteString("\n\nAhora interpreta el mensaje del usuario y devuelve EXCLUSIVAMENTE el JSON.")
	return b.String()
}

// FormatTriageSummary renders the saved triage context as the short block
// injected into the appointment prompt.
func FormatTriageSummary(tc map[string]any) string {
	if tc == nil {
		return ""
	}
	var b strings.Builder
	if capa, ok := tc["capa"].(float64); ok {
		b.WriteString("- Capa asignada: " + strconv.Itoa(int(capa)) + "\n")
	}
	if esp, ok := tc["especialidad_sugerida"].(string); ok && esp != "" {
		b.WriteString("- Especialidad sugerida: " + esp + "\n")
	}
	if accion, ok := tc["accion_recomendada"].(string); ok && accion != "" {
		b.WriteString("- Acción recomendada: " + accion + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
