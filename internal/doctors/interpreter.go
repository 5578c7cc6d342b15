package doctors

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"health-assistant/internal/criteria"
	"health-assistant/internal/llm"
	"health-assistant/internal/rag"
	"health-assistant/internal/session"
)

const maxDoctorResults = 5

// Interpreter runs the appointment flow: best-effort history and retrieval,
// one model call extracting the current turn's criteria, the cross-turn
// merge, the sufficiency check, and (when sufficient) the directory lookup.
type Interpreter struct {
	completer    llm.Completer
	store        session.Store
	retriever    rag.Retriever
	directory    Directory
	summaryTurns int
	maxDocs      int
	now          func() time.Time
}

func NewInterpreter(completer llm.Completer, store session.Store, retriever rag.Retriever, directory Directory, summaryTurns, maxDocs int) *Interpreter {
	return &Interpreter{
		completer:    completer,
		store:        store,
		retriever:    retriever,
		directory:    directory,
		summaryTurns: summaryTurns,
		maxDocs:      maxDocs,
		now:          time.Now,
	}
}

func (i *Interpreter) Interpret(ctx context.Context, userID, message string) (*Response, error) {
	turns, err := i.store.GetTurns(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("doctors: session store unavailable, continuing without history")
		turns = nil
	}
	triageCtx, err := i.store.GetTriageContext(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("doctors: could not load triage context")
		triageCtx = nil
	}

	ragCtx := i.retriever.Retrieve(ctx, message, userID, i.maxDocs)

	prompt := BuildSystemPrompt(PromptContext{
		Today:          i.now().Format("2006-01-02"),
		HistorySummary: session.FormatSummary(turns, i.summaryTurns),
		TriageSummary:  FormatTriageSummary(triageCtx),
		KnowledgeBase:  rag.FormatForPrompt(ragCtx.Documents),
	})

	raw, err := i.completer.Complete(ctx, prompt, message)
	if err != nil {
		return nil, err
	}
	var interp Interpretation
	if err := llm.Decode(raw, &interp); err != nil {
		return nil, err
	}
	if err := interp.Validate(raw); err != nil {
		return nil, err
	}

	// A triage suggestion only seeds slots that no conversation turn has
	// touched, and the current message overrides both.
	previous := criteria.Merge(criteria.FromTriageContext(triageCtx), criteria.FromHistory(turns))
	merged := criteria.Merge(previous, interp.Criteria)
	sufficiency := criteria.Evaluate(merged)

	resp := &Response{
		Operation: interp.Operation,
		Criteria:  merged,
		Doctors:   []map[string]any{},
		Slots:     []map[string]any{},
		ReferTo:   interp.ReferTo,
		Warning:   Warning,
	}

	if sufficiency.Sufficient {
		i.executeSearch(ctx, merged, resp)
	} else {
		resp.NeedsMoreInfo = true
		resp.PendingQuestion = sufficiency.PendingQuestion
	}
	resp.Message = buildMessage(resp)

	i.persist(ctx, userID, message, resp)
	return resp, nil
}

// executeSearch is the only step with side effects beyond the model call.
// Its failures degrade to "no results": a partial answer is still useful.
func (i *Interpreter) executeSearch(ctx context.Context, merged criteria.Set, resp *Response) {
	field, value, ok := seedFilter(merged)
	if !ok {
		return
	}

	if field == "doctor_id" {
		slots, err := i.directory.QuerySchedules(ctx, value, merged.Weekday)
		if err != nil {
			log.Warn().Err(err).Str("doctor_id", value).Msg("doctors: schedule lookup failed, returning empty results")
			return
		}
		resp.Slots = filterSlots(slots, merged)
		return
	}

	found, err := i.directory.QueryDoctors(ctx, field, value)
	if err != nil {
		log.Warn().Err(err).Str("field", field).Msg("doctors: directory lookup failed, returning empty results")
		return
	}
	found = filterDoctors(found, merged)
	if len(found) > maxDoctorResults {
		found = found[:maxDoctorResults]
	}
	resp.Doctors = found

	for _, doc := range found {
		id, _ := doc["doctor_id"].(string)
		if id == "" {
			continue
		}
		slots, err := i.directory.QuerySchedules(ctx, id, merged.Weekday)
		if err != nil {
			log.Warn().Err(err).Str("doctor_id", id).Msg("doctors: schedule lookup failed, skipping")
			continue
		}
		resp.Slots = append(resp.Slots, filterSlots(slots, merged)...)
	}
}

// seedFilter picks the field that starts the lookup, preferring the most
// selective slot.
func seedFilter(s criteria.Set) (field, value string, ok bool) {
	switch {
	case s.DoctorID != nil:
		return "doctor_id", *s.DoctorID, true
	case s.Specialty != nil:
		return "especialidad", *s.Specialty, true
	case s.District != nil:
		return "distrito", *s.District, true
	case s.Department != nil:
		return "departamento", *s.Department, true
	}
	return "", "", false
}

// filterDoctors applies the remaining criteria in-process, on top of the
// seeded lookup.
func filterDoctors(records []map[string]any, s criteria.Set) []map[string]any {
	out := records[:0]
	for _, rec := range records {
		if s.PreferredGender != nil && !fieldEquals(rec, "genero", *s.PreferredGender) {
			continue
		}
		if s.District != nil && !fieldEquals(rec, "distrito", *s.District) {
			continue
		}
		if s.Department != nil && !fieldEquals(rec, "departamento", *s.Department) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func filterSlots(slots []map[string]any, s criteria.Set) []map[string]any {
	if s.Modality == nil {
		return slots
	}
	out := slots[:0]
	for _, slot := range slots {
		if fieldEquals(slot, "modo", *s.Modality) {
			out = append(out, slot)
		}
	}
	return out
}

func fieldEquals(rec map[string]any, field, want string) bool {
	got, _ := rec[field].(string)
	return got == want
}

func (i *Interpreter) persist(ctx context.Context, userID, message string, resp *Response) {
	payload := session.ToPayload(resp)
	if err := i.store.AppendTurn(ctx, userID, session.Turn{
		Message:  message,
		Response: payload,
		Endpoint: session.EndpointDoctors,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("doctors: could not persist turn")
	}
	if err := i.store.UpdateSession(ctx, userID, map[string]any{"last_endpoint": session.EndpointDoctors}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("doctors: could not update session")
	}
}

func buildMessage(r *Response) string {
	if r.NeedsMoreInfo {
		return r.PendingQuestion
	}
	if len(r.Doctors) == 0 && len(r.Slots) == 0 {
		return "No encontré doctores que cumplan con tus criterios. ¿Quieres ajustar la búsqueda?"
	}
	if len(r.Doctors) == 0 {
		return fmt.Sprintf("Encontré %d horarios disponibles.", len(r.Slots))
	}
	msg := fmt.Sprintf("Encontré %d doctores que cumplen con tus criterios.", len(r.Doctors))
	if len(r.Slots) > 0 {
		msg += fmt.Sprintf(" Hay %d horarios disponibles.", len(r.Slots))
	}
	return msg
}
