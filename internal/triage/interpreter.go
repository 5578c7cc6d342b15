package triage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"health-assistant/internal/llm"
	"health-assistant/internal/rag"
	"health-assistant/internal/session"
)

// Interpreter runs the triage flow for one message: history and retrieval
// context are fetched best-effort, the model call is mandatory, and the
// resulting assessment goes through the symptom accumulator before being
// persisted and returned.
type Interpreter struct {
	completer    llm.Completer
	store        session.Store
	retriever    rag.Retriever
	summaryTurns int
	maxDocs      int
}

func NewInterpreter(completer llm.Completer, store session.Store, retriever rag.Retriever, summaryTurns, maxDocs int) *Interpreter {
	return &Interpreter{
		completer:    completer,
		store:        store,
		retriever:    retriever,
		summaryTurns: summaryTurns,
		maxDocs:      maxDocs,
	}
}

func (i *Interpreter) Interpret(ctx context.Context, userID, message string) (*Response, error) {
	// History and prior triage state are advisory: a store failure degrades
	// to an empty session, never to a failed request.
	turns, err := i.store.GetTurns(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("triage: session store unavailable, continuing without history")
		turns = nil
	}
	previousTier, previousSymptoms := priorState(ctx, i.store, userID, turns)

	ragCtx := i.retriever.Retrieve(ctx, message, userID, i.maxDocs)

	prompt := BuildSystemPrompt(PromptContext{
		HistorySummary: session.FormatSummary(turns, i.summaryTurns),
		KnowledgeBase:  rag.FormatForPrompt(ragCtx.Documents),
	})

	raw, err := i.completer.Complete(ctx, prompt, message)
	if err != nil {
		return nil, err
	}
	var assessment Assessment
	if err := llm.Decode(raw, &assessment); err != nil {
		return nil, err
	}
	if err := assessment.Validate(raw); err != nil {
		return nil, err
	}

	symptoms := UnionSymptoms(previousSymptoms, assessment.Symptoms, assessment.RetractedSymptoms)
	comboName, comboFired := DangerousCombination(symptoms)
	tier := FinalTier(assessment.Tier, previousTier, comboFired, len(assessment.RetractedSymptoms) > 0)

	reasons := assessment.Reasons
	if comboFired && tier > assessment.Tier {
		reasons = append(reasons, "combinación de alarma: "+comboName)
	}
	action := assessment.RecommendedAction
	if tier > assessment.Tier {
		// Escalation invalidates the action chosen for the lower tier.
		action = tier.DefaultAction()
	}

	resp := &Response{
		Tier:               tier,
		Reasons:            reasons,
		Symptoms:           symptoms,
		SuggestedSpecialty: assessment.SuggestedSpecialty,
		SuggestedWorkshop:  assessment.SuggestedWorkshop,
		RecommendedAction:  action,
		NeedsMoreInfo:      assessment.NeedsMoreInfo,
		ReferTo:            assessment.ReferTo,
		Warning:            Warning,
	}
	resp.Message = buildMessage(resp)

	i.persist(ctx, userID, message, resp)
	return resp, nil
}

// priorState recovers the tier floor and accumulated symptoms from the saved
// triage context, falling back to the turn log only when no context exists.
// A saved context with an empty symptom list is authoritative: it means every
// earlier symptom was retracted, and rebuilding the set from pre-retraction
// turns would resurrect what the user withdrew.
func priorState(ctx context.Context, store session.Store, userID string, turns []session.Turn) (Tier, []string) {
	tc, err := store.GetTriageContext(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("triage: could not load triage context")
	}
	if tc != nil {
		var tier Tier
		if capa, ok := tc["capa"].(float64); ok {
			tier = Tier(capa)
		}
		return tier, anyStrings(tc["sintomas"])
	}

	var symptoms []string
	for _, t := range turns {
		if t.Endpoint != session.EndpointTriage {
			continue
		}
		symptoms = UnionSymptoms(symptoms, anyStrings(t.Response["sintomas"]), nil)
	}
	return 0, symptoms
}

func (i *Interpreter) persist(ctx context.Context, userID, message string, resp *Response) {
	payload := session.ToPayload(resp)

	if err := i.store.SaveTriageContext(ctx, userID, payload); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("triage: could not save triage context")
	}
	if err := i.store.AppendTurn(ctx, userID, session.Turn{
		Message:  message,
		Response: payload,
		Endpoint: session.EndpointTriage,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("triage: could not persist turn")
	}
	if err := i.store.UpdateSession(ctx, userID, map[string]any{"last_endpoint": session.EndpointTriage}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("triage: could not update session")
	}
}

func anyStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func buildMessage(r *Response) string {
	var msg string
	switch r.Tier {
	case TierEmergency:
		msg = "Tus síntomas presentan signos de alarma. Llama a los servicios de emergencia de inmediato."
	case TierInPersonVisit:
		msg = "Te recomendamos agendar una consulta presencial para una evaluación completa."
	case TierHomeDoctor:
		msg = "Te recomendamos solicitar un médico a domicilio para evaluar tu malestar."
	default:
		msg = "Tus síntomas parecen leves. Un médico virtual puede orientarte."
	}
	if r.SuggestedSpecialty != "" {
		msg += fmt.Sprintf(" Especialidad sugerida: %s.", r.SuggestedSpecialty)
	}
	if r.SuggestedWorkshop != "" {
		msg += fmt.Sprintf(" También podría interesarte el taller %q.", r.SuggestedWorkshop)
	}
	return msg
}
