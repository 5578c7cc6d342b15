package agent

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"health-assistant/internal/doctors"
	"health-assistant/internal/llm"
	"health-assistant/internal/session"
	"health-assistant/internal/triage"
	"health-assistant/internal/workshops"
)

// TriageInterpreter handles symptom messages.
type TriageInterpreter interface {
	Interpret(ctx context.Context, userID, message string) (*triage.Response, error)
}

// DoctorsInterpreter handles appointment messages.
type DoctorsInterpreter interface {
	Interpret(ctx context.Context, userID, message string) (*doctors.Response, error)
}

// WorkshopsInterpreter handles wellness workshop messages.
type WorkshopsInterpreter interface {
	Interpret(ctx context.Context, userID, message string) (*workshops.Response, error)
}

// Decision is the output of the router's classification stage.
type Decision struct {
	Endpoint   string  `json:"endpoint"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Response is the full body of a POST /agent/route answer.
type Response struct {
	Endpoint   string  `json:"endpoint"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Message    string  `json:"message"`
	Result     any     `json:"response"`
}

var validEndpoints = map[string]struct{}{
	session.EndpointTriage:    {},
	session.EndpointDoctors:   {},
	session.EndpointWorkshops: {},
}

// Router classifies the user's message, dispatches it to the matching
// interpreter and rewrites the structured result as natural language.
type Router struct {
	completer llm.Completer
	triage    TriageInterpreter
	doctors   DoctorsInterpreter
	workshops WorkshopsInterpreter
	logger    zerolog.Logger
}

func NewRouter(completer llm.Completer, t TriageInterpreter, d DoctorsInterpreter, w WorkshopsInterpreter, logger zerolog.Logger) *Router {
	return &Router{
		completer: completer,
		triage:    t,
		doctors:   d,
		workshops: w,
		logger:    logger.With().Str("component", "router").Logger(),
	}
}

// Classify asks the model for the service label of a message. A label
// outside the closed set is a fatal error: there is no default route.
func (r *Router) Classify(ctx context.Context, message string) (*Decision, error) {
	raw, err := r.completer.Complete(ctx, routerSystemPrompt, message)
	if err != nil {
		return nil, err
	}

	var decision Decision
	if err := llm.Decode(raw, &decision); err != nil {
		return nil, err
	}
	if _, ok := validEndpoints[decision.Endpoint]; !ok {
		return nil, &llm.MalformedOutputError{
			Reason: "etiqueta de endpoint desconocida: " + decision.Endpoint,
			Raw:    raw,
		}
	}
	return &decision, nil
}

// Route runs the full flow: classify, dispatch, rewrap.
func (r *Router) Route(ctx context.Context, userID, message string) (*Response, error) {
	decision, err := r.Classify(ctx, message)
	if err != nil {
		return nil, err
	}
	r.logger.Info().
		Str("user_id", userID).
		Str("endpoint", decision.Endpoint).
		Float64("confidence", decision.Confidence).
		Msg("message routed")

	var (
		result        any
		structuredMsg string
	)
	switch decision.Endpoint {
	case session.EndpointTriage:
		resp, err := r.triage.Interpret(ctx, userID, message)
		if err != nil {
			return nil, err
		}
		result, structuredMsg = resp, resp.Message
	case session.EndpointDoctors:
		resp, err := r.doctors.Interpret(ctx, userID, message)
		if err != nil {
			return nil, err
		}
		result, structuredMsg = resp, resp.Message
	case session.EndpointWorkshops:
		resp, err := r.workshops.Interpret(ctx, userID, message)
		if err != nil {
			return nil, err
		}
		result, structuredMsg = resp, resp.Message
	}

	return &Response{
		Endpoint:   decision.Endpoint,
		Confidence: decision.Confidence,
		Reasoning:  decision.Reasoning,
		Message:    r.rewrap(ctx, result, structuredMsg),
		Result:     result,
	}, nil
}

// rewrap asks the model for a natural-language message built from the
// structured result. When the call fails, the interpreter's own message is
// already a valid answer for the user.
func (r *Router) rewrap(ctx context.Context, result any, fallback string) string {
	payload, err := json.Marshal(result)
	if err != nil {
		return fallback
	}
	text, err := r.completer.Complete(ctx, rewrapSystemPrompt, string(payload))
	if err != nil || text == "" {
		if err != nil {
			r.logger.Warn().Err(err).Msg("rewrap call failed, using interpreter message")
		}
		return fallback
	}
	return text
}
