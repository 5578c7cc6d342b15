package workshops

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"health-assistant/internal/llm"
	"health-assistant/internal/rag"
	"health-assistant/internal/session"
)

const maxSearchResults = 5

type Interpreter struct {
	completer    llm.Completer
	store        session.Store
	retriever    rag.Retriever
	repo         Repository
	summaryTurns int
	maxDocs      int
	now          func() time.Time
}

func NewInterpreter(completer llm.Completer, store session.Store, retriever rag.Retriever, repo Repository, summaryTurns, maxDocs int) *Interpreter {
	return &Interpreter{
		completer:    completer,
		store:        store,
		retriever:    retriever,
		repo:         repo,
		summaryTurns: summaryTurns,
		maxDocs:      maxDocs,
		now:          time.Now,
	}
}

func (i *Interpreter) Interpret(ctx context.Context, userID, message string) (*Response, error) {
	turns, err := i.store.GetTurns(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("workshops: session store unavailable, continuing without history")
		turns = nil
	}

	ragCtx := i.retriever.Retrieve(ctx, message, userID, i.maxDocs)

	prompt := BuildSystemPrompt(PromptContext{
		Today:          i.now().Format("2006-01-02"),
		HistorySummary: session.FormatSummary(turns, i.summaryTurns),
		KnowledgeBase:  rag.FormatForPrompt(ragCtx.Documents),
	})

	raw, err := i.completer.Complete(ctx, prompt, message)
	if err != nil {
		return nil, err
	}
	var intent Intent
	if err := llm.Decode(raw, &intent); err != nil {
		return nil, err
	}
	if err := intent.Validate(raw); err != nil {
		return nil, err
	}

	resp := &Response{
		Operation: intent.Operation,
		Filters:   intent.Filters,
		Workshops: []Workshop{},
	}

	switch intent.Operation {
	case OpSearch:
		found, err := i.repo.Search(ctx, intent.Filters, maxSearchResults)
		if err != nil {
			log.Warn().Err(err).Msg("workshops: search failed, returning empty results")
		}
		resp.Workshops = found
		resp.Message = searchMessage(found, intent.Filters)
	case OpListMine:
		mine, err := i.repo.ListForUser(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("workshops: listing registrations failed, returning empty results")
		}
		resp.Workshops = mine
		resp.Message = fmt.Sprintf("Tienes %d taller(es) registrado(s).", len(mine))
	case OpRegister:
		registered, err := i.repo.Register(ctx, userID, *intent.WorkshopID)
		if err != nil {
			log.Warn().Err(err).Str("taller_id", *intent.WorkshopID).Msg("workshops: registration failed")
			resp.Message = "No pude completar el registro en el taller. Verifica el identificador e inténtalo de nuevo."
		} else {
			resp.Registered = registered
			resp.Message = fmt.Sprintf("Te has registrado exitosamente en el taller %q.", registered.Title)
		}
	}

	i.persist(ctx, userID, message, resp)
	return resp, nil
}

func (i *Interpreter) persist(ctx context.Context, userID, message string, resp *Response) {
	if err := i.store.AppendTurn(ctx, userID, session.Turn{
		Message:  message,
		Response: session.ToPayload(resp),
		Endpoint: session.EndpointWorkshops,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("workshops: could not persist turn")
	}
	if err := i.store.UpdateSession(ctx, userID, map[string]any{"last_endpoint": session.EndpointWorkshops}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("workshops: could not update session")
	}
}

func searchMessage(found []Workshop, f Filters) string {
	msg := fmt.Sprintf("Encontré %d talleres disponibles.", len(found))
	if f.Topic != nil && *f.Topic != TopicAny && *f.Topic != "" {
		msg += fmt.Sprintf(" Tema: %s.", *f.Topic)
	}
	return msg
}
