package workshops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"health-assistant/internal/llm"
	"health-assistant/internal/rag"
	"health-assistant/internal/session"
)

type mockCompleter struct {
	reply      string
	err        error
	lastSystem string
}

func (m *mockCompleter) Complete(_ context.Context, systemPrompt, _ string) (string, error) {
	m.lastSystem = systemPrompt
	return m.reply, m.err
}

type nopRetriever struct{}

func (nopRetriever) Retrieve(context.Context, string, string, int) rag.Context {
	return rag.Context{}
}

type mockRepo struct {
	workshops []Workshop
	mine      []Workshop
	err       error

	searchFilters *Filters
	searchLimit   int
	registeredID  string
}

func (m *mockRepo) Search(_ context.Context, f Filters, limit int) ([]Workshop, error) {
	m.searchFilters = &f
	m.searchLimit = limit
	return m.workshops, m.err
}

func (m *mockRepo) ListForUser(context.Context, string) ([]Workshop, error) {
	return m.mine, m.err
}

func (m *mockRepo) Register(_ context.Context, _, workshopID string) (*Workshop, error) {
	m.registeredID = workshopID
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.workshops {
		if m.workshops[i].ID == workshopID {
			return &m.workshops[i], nil
		}
	}
	return nil, errors.New("not found")
}

func newWorkshopsInterpreter(completer llm.Completer, store session.Store, repo Repository) *Interpreter {
	return NewInterpreter(completer, store, nopRetriever{}, repo, 5, 5)
}

var stressWorkshop = Workshop{
	ID:        "TALLER-01",
	Title:     "Respira y suelta",
	Topic:     TopicStress,
	Date:      "2026-09-10",
	StartTime: "18:00",
	EndTime:   "19:00",
	Modality:  "virtual",
}

func TestInterpretSearchReturnsWorkshops(t *testing.T) {
	repo := &mockRepo{workshops: []Workshop{stressWorkshop}}
	completer := &mockCompleter{reply: `{"operacion": "SEARCH", "filtros": {"tema": "stress_management"}}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), repo)

	resp, err := interp.Interpret(context.Background(), "u1", "busco talleres para el estrés")
	require.NoError(t, err)

	require.Equal(t, OpSearch, resp.Operation)
	require.Len(t, resp.Workshops, 1)
	require.Equal(t, "stress_management", *repo.searchFilters.Topic)
	require.Equal(t, maxSearchResults, repo.searchLimit)
	require.Contains(t, resp.Message, "1 talleres")
	require.Contains(t, resp.Message, "stress_management")
}

func TestInterpretSearchFailureDegradesToEmptyResults(t *testing.T) {
	repo := &mockRepo{err: errors.New("db down")}
	completer := &mockCompleter{reply: `{"operacion": "SEARCH", "filtros": {}}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), repo)

	resp, err := interp.Interpret(context.Background(), "u1", "qué talleres hay")
	require.NoError(t, err)
	require.Empty(t, resp.Workshops)
	require.Contains(t, resp.Message, "0 talleres")
}

func TestInterpretListMyWorkshops(t *testing.T) {
	repo := &mockRepo{mine: []Workshop{stressWorkshop}}
	completer := &mockCompleter{reply: `{"operacion": "LIST_MY_WORKSHOPS", "filtros": {}}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), repo)

	resp, err := interp.Interpret(context.Background(), "u1", "en qué talleres estoy inscrito")
	require.NoError(t, err)
	require.Equal(t, OpListMine, resp.Operation)
	require.Len(t, resp.Workshops, 1)
	require.Contains(t, resp.Message, "1 taller")
}

func TestInterpretRegister(t *testing.T) {
	repo := &mockRepo{workshops: []Workshop{stressWorkshop}}
	completer := &mockCompleter{reply: `{"operacion": "REGISTER", "filtros": {}, "taller_id": "TALLER-01"}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), repo)

	resp, err := interp.Interpret(context.Background(), "u1", "inscríbeme en el TALLER-01")
	require.NoError(t, err)

	require.Equal(t, "TALLER-01", repo.registeredID)
	require.NotNil(t, resp.Registered)
	require.Equal(t, "Respira y suelta", resp.Registered.Title)
	require.Contains(t, resp.Message, "Respira y suelta")
}

func TestInterpretRegisterFailureKeepsRequestAlive(t *testing.T) {
	repo := &mockRepo{err: errors.New("db down")}
	completer := &mockCompleter{reply: `{"operacion": "REGISTER", "filtros": {}, "taller_id": "TALLER-99"}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), repo)

	resp, err := interp.Interpret(context.Background(), "u1", "inscríbeme en el TALLER-99")
	require.NoError(t, err)
	require.Nil(t, resp.Registered)
	require.Contains(t, resp.Message, "No pude completar el registro")
}

func TestInterpretRegisterWithoutIDIsFatal(t *testing.T) {
	completer := &mockCompleter{reply: `{"operacion": "REGISTER", "filtros": {}}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), &mockRepo{})

	_, err := interp.Interpret(context.Background(), "u1", "inscríbeme")

	var malformed *llm.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, malformed.Reason, "taller_id")
}

func TestInterpretUnknownOperationIsFatal(t *testing.T) {
	completer := &mockCompleter{reply: `{"operacion": "DELETE_ALL", "filtros": {}}`}
	interp := newWorkshopsInterpreter(completer, session.NewMemoryStore(20), &mockRepo{})

	_, err := interp.Interpret(context.Background(), "u1", "borra todo")

	var malformed *llm.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
}

func TestInterpretPersistsTurn(t *testing.T) {
	store := session.NewMemoryStore(20)
	ctx := context.Background()
	repo := &mockRepo{workshops: []Workshop{stressWorkshop}}
	completer := &mockCompleter{reply: `{"operacion": "SEARCH", "filtros": {"tema": "stress_management"}}`}

	_, err := newWorkshopsInterpreter(completer, store, repo).Interpret(ctx, "u1", "busco talleres")
	require.NoError(t, err)

	turns, err := store.GetTurns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, session.EndpointWorkshops, turns[0].Endpoint)
	require.Equal(t, "SEARCH", turns[0].Response["operacion"])
}
