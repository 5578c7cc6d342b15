package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Tier    int      `json:"capa"`
	Reasons []string `json:"razones"`
}

func TestDecodePlainJSON(t *testing.T) {
	var out sample
	err := Decode(`{"capa": 2, "razones": ["fiebre moderada"]}`, &out)
	require.NoError(t, err)
	require.Equal(t, 2, out.Tier)
	require.Equal(t, []string{"fiebre moderada"}, out.Reasons)
}

func TestDecodeStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"capa\": 3, \"razones\": []}\n```"
	var out sample
	require.NoError(t, Decode(raw, &out))
	require.Equal(t, 3, out.Tier)
}

func TestDecodeStripsLeadInProse(t *testing.T) {
	raw := `Claro, aquí está la clasificación: {"capa": 1, "razones": ["leve"]} Espero que ayude.`
	var out sample
	require.NoError(t, Decode(raw, &out))
	require.Equal(t, 1, out.Tier)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	var out sample
	require.NoError(t, Decode(`{"capa": 1, "razones": [], "campo_nuevo": true}`, &out))
}

func TestDecodeNoJSONIsMalformed(t *testing.T) {
	var out sample
	err := Decode("lo siento, no puedo responder eso", &out)

	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "lo siento, no puedo responder eso", malformed.Raw)
}

func TestDecodeBrokenJSONIsMalformed(t *testing.T) {
	var out sample
	err := Decode(`{"capa": 2, "razones": [}`, &out)

	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	require.NotNil(t, malformed.Err, "the json error must be preserved for the logs")
}

func TestDecodeMistypedFieldIsMalformed(t *testing.T) {
	var out sample
	err := Decode(`{"capa": "dos"}`, &out)

	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
}

func TestExtractJSONOutermostBraces(t *testing.T) {
	got, err := ExtractJSON(`texto {"a": {"b": 1}} más texto`)
	require.NoError(t, err)
	require.Equal(t, `{"a": {"b": 1}}`, got)
}
