package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyFieldsMapsLastEndpointToItsColumn(t *testing.T) {
	sess := &Session{UserID: "u1"}

	applyFields(sess, map[string]any{"last_endpoint": EndpointDoctors})

	require.Equal(t, EndpointDoctors, sess.LastEndpoint)
	require.Nil(t, sess.Fields)
}

func TestApplyFieldsKeepsUnmappedEntries(t *testing.T) {
	sess := &Session{UserID: "u1"}

	applyFields(sess, map[string]any{
		"last_endpoint": EndpointTriage,
		"locale":        "es-PE",
	})

	require.Equal(t, EndpointTriage, sess.LastEndpoint)
	require.Equal(t, "es-PE", sess.Fields["locale"])
	require.NotContains(t, sess.Fields, "last_endpoint")
}

func TestApplyFieldsMergesAcrossCalls(t *testing.T) {
	sess := &Session{UserID: "u1"}

	applyFields(sess, map[string]any{"locale": "es-PE"})
	applyFields(sess, map[string]any{"channel": "web"})
	applyFields(sess, map[string]any{"locale": "es-MX"})

	require.Equal(t, "es-MX", sess.Fields["locale"])
	require.Equal(t, "web", sess.Fields["channel"])
}
