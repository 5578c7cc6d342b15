package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// PostgresStore persists sessions in a single table with JSON columns.
// Append is read-modify-write without a transaction: the contract tolerates
// lost updates between concurrent requests for the same user.
type PostgresStore struct {
	db       *sql.DB
	maxTurns int
}

func NewPostgresStore(db *sql.DB, maxTurns int) *PostgresStore {
	return &PostgresStore{db: db, maxTurns: maxTurns}
}

func (s *PostgresStore) load(ctx context.Context, userID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, triage_context, history, last_endpoint, fields, updated_at
		 FROM sessions WHERE user_id = $1`, userID)

	var sess Session
	var triageJSON, historyJSON, fieldsJSON []byte
	var lastEndpoint sql.NullString
	err := row.Scan(&sess.UserID, &triageJSON, &historyJSON, &lastEndpoint, &fieldsJSON, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return &Session{UserID: userID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	if len(triageJSON) > 0 {
		if err := json.Unmarshal(triageJSON, &sess.TriageContext); err != nil {
			return nil, errors.Wrap(err, "unmarshal triage context")
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &sess.History); err != nil {
			return nil, errors.Wrap(err, "unmarshal history")
		}
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &sess.Fields); err != nil {
			return nil, errors.Wrap(err, "unmarshal session fields")
		}
	}
	sess.LastEndpoint = lastEndpoint.String
	return &sess, nil
}

func (s *PostgresStore) save(ctx context.Context, sess *Session) error {
	triageJSON, err := json.Marshal(sess.TriageContext)
	if err != nil {
		return errors.Wrap(err, "marshal triage context")
	}
	historyJSON, err := json.Marshal(sess.History)
	if err != nil {
		return errors.Wrap(err, "marshal history")
	}
	fieldsJSON, err := json.Marshal(sess.Fields)
	if err != nil {
		return errors.Wrap(err, "marshal session fields")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, triage_context, history, last_endpoint, fields, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			triage_context = $2,
			history = $3,
			last_endpoint = $4,
			fields = $5,
			updated_at = $6
	`, sess.UserID, triageJSON, historyJSON, nullIfEmpty(sess.LastEndpoint), fieldsJSON, time.Now())
	return errors.Wrap(err, "save session")
}

func (s *PostgresStore) GetTurns(ctx context.Context, userID string) ([]Turn, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, userID string, t Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	sess, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	sess.History = append(sess.History, t)
	if s.maxTurns > 0 && len(sess.History) > s.maxTurns {
		sess.History = sess.History[len(sess.History)-s.maxTurns:]
	}
	return s.save(ctx, sess)
}

func (s *PostgresStore) GetTriageContext(ctx context.Context, userID string) (map[string]any, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.TriageContext, nil
}

func (s *PostgresStore) SaveTriageContext(ctx context.Context, userID string, data map[string]any) error {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	sess.TriageContext = data
	return s.save(ctx, sess)
}

func (s *PostgresStore) UpdateSession(ctx context.Context, userID string, fields map[string]any) error {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	applyFields(sess, fields)
	return s.save(ctx, sess)
}

// applyFields merges an UpdateSession payload into the loaded row. Fields
// with a dedicated column map onto it; everything else lands in the generic
// fields document so no entry is silently dropped.
func applyFields(sess *Session, fields map[string]any) {
	for k, v := range fields {
		if k == "last_endpoint" {
			if s, ok := v.(string); ok {
				sess.LastEndpoint = s
				continue
			}
		}
		if sess.Fields == nil {
			sess.Fields = make(map[string]any, len(fields))
		}
		sess.Fields[k] = v
	}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
