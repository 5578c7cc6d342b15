package workshops

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Repository is the lookup/registration capability the interpreter needs.
type Repository interface {
	Search(ctx context.Context, f Filters, limit int) ([]Workshop, error)
	ListForUser(ctx context.Context, userID string) ([]Workshop, error)
	Register(ctx context.Context, userID, workshopID string) (*Workshop, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const workshopColumns = `taller_id, titulo, tema, fecha, hora_inicio, hora_fin, modalidad, ubicacion, descripcion`

func (r *postgresRepo) Search(ctx context.Context, f Filters, limit int) ([]Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM talleres WHERE fecha >= CURRENT_DATE`
	var args []any
	next := 1

	addFilter := func(column string, value *string) {
		if value == nil || *value == "" || *value == TopicAny {
			return
		}
		next++
		query += ` AND ` + column + ` = $` + strconv.Itoa(next-1)
		args = append(args, *value)
	}
	addFilter("tema", f.Topic)
	addFilter("fecha", f.Date)
	addFilter("modalidad", f.Modality)
	addFilter("ubicacion", f.Location)

	query += ` ORDER BY fecha, hora_inicio LIMIT $` + strconv.Itoa(next)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "search workshops")
	}
	defer rows.Close()
	return scanWorkshops(rows)
}

func (r *postgresRepo) ListForUser(ctx context.Context, userID string) ([]Workshop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.taller_id, w.titulo, w.tema, w.fecha, w.hora_inicio, w.hora_fin, w.modalidad, w.ubicacion, w.descripcion
		FROM talleres w
		JOIN inscripciones_talleres i ON i.taller_id = w.taller_id
		WHERE i.user_id = $1
		ORDER BY w.fecha, w.hora_inicio`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user workshops")
	}
	defer rows.Close()
	return scanWorkshops(rows)
}

func (r *postgresRepo) Register(ctx context.Context, userID, workshopID string) (*Workshop, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workshopColumns+` FROM talleres WHERE taller_id = $1`, workshopID)
	w, err := scanWorkshop(row)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("workshop %s not found", workshopID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load workshop")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO inscripciones_talleres (id, user_id, taller_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, taller_id) DO NOTHING`,
		uuid.New(), userID, workshopID, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "register workshop")
	}
	return w, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkshop(row rowScanner) (*Workshop, error) {
	var w Workshop
	var location, description sql.NullString
	err := row.Scan(&w.ID, &w.Title, &w.Topic, &w.Date, &w.StartTime, &w.EndTime,
		&w.Modality, &location, &description)
	if err != nil {
		return nil, err
	}
	w.Location = location.String
	w.Description = description.String
	return &w, nil
}

func scanWorkshops(rows *sql.Rows) ([]Workshop, error) {
	var out []Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan workshop")
		}
		out = append(out, *w)
	}
	return out, errors.Wrap(rows.Err(), "iterate workshops")
}
