package doctors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Directory is the lookup capability the interpreter needs over the two
// record tables: providers and their weekly time slots. Records are returned
// as flat maps because the query layer is generic over the filter field.
type Directory interface {
	// QueryDoctors returns doctors where field equals value.
	QueryDoctors(ctx context.Context, field, value string) ([]map[string]any, error)
	// QuerySchedules returns the slots for one doctor, optionally narrowed
	// to a weekday.
	QuerySchedules(ctx context.Context, doctorID string, weekday *string) ([]map[string]any, error)
}

// indexedDoctorFields are the columns with a database index. Any other filter
// field falls back to a full scan with an equivalent in-process filter
// instead of being rejected.
var indexedDoctorFields = map[string]bool{
	"doctor_id":    true,
	"especialidad": true,
	"departamento": true,
	"distrito":     true,
}

// scannableDoctorFields is the full column whitelist; field names outside it
// are refused so filter values can never reach the SQL text.
var scannableDoctorFields = map[string]bool{
	"doctor_id":       true,
	"nombre_completo": true,
	"genero":          true,
	"especialidad":    true,
	"subespecialidad": true,
	"hospital":        true,
	"departamento":    true,
	"distrito":        true,
	"tipo_consulta":   true,
}

type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const doctorColumns = `doctor_id, nombre_completo, genero, especialidad, subespecialidad,
	anios_experiencia, idiomas, hospital, departamento, distrito, tipo_consulta`

func (d *PostgresDirectory) QueryDoctors(ctx context.Context, field, value string) ([]map[string]any, error) {
	if !scannableDoctorFields[field] {
		return nil, errors.Errorf("unsupported doctor filter field %q", field)
	}

	if indexedDoctorFields[field] {
		query := fmt.Sprintf(`SELECT %s FROM doctores WHERE %s = $1 LIMIT 25`, doctorColumns, field)
		rows, err := d.db.QueryContext(ctx, query, value)
		if err != nil {
			return nil, errors.Wrap(err, "query doctors")
		}
		defer rows.Close()
		return scanRecords(rows)
	}

	// Unindexed field: scan the table and filter here.
	log.Debug().Str("field", field).Msg("doctors: no index for filter field, falling back to full scan")
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM doctores`, doctorColumns))
	if err != nil {
		return nil, errors.Wrap(err, "scan doctors")
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, rec := range records {
		if fmt.Sprintf("%v", rec[field]) == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (d *PostgresDirectory) QuerySchedules(ctx context.Context, doctorID string, weekday *string) ([]map[string]any, error) {
	query := `SELECT doctor_id, dia_semana, hora_inicio, hora_fin, zona_horaria, modo, departamento, distrito
		FROM horarios_doctores WHERE doctor_id = $1`
	args := []any{doctorID}
	if weekday != nil {
		query += ` AND dia_semana = $2`
		args = append(args, *weekday)
	}
	query += ` ORDER BY dia_semana, hora_inicio`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query schedules")
	}
	defer rows.Close()
	return scanRecords(rows)
}

// scanRecords turns a generic result set into flat maps, decoding the []byte
// values lib/pq produces for text columns.
func scanRecords(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		rec := make(map[string]any, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case []byte:
				rec[col] = string(v)
			default:
				rec[col] = v
			}
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "iterate records")
}
