package door

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

var ErrDoorNotFound = errors.New("door not found")

var _ Repository = (*PostgresRepository)(nil)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	ListDoors(ctx context.Context) ([]types.Door, error)
	ListDoorsWithCoordinates(ctx context.Context) ([]types.Door, error)
	UpdateCoordinates(ctx context.Context, id uuid.UUID, coords types.Coordinates, neighborhood *string) error
	UpdateNeighborhood(ctx context.Context, id uuid.UUID, neighborhood string) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresRepository(pgpool DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const selectDoors = `
        SELECT id, location, neighborhood, arrondissement, coordinates, image_url, date_added
        FROM doors
    `

func (r *PostgresRepository) ListDoors(ctx context.Context) ([]types.Door, error) {
	return r.listDoors(ctx, "ListDoors", selectDoors+` ORDER BY date_added ASC`)
}

func (r *PostgresRepository) ListDoorsWithCoordinates(ctx context.Context) ([]types.Door, error) {
	return r.listDoors(ctx, "ListDoorsWithCoordinates", selectDoors+` WHERE coordinates IS NOT NULL ORDER BY date_added ASC`)
}

func (r *PostgresRepository) listDoors(ctx context.Context, op, query string) ([]types.Door, error) {
	start := time.Now()
	defer observe(ctx, op, start)

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
		return nil, fmt.Errorf("failed to query doors: %w", err)
	}
	defer rows.Close()

	var doors []types.Door
	for rows.Next() {
		var (
			d              types.Door
			neighborhood   pgtype.Text
			arrondissement pgtype.Text
			coords         []byte
		)
		if err := rows.Scan(&d.ID, &d.Location, &neighborhood, &arrondissement, &coords, &d.ImageURL, &d.DateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan door: %w", err)
		}
		if neighborhood.Valid {
			d.Neighborhood = &neighborhood.String
		}
		if arrondissement.Valid {
			d.Arrondissement = &arrondissement.String
		}
		if len(coords) > 0 && string(coords) != "null" {
			var c types.Coordinates
			if err := json.Unmarshal(coords, &c); err != nil {
				r.logger.WarnContext(ctx, "Ignoring malformed door coordinates",
					slog.String("door_id", d.ID.String()), slog.Any("error", err))
			} else {
				d.Coordinates = &c
			}
		}
		doors = append(doors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doors: %w", err)
	}
	return doors, nil
}

// UpdateCoordinates stores a position and, when given, a neighborhood.
func (r *PostgresRepository) UpdateCoordinates(ctx context.Context, id uuid.UUID, coords types.Coordinates, neighborhood *string) error {
	start := time.Now()
	defer observe(ctx, "UpdateCoordinates", start)

	payload, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("failed to encode coordinates: %w", err)
	}

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE doors
        SET coordinates = $2, neighborhood = COALESCE($3, neighborhood)
        WHERE id = $1
    `
	tag, err := tx.Exec(ctx, query, id, string(payload), neighborhood)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "UpdateCoordinates")))
		return fmt.Errorf("failed to update door coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoorNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateNeighborhood(ctx context.Context, id uuid.UUID, neighborhood string) error {
	start := time.Now()
	defer observe(ctx, "UpdateNeighborhood", start)

	tag, err := r.pgpool.Exec(ctx, `UPDATE doors SET neighborhood = $2 WHERE id = $1`, id, neighborhood)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "UpdateNeighborhood")))
		return fmt.Errorf("failed to update door neighborhood: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoorNotFound
	}
	return nil
}

func observe(ctx context.Context, op string, start time.Time) {
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("op", op)))
}
