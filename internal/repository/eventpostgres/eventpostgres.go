package eventpostgres

import (
	"context"
	"fmt"
	"log"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func (p PostgresRepo) Create(ctx context.Context, e *model.UploadEvent) error {
	query := `INSERT INTO upload_events (draft_id, kind, url, idx, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`
	return p.DB.QueryRowContext(ctx, query, e.DraftID, e.Kind, e.URL, e.Index, e.CreatedAt).Scan(&e.ID)
}

// GetList - sort и order должны прийти уже провалидированными из сервиса
func (p PostgresRepo) GetList(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error) {
	query := fmt.Sprintf(`SELECT id, draft_id, kind, url, idx, created_at
	FROM upload_events
	WHERE draft_id = $1
	ORDER BY %s %s, id %s
	LIMIT $2
	OFFSET $3`, req.Sort, req.Order, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, draftID, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	events := make([]model.UploadEvent, 0, req.Limit)
	for rows.Next() {
		var e model.UploadEvent
		if err := rows.Scan(&e.ID,
			&e.DraftID,
			&e.Kind,
			&e.URL,
			&e.Index,
			&e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return events, nil
}
