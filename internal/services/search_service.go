package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/realtimemaps-be/internal/database"
	"github.com/isdelr/realtimemaps-be/internal/models"
)

// SearchServiceProvider defines the interface for search history services.
type SearchServiceProvider interface {
	SaveSearch(ctx context.Context, ownerID *int64, payload models.SearchCreate) (models.SearchHistory, error)
	ListByUser(ctx context.Context, userID int64) ([]models.SearchHistory, error)
}

// SearchService persists map searches.
type SearchService struct {
	db  *database.DB
	now func() time.Time
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *database.DB) *SearchService {
	return &SearchService{db: db, now: time.Now}
}

const searchColumns = "id, user_id, query, lat, lng, ts"

func scanSearch(scanner rowScanner) (models.SearchHistory, error) {
	var rec models.SearchHistory
	err := scanner.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.Lat, &rec.Lng, &rec.CreatedAt)
	return rec, err
}

// SaveSearch inserts one search row unconditionally (no dedup). ownerID may be nil.
func (s *SearchService) SaveSearch(ctx context.Context, ownerID *int64, payload models.SearchCreate) (models.SearchHistory, error) {
	var rec models.SearchHistory
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		var id int64
		err := sess.QueryRowContext(ctx,
			"INSERT INTO search_history (user_id, query, lat, lng, ts) VALUES (?, ?, ?, ?, ?) RETURNING id",
			ownerID, payload.Query, *payload.Lat, *payload.Lng, s.now().UTC(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert search: %w", err)
		}

		rec, err = scanSearch(sess.QueryRowContext(ctx, "SELECT "+searchColumns+" FROM search_history WHERE id = ?", id))
		if err != nil {
			return fmt.Errorf("refresh search: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.SearchHistory{}, err
	}
	return rec, nil
}

// ListByUser returns the searches owned by userID, oldest first.
func (s *SearchService) ListByUser(ctx context.Context, userID int64) ([]models.SearchHistory, error) {
	searches := []models.SearchHistory{}
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		ok, err := userExists(ctx, sess, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		rows, err := sess.QueryContext(ctx, "SELECT "+searchColumns+" FROM search_history WHERE user_id = ? ORDER BY id", userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanSearch(rows)
			if err != nil {
				return err
			}
			searches = append(searches, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return searches, nil
}
