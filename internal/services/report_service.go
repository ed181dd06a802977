package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/realtimemaps-be/internal/database"
	"github.com/isdelr/realtimemaps-be/internal/models"
)

// ReportServiceProvider defines the interface for route report services.
type ReportServiceProvider interface {
	SaveReport(ctx context.Context, ownerID *int64, payload models.ReportCreate) (models.RouteReport, error)
	ListByUser(ctx context.Context, userID int64) ([]models.RouteReport, error)
}

// ReportService persists route reports.
type ReportService struct {
	db  *database.DB
	now func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(db *database.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

const reportColumns = "id, user_id, type, description, lat, lng, ts, trust_score"

func scanReport(scanner rowScanner) (models.RouteReport, error) {
	var r models.RouteReport
	err := scanner.Scan(&r.ID, &r.UserID, &r.Type, &r.Description, &r.Lat, &r.Lng, &r.CreatedAt, &r.TrustScore)
	return r, err
}

// SaveReport inserts one report row unconditionally. trust_score starts at zero.
func (s *ReportService) SaveReport(ctx context.Context, ownerID *int64, payload models.ReportCreate) (models.RouteReport, error) {
	var report models.RouteReport
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		var id int64
		err := sess.QueryRowContext(ctx,
			"INSERT INTO route_reports (user_id, type, description, lat, lng, ts) VALUES (?, ?, ?, ?, ?, ?) RETURNING id",
			ownerID, payload.Type, payload.Description, *payload.Lat, *payload.Lng, s.now().UTC(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		report, err = scanReport(sess.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM route_reports WHERE id = ?", id))
		if err != nil {
			return fmt.Errorf("refresh report: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.RouteReport{}, err
	}
	return report, nil
}

// ListByUser returns the reports authored by userID, oldest first.
func (s *ReportService) ListByUser(ctx context.Context, userID int64) ([]models.RouteReport, error) {
	reports := []models.RouteReport{}
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		ok, err := userExists(ctx, sess, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		rows, err := sess.QueryContext(ctx, "SELECT "+reportColumns+" FROM route_reports WHERE user_id = ? ORDER BY id", userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanReport(rows)
			if err != nil {
				return err
			}
			reports = append(reports, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}
