package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type deliveryRow struct {
	ID                    string        `db:"id"`
	FoodID                string        `db:"food_id"`
	VolunteerID           string        `db:"volunteer_id"`
	ShelterID             string        `db:"shelter_id"`
	Status                string        `db:"status"`
	PickupTime            int64         `db:"pickup_time"`
	EstimatedDeliveryTime int64         `db:"estimated_delivery_time"`
	ActualDeliveryTime    sql.NullInt64 `db:"actual_delivery_time"`
	Notes                 string        `db:"notes"`
	Rating                sql.NullInt64 `db:"rating"`
	Feedback              string        `db:"feedback"`
	Version               int64         `db:"version"`
	CreatedAt             int64         `db:"created_at"`
	UpdatedAt             int64         `db:"updated_at"`
}

const deliveryColumns = `id, food_id, volunteer_id, shelter_id, status, pickup_time,
	estimated_delivery_time, actual_delivery_time, notes, rating, feedback, version,
	created_at, updated_at`

func newDeliveryRow(d *models.Delivery) deliveryRow {
	row := deliveryRow{
		ID:                    d.ID,
		FoodID:                d.FoodID,
		VolunteerID:           d.VolunteerID,
		ShelterID:             d.ShelterID,
		Status:                string(d.Status),
		PickupTime:            toUnix(d.PickupTime),
		EstimatedDeliveryTime: toUnix(d.EstimatedDeliveryTime),
		Notes:                 d.Notes,
		Feedback:              d.Feedback,
		Version:               d.Version,
		CreatedAt:             toUnix(d.CreatedAt),
		UpdatedAt:             toUnix(d.UpdatedAt),
	}
	if d.ActualDeliveryTime != nil {
		row.ActualDeliveryTime = sql.NullInt64{Int64: toUnix(*d.ActualDeliveryTime), Valid: true}
	}
	if d.Rating != nil {
		row.Rating = sql.NullInt64{Int64: int64(*d.Rating), Valid: true}
	}
	return row
}

func (r deliveryRow) toModel() models.Delivery {
	d := models.Delivery{
		ID:                    r.ID,
		FoodID:                r.FoodID,
		VolunteerID:           r.VolunteerID,
		ShelterID:             r.ShelterID,
		Status:                models.DeliveryStatus(r.Status),
		PickupTime:            fromUnix(r.PickupTime),
		EstimatedDeliveryTime: fromUnix(r.EstimatedDeliveryTime),
		Notes:                 r.Notes,
		Feedback:              r.Feedback,
		Version:               r.Version,
		CreatedAt:             fromUnix(r.CreatedAt),
		UpdatedAt:             fromUnix(r.UpdatedAt),
	}
	if r.ActualDeliveryTime.Valid {
		t := fromUnix(r.ActualDeliveryTime.Int64)
		d.ActualDeliveryTime = &t
	}
	if r.Rating.Valid {
		rating := int(r.Rating.Int64)
		d.Rating = &rating
	}
	return d
}

func (t *sqliteTx) AddDelivery(ctx context.Context, d *models.Delivery) error {
	if d.Version == 0 {
		d.Version = 1
	}
	_, err := t.tx.NamedExecContext(ctx,
		`INSERT INTO deliveries (`+deliveryColumns+`) VALUES (
			:id, :food_id, :volunteer_id, :shelter_id, :status, :pickup_time,
			:estimated_delivery_time, :actual_delivery_time, :notes, :rating, :feedback,
			:version, :created_at, :updated_at)`, newDeliveryRow(d))
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	var row deliveryRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting delivery: %w", err)
	}
	d := row.toModel()
	return &d, nil
}

func (t *sqliteTx) ListDeliveries(ctx context.Context, opts DeliveryFilter) ([]models.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE 1=1`
	var args []any

	if opts.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*opts.Status))
	}
	if opts.FoodID != "" {
		query += ` AND food_id = ?`
		args = append(args, opts.FoodID)
	}
	if opts.VolunteerID != "" {
		query += ` AND volunteer_id = ?`
		args = append(args, opts.VolunteerID)
	}
	if opts.ShelterID != "" {
		query += ` AND shelter_id = ?`
		args = append(args, opts.ShelterID)
	}
	if opts.MinPickupTime != nil {
		query += ` AND pickup_time >= ?`
		args = append(args, toUnix(*opts.MinPickupTime))
	}
	if opts.MaxPickupTime != nil {
		query += ` AND pickup_time <= ?`
		args = append(args, toUnix(*opts.MaxPickupTime))
	}

	query += ` ORDER BY pickup_time ASC, rowid ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var rows []deliveryRow
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}

	deliveries := make([]models.Delivery, len(rows))
	for i, r := range rows {
		deliveries[i] = r.toModel()
	}
	return deliveries, nil
}

func (t *sqliteTx) UpdateDelivery(ctx context.Context, d *models.Delivery) error {
	res, err := t.tx.NamedExecContext(ctx,
		`UPDATE deliveries SET
			status = :status, actual_delivery_time = :actual_delivery_time, notes = :notes,
			rating = :rating, feedback = :feedback, updated_at = :updated_at,
			version = version + 1
		 WHERE id = :id AND version = :version`, newDeliveryRow(d))
	if err != nil {
		return fmt.Errorf("updating delivery: %w", err)
	}
	if err := checkUpdated(res, "delivery "+d.ID); err != nil {
		return err
	}
	d.Version++
	return nil
}

// VolunteerRatings returns every rating recorded on the volunteer's deliveries.
func (t *sqliteTx) VolunteerRatings(ctx context.Context, volunteerID string) ([]int, error) {
	var ratings []int
	err := t.tx.SelectContext(ctx, &ratings,
		`SELECT rating FROM deliveries WHERE volunteer_id = ? AND rating IS NOT NULL ORDER BY rowid`,
		volunteerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing volunteer ratings: %w", err)
	}
	return ratings, nil
}
