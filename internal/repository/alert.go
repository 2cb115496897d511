package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type alertRow struct {
	ID          string  `db:"id"`
	ShelterID   string  `db:"shelter_id"`
	Title       string  `db:"title"`
	Description string  `db:"description"`
	Priority    string  `db:"priority"`
	Latitude    float64 `db:"latitude"`
	Longitude   float64 `db:"longitude"`
	Address     string  `db:"address"`
	Deadline    int64   `db:"deadline"`
	Status      string  `db:"status"`
	Version     int64   `db:"version"`
	CreatedAt   int64   `db:"created_at"`
	UpdatedAt   int64   `db:"updated_at"`
}

type foodNeedRow struct {
	AlertID  string `db:"alert_id"`
	Position int    `db:"position"`
	Category string `db:"category"`
	Quantity int    `db:"quantity"`
	Unit     string `db:"unit"`
	Urgency  string `db:"urgency"`
}

type responseRow struct {
	AlertID      string `db:"alert_id"`
	Position     int    `db:"position"`
	DonorID      string `db:"donor_id"`
	FoodID       string `db:"food_id"`
	Status       string `db:"status"`
	ResponseTime int64  `db:"response_time"`
}

const alertColumns = `id, shelter_id, title, description, priority, latitude, longitude,
	address, deadline, status, version, created_at, updated_at`

func newAlertRow(a *models.EmergencyAlert) alertRow {
	return alertRow{
		ID:          a.ID,
		ShelterID:   a.ShelterID,
		Title:       a.Title,
		Description: a.Description,
		Priority:    string(a.Priority),
		Latitude:    a.Location.Latitude,
		Longitude:   a.Location.Longitude,
		Address:     a.Location.Address,
		Deadline:    toUnix(a.Deadline),
		Status:      string(a.Status),
		Version:     a.Version,
		CreatedAt:   toUnix(a.CreatedAt),
		UpdatedAt:   toUnix(a.UpdatedAt),
	}
}

func (r alertRow) toModel() models.EmergencyAlert {
	return models.EmergencyAlert{
		ID:          r.ID,
		ShelterID:   r.ShelterID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    models.AlertPriority(r.Priority),
		Location: models.Location{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Address:   r.Address,
		},
		Deadline:  fromUnix(r.Deadline),
		Status:    models.AlertStatus(r.Status),
		FoodNeeds: []models.FoodNeed{},
		Responses: []models.AlertResponse{},
		Version:   r.Version,
		CreatedAt: fromUnix(r.CreatedAt),
		UpdatedAt: fromUnix(r.UpdatedAt),
	}
}

func (t *sqliteTx) AddAlert(ctx context.Context, a *models.EmergencyAlert) error {
	if a.Version == 0 {
		a.Version = 1
	}
	_, err := t.tx.NamedExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES (
			:id, :shelter_id, :title, :description, :priority, :latitude, :longitude,
			:address, :deadline, :status, :version, :created_at, :updated_at)`, newAlertRow(a))
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}

	for i, n := range a.FoodNeeds {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO alert_food_needs (alert_id, position, category, quantity, unit, urgency)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, i, string(n.Category), n.Quantity, string(n.Unit), string(n.Urgency),
		)
		if err != nil {
			return fmt.Errorf("inserting alert food need: %w", err)
		}
	}
	for _, r := range a.Responses {
		if err := t.AppendResponse(ctx, a.ID, r); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqliteTx) GetAlert(ctx context.Context, id string) (*models.EmergencyAlert, error) {
	var row alertRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting alert: %w", err)
	}
	a := row.toModel()
	if err := t.loadAlertChildren(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *sqliteTx) loadAlertChildren(ctx context.Context, a *models.EmergencyAlert) error {
	var needs []foodNeedRow
	err := t.tx.SelectContext(ctx, &needs,
		`SELECT alert_id, position, category, quantity, unit, urgency
		 FROM alert_food_needs WHERE alert_id = ? ORDER BY position`, a.ID)
	if err != nil {
		return fmt.Errorf("loading alert food needs: %w", err)
	}
	for _, n := range needs {
		a.FoodNeeds = append(a.FoodNeeds, models.FoodNeed{
			Category: models.Category(n.Category),
			Quantity: n.Quantity,
			Unit:     models.Unit(n.Unit),
			Urgency:  models.Urgency(n.Urgency),
		})
	}

	var responses []responseRow
	err = t.tx.SelectContext(ctx, &responses,
		`SELECT alert_id, position, donor_id, food_id, status, response_time
		 FROM alert_responses WHERE alert_id = ? ORDER BY position`, a.ID)
	if err != nil {
		return fmt.Errorf("loading alert responses: %w", err)
	}
	for _, r := range responses {
		a.Responses = append(a.Responses, models.AlertResponse{
			DonorID:      r.DonorID,
			FoodID:       r.FoodID,
			Status:       models.ResponseStatus(r.Status),
			ResponseTime: fromUnix(r.ResponseTime),
		})
	}
	return nil
}

func (t *sqliteTx) ListAlerts(ctx context.Context, opts AlertFilter) ([]models.EmergencyAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts a WHERE 1=1`
	var args []any

	if opts.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*opts.Status))
	}
	if opts.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, string(*opts.Priority))
	}
	if opts.Category != nil {
		query += ` AND EXISTS (SELECT 1 FROM alert_food_needs n WHERE n.alert_id = a.id AND n.category = ?)`
		args = append(args, string(*opts.Category))
	}
	if opts.DeadlineAfter != nil {
		query += ` AND deadline > ?`
		args = append(args, toUnix(*opts.DeadlineAfter))
	}
	if opts.MinDeadline != nil {
		query += ` AND deadline >= ?`
		args = append(args, toUnix(*opts.MinDeadline))
	}
	if opts.MaxDeadline != nil {
		query += ` AND deadline <= ?`
		args = append(args, toUnix(*opts.MaxDeadline))
	}
	if opts.Near != nil {
		minLat, maxLat, minLng, maxLng := opts.Near.Bounds()
		query += ` AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`
		args = append(args, minLat, maxLat, minLng, maxLng)
	}

	query += ` ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
		deadline ASC, rowid ASC`
	if opts.Limit > 0 && opts.Near == nil {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var rows []alertRow
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}

	alerts := make([]models.EmergencyAlert, 0, len(rows))
	for _, r := range rows {
		a := r.toModel()
		if opts.Near != nil && !opts.Near.Contains(a.Location) {
			continue
		}
		if err := t.loadAlertChildren(ctx, &a); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
		if opts.Limit > 0 && len(alerts) == opts.Limit {
			break
		}
	}
	return alerts, nil
}

// UpdateAlert writes the alert's mutable fields. Food needs are fixed at
// creation and responses are written through AppendResponse.
func (t *sqliteTx) UpdateAlert(ctx context.Context, a *models.EmergencyAlert) error {
	res, err := t.tx.NamedExecContext(ctx,
		`UPDATE alerts SET
			title = :title, description = :description, priority = :priority,
			status = :status, updated_at = :updated_at, version = version + 1
		 WHERE id = :id AND version = :version`, newAlertRow(a))
	if err != nil {
		return fmt.Errorf("updating alert: %w", err)
	}
	if err := checkUpdated(res, "alert "+a.ID); err != nil {
		return err
	}
	a.Version++
	return nil
}

func (t *sqliteTx) AppendResponse(ctx context.Context, alertID string, r models.AlertResponse) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO alert_responses (alert_id, position, donor_id, food_id, status, response_time)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM alert_responses WHERE alert_id = ?), ?, ?, ?, ?)`,
		alertID, alertID, r.DonorID, r.FoodID, string(r.Status), toUnix(r.ResponseTime),
	)
	if err != nil {
		return fmt.Errorf("inserting alert response: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteAlert(ctx context.Context, id string) (bool, error) {
	for _, q := range []string{
		`DELETE FROM alert_responses WHERE alert_id = ?`,
		`DELETE FROM alert_food_needs WHERE alert_id = ?`,
	} {
		if _, err := t.tx.ExecContext(ctx, q, id); err != nil {
			return false, fmt.Errorf("deleting alert children: %w", err)
		}
	}

	res, err := t.tx.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting alert: %w", err)
	}
	return n > 0, nil
}
