package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type foodRow struct {
	ID                  string         `db:"id"`
	DonorID             string         `db:"donor_id"`
	Title               string         `db:"title"`
	Description         string         `db:"description"`
	Quantity            int            `db:"quantity"`
	Unit                string         `db:"unit"`
	Category            string         `db:"category"`
	ExpiryDate          int64          `db:"expiry_date"`
	PickupStart         int64          `db:"pickup_start"`
	PickupEnd           int64          `db:"pickup_end"`
	Latitude            float64        `db:"latitude"`
	Longitude           float64        `db:"longitude"`
	Address             string         `db:"address"`
	Status              string         `db:"status"`
	Allergens           string         `db:"allergens"`
	DietaryRestrictions string         `db:"dietary_restrictions"`
	MatchedShelterID    sql.NullString `db:"matched_shelter_id"`
	AssignedVolunteerID sql.NullString `db:"assigned_volunteer_id"`
	Version             int64          `db:"version"`
	CreatedAt           int64          `db:"created_at"`
	UpdatedAt           int64          `db:"updated_at"`
}

const foodColumns = `id, donor_id, title, description, quantity, unit, category, expiry_date,
	pickup_start, pickup_end, latitude, longitude, address, status, allergens,
	dietary_restrictions, matched_shelter_id, assigned_volunteer_id, version, created_at, updated_at`

func newFoodRow(f *models.Food) (foodRow, error) {
	allergens, err := json.Marshal(nonNil(f.Allergens))
	if err != nil {
		return foodRow{}, fmt.Errorf("encoding allergens: %w", err)
	}
	dietary, err := json.Marshal(nonNil(f.DietaryRestrictions))
	if err != nil {
		return foodRow{}, fmt.Errorf("encoding dietary restrictions: %w", err)
	}
	return foodRow{
		ID:                  f.ID,
		DonorID:             f.DonorID,
		Title:               f.Title,
		Description:         f.Description,
		Quantity:            f.Quantity,
		Unit:                string(f.Unit),
		Category:            string(f.Category),
		ExpiryDate:          toUnix(f.ExpiryDate),
		PickupStart:         toUnix(f.PickupTime.Start),
		PickupEnd:           toUnix(f.PickupTime.End),
		Latitude:            f.Location.Latitude,
		Longitude:           f.Location.Longitude,
		Address:             f.Location.Address,
		Status:              string(f.Status),
		Allergens:           string(allergens),
		DietaryRestrictions: string(dietary),
		MatchedShelterID:    nullString(f.MatchedShelterID),
		AssignedVolunteerID: nullString(f.AssignedVolunteerID),
		Version:             f.Version,
		CreatedAt:           toUnix(f.CreatedAt),
		UpdatedAt:           toUnix(f.UpdatedAt),
	}, nil
}

func (r foodRow) toModel() (models.Food, error) {
	f := models.Food{
		ID:          r.ID,
		DonorID:     r.DonorID,
		Title:       r.Title,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        models.Unit(r.Unit),
		Category:    models.Category(r.Category),
		ExpiryDate:  fromUnix(r.ExpiryDate),
		PickupTime: models.TimeWindow{
			Start: fromUnix(r.PickupStart),
			End:   fromUnix(r.PickupEnd),
		},
		Location: models.Location{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Address:   r.Address,
		},
		Status:              models.FoodStatus(r.Status),
		MatchedShelterID:    r.MatchedShelterID.String,
		AssignedVolunteerID: r.AssignedVolunteerID.String,
		Version:             r.Version,
		CreatedAt:           fromUnix(r.CreatedAt),
		UpdatedAt:           fromUnix(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.Allergens), &f.Allergens); err != nil {
		return f, fmt.Errorf("decoding allergens of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.DietaryRestrictions), &f.DietaryRestrictions); err != nil {
		return f, fmt.Errorf("decoding dietary restrictions of %s: %w", r.ID, err)
	}
	return f, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (t *sqliteTx) AddFood(ctx context.Context, f *models.Food) error {
	if f.Version == 0 {
		f.Version = 1
	}
	row, err := newFoodRow(f)
	if err != nil {
		return err
	}
	_, err = t.tx.NamedExecContext(ctx,
		`INSERT INTO foods (`+foodColumns+`) VALUES (
			:id, :donor_id, :title, :description, :quantity, :unit, :category, :expiry_date,
			:pickup_start, :pickup_end, :latitude, :longitude, :address, :status, :allergens,
			:dietary_restrictions, :matched_shelter_id, :assigned_volunteer_id, :version,
			:created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("inserting food: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetFood(ctx context.Context, id string) (*models.Food, error) {
	var row foodRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+foodColumns+` FROM foods WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting food: %w", err)
	}
	f, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (t *sqliteTx) ListFood(ctx context.Context, opts FoodFilter) ([]models.Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE 1=1`
	var args []any

	if opts.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*opts.Status))
	}
	if len(opts.Categories) > 0 {
		cats := make([]string, len(opts.Categories))
		for i, c := range opts.Categories {
			cats[i] = string(c)
		}
		query += ` AND category IN (?)`
		args = append(args, cats)
	}
	if opts.ExpiresAfter != nil {
		query += ` AND expiry_date > ?`
		args = append(args, toUnix(*opts.ExpiresAfter))
	}
	if opts.MinExpiry != nil {
		query += ` AND expiry_date >= ?`
		args = append(args, toUnix(*opts.MinExpiry))
	}
	if opts.MaxExpiry != nil {
		query += ` AND expiry_date <= ?`
		args = append(args, toUnix(*opts.MaxExpiry))
	}
	if opts.Near != nil {
		minLat, maxLat, minLng, maxLng := opts.Near.Bounds()
		query += ` AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`
		args = append(args, minLat, maxLat, minLng, maxLng)
	}

	query += ` ORDER BY created_at DESC, rowid DESC`
	if opts.Limit > 0 && opts.Near == nil {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("building food query: %w", err)
	}

	var rows []foodRow
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing food: %w", err)
	}

	foods := make([]models.Food, 0, len(rows))
	for _, r := range rows {
		f, err := r.toModel()
		if err != nil {
			return nil, err
		}
		if opts.Near != nil && !opts.Near.Contains(f.Location) {
			continue
		}
		foods = append(foods, f)
		if opts.Limit > 0 && len(foods) == opts.Limit {
			break
		}
	}
	return foods, nil
}

// UpdateFood writes f if its version still matches the stored one, then
// advances f.Version.
func (t *sqliteTx) UpdateFood(ctx context.Context, f *models.Food) error {
	row, err := newFoodRow(f)
	if err != nil {
		return err
	}
	res, err := t.tx.NamedExecContext(ctx,
		`UPDATE foods SET
			title = :title, description = :description, quantity = :quantity, unit = :unit,
			category = :category, expiry_date = :expiry_date, pickup_start = :pickup_start,
			pickup_end = :pickup_end, latitude = :latitude, longitude = :longitude,
			address = :address, status = :status, allergens = :allergens,
			dietary_restrictions = :dietary_restrictions,
			matched_shelter_id = :matched_shelter_id,
			assigned_volunteer_id = :assigned_volunteer_id,
			updated_at = :updated_at, version = version + 1
		 WHERE id = :id AND version = :version`, row)
	if err != nil {
		return fmt.Errorf("updating food: %w", err)
	}
	if err := checkUpdated(res, "food "+f.ID); err != nil {
		return err
	}
	f.Version++
	return nil
}

func (t *sqliteTx) DeleteFood(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM foods WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting food: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting food: %w", err)
	}
	return n > 0, nil
}

// ExpireFood marks available listings whose expiry is at or before now as
// expired and returns their ids.
func (t *sqliteTx) ExpireFood(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := t.tx.SelectContext(ctx, &ids,
		`SELECT id FROM foods WHERE status = ? AND expiry_date <= ? ORDER BY rowid`,
		string(models.FoodStatusAvailable), toUnix(now),
	)
	if err != nil {
		return nil, fmt.Errorf("finding expired food: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`UPDATE foods SET status = ?, updated_at = ?, version = version + 1 WHERE id IN (?)`,
		string(models.FoodStatusExpired), toUnix(now), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("building expiry update: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("expiring food: %w", err)
	}
	return ids, nil
}
