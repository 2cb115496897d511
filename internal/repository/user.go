package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mr1hm/go-food-rescue/internal/models"
)

type userRow struct {
	ID                  string          `db:"id"`
	Name                string          `db:"name"`
	Role                string          `db:"role"`
	CompletedDeliveries int             `db:"completed_deliveries"`
	Rating              sql.NullFloat64 `db:"rating"`
	Version             int64           `db:"version"`
	CreatedAt           int64           `db:"created_at"`
}

type availabilityRow struct {
	UserID    string `db:"user_id"`
	Position  int    `db:"position"`
	Day       int    `db:"day"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
}

const userColumns = `id, name, role, completed_deliveries, rating, version, created_at`

func newUserRow(u *models.User) userRow {
	row := userRow{
		ID:                  u.ID,
		Name:                u.Name,
		Role:                string(u.Role),
		CompletedDeliveries: u.CompletedDeliveries,
		Version:             u.Version,
		CreatedAt:           toUnix(u.CreatedAt),
	}
	if u.Rating != nil {
		row.Rating = sql.NullFloat64{Float64: *u.Rating, Valid: true}
	}
	return row
}

func (r userRow) toModel() models.User {
	u := models.User{
		ID:                  r.ID,
		Name:                r.Name,
		Role:                models.Role(r.Role),
		CompletedDeliveries: r.CompletedDeliveries,
		Version:             r.Version,
		CreatedAt:           fromUnix(r.CreatedAt),
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		u.Rating = &rating
	}
	return u
}

func (r availabilityRow) toModel() models.Availability {
	return models.Availability{
		Day:       time.Weekday(r.Day),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

func (t *sqliteTx) AddUser(ctx context.Context, u *models.User) error {
	if u.Version == 0 {
		u.Version = 1
	}
	_, err := t.tx.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (
			:id, :name, :role, :completed_deliveries, :rating, :version, :created_at)`, newUserRow(u))
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return t.writeAvailability(ctx, u)
}

func (t *sqliteTx) writeAvailability(ctx context.Context, u *models.User) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM user_availability WHERE user_id = ?`, u.ID); err != nil {
		return fmt.Errorf("clearing availability: %w", err)
	}
	for i, a := range u.Availability {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO user_availability (user_id, position, day, start_time, end_time)
			 VALUES (?, ?, ?, ?, ?)`,
			u.ID, i, int(a.Day), a.StartTime, a.EndTime,
		)
		if err != nil {
			return fmt.Errorf("inserting availability: %w", err)
		}
	}
	return nil
}

func (t *sqliteTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var avail []availabilityRow
	err = t.tx.SelectContext(ctx, &avail,
		`SELECT user_id, position, day, start_time, end_time
		 FROM user_availability WHERE user_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading availability: %w", err)
	}

	u := row.toModel()
	for _, a := range avail {
		u.Availability = append(u.Availability, a.toModel())
	}
	return &u, nil
}

// ListUsers returns users in insertion order, which is the order the
// availability matcher walks candidates in.
func (t *sqliteTx) ListUsers(ctx context.Context, opts UserFilter) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	availQuery := `SELECT ua.user_id, ua.position, ua.day, ua.start_time, ua.end_time
		FROM user_availability ua JOIN users u ON u.id = ua.user_id WHERE 1=1`
	var args []any

	if opts.Role != nil {
		query += ` AND role = ?`
		availQuery += ` AND u.role = ?`
		args = append(args, string(*opts.Role))
	}
	query += ` ORDER BY rowid`
	availQuery += ` ORDER BY ua.user_id, ua.position`

	var rows []userRow
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var avail []availabilityRow
	if err := t.tx.SelectContext(ctx, &avail, availQuery, args...); err != nil {
		return nil, fmt.Errorf("listing availability: %w", err)
	}
	byUser := make(map[string][]models.Availability)
	for _, a := range avail {
		byUser[a.UserID] = append(byUser[a.UserID], a.toModel())
	}

	users := make([]models.User, len(rows))
	for i, r := range rows {
		users[i] = r.toModel()
		users[i].Availability = byUser[r.ID]
	}
	return users, nil
}

func (t *sqliteTx) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := t.tx.NamedExecContext(ctx,
		`UPDATE users SET
			name = :name, completed_deliveries = :completed_deliveries, rating = :rating,
			version = version + 1
		 WHERE id = :id AND version = :version`, newUserRow(u))
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if err := checkUpdated(res, "user "+u.ID); err != nil {
		return err
	}
	if err := t.writeAvailability(ctx, u); err != nil {
		return err
	}
	u.Version++
	return nil
}
