// Package tripgw is the Postgres implementation of the trip persistence
// gateway.
package tripgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Thepalm86/tripweaver/internal/adapters/postgres"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

// Gateway is a Postgres implementation of tripgw.Gateway. Sequence positions
// are materialized in a position column; every structural mutation runs in a
// transaction that leaves positions dense.
type Gateway struct {
	pool *pgxpool.Pool
}

func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

func (g *Gateway) GetTrip(ctx context.Context, id domain.TripID) (domain.Trip, error) {
	if g.pool == nil {
		return domain.Trip{}, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Trip{}, tripgw.ErrTripNotFound
	}

	var (
		t         domain.Trip
		startDate pgtype.Date
		endDate   pgtype.Date
	)
	err = g.pool.QueryRow(ctx, `
		SELECT id, name, start_date, end_date, country_codes
		FROM trips
		WHERE id = $1
	`, tripUUID).Scan(&tripUUID, &t.Name, &startDate, &endDate, &t.CountryCodes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, tripgw.ErrTripNotFound
		}
		return domain.Trip{}, err
	}
	t.ID = domain.TripID(tripUUID.String())
	t.StartDate = dateToTime(startDate)
	t.EndDate = dateToTime(endDate)

	t.Days, err = loadDays(ctx, g.pool, tripUUID)
	if err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}

func (g *Gateway) CreateTrip(ctx context.Context, t domain.Trip) (domain.TripID, error) {
	if g.pool == nil {
		return "", errors.New("nil postgres pool")
	}
	tripUUID := uuid.New()
	if t.ID != "" {
		parsed, err := uuid.Parse(string(t.ID))
		if err != nil {
			return "", fmt.Errorf("invalid trip id: %w", err)
		}
		tripUUID = parsed
	}

	err := pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO trips (id, name, start_date, end_date, country_codes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, tripUUID, t.Name, dateOf(t.StartDate), dateOf(t.EndDate), t.CountryCodes)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return tripgw.ErrAlreadyExists
			}
			return err
		}
		for pos, day := range t.Days {
			dayUUID := uuid.New()
			if _, err := tx.Exec(ctx, `
				INSERT INTO trip_days (id, trip_id, day_date, position)
				VALUES ($1, $2, $3, $4)
			`, dayUUID, tripUUID, dateOf(day.Date), pos); err != nil {
				return err
			}
			for dpos, d := range day.Destinations {
				if err := insertDestination(ctx, tx, dayUUID, dpos, d, uuid.New()); err != nil {
					return err
				}
			}
			for bpos, b := range day.BaseLocations {
				if err := insertBase(ctx, tx, dayUUID, bpos, b); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return domain.TripID(tripUUID.String()), nil
}

func (g *Gateway) UpdateTrip(ctx context.Context, id domain.TripID, patch tripgw.TripPatch) error {
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return tripgw.ErrTripNotFound
	}
	tag, err := g.pool.Exec(ctx, `
		UPDATE trips
		SET name = COALESCE($2, name),
		    country_codes = COALESCE($3, country_codes),
		    updated_at = now()
		WHERE id = $1
	`, tripUUID, patch.Name, patch.CountryCodes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tripgw.ErrTripNotFound
	}
	return nil
}

func (g *Gateway) AddDestinationToDay(ctx context.Context, dayID domain.DayID, d domain.Destination) (domain.Destination, error) {
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return domain.Destination{}, tripgw.ErrDayNotFound
	}
	if d.Category == "" {
		d.Category = domain.CategoryAttraction
	}
	destUUID := uuid.New()

	err = pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var pos int
		err := tx.QueryRow(ctx, `
			SELECT count(*) FROM destinations WHERE day_id = $1
		`, dayUUID).Scan(&pos)
		if err != nil {
			return err
		}
		if err := insertDestination(ctx, tx, dayUUID, pos, d, destUUID); err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return tripgw.ErrDayNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Destination{}, err
	}
	d.ID = domain.DestinationID(destUUID.String())
	return domain.CloneDestination(d), nil
}

func (g *Gateway) UpdateDestination(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	destUUID, err := uuid.Parse(string(d.ID))
	if err != nil {
		return domain.Destination{}, tripgw.ErrDestinationNotFound
	}
	if d.Category == "" {
		d.Category = domain.CategoryAttraction
	}
	links, err := marshalLinks(d.Links)
	if err != nil {
		return domain.Destination{}, err
	}
	tag, err := g.pool.Exec(ctx, `
		UPDATE destinations
		SET name = $2, description = $3, longitude = $4, latitude = $5,
		    city = $6, category = $7, rating = $8, duration_hours = $9,
		    cost = $10, notes = $11, links = $12
		WHERE id = $1
	`, destUUID, d.Name, d.Description, d.Coord.Lng, d.Coord.Lat,
		d.City, string(d.Category), d.Rating, d.DurationHours,
		d.Cost, d.Notes, links)
	if err != nil {
		return domain.Destination{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Destination{}, tripgw.ErrDestinationNotFound
	}
	return domain.CloneDestination(d), nil
}

func (g *Gateway) RemoveDestinationFromDay(ctx context.Context, id domain.DestinationID) error {
	destUUID, err := uuid.Parse(string(id))
	if err != nil {
		return tripgw.ErrDestinationNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var dayUUID uuid.UUID
		err := tx.QueryRow(ctx, `
			DELETE FROM destinations WHERE id = $1 RETURNING day_id
		`, destUUID).Scan(&dayUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tripgw.ErrDestinationNotFound
			}
			return err
		}
		return compactDestinationPositions(ctx, tx, dayUUID)
	})
}

func (g *Gateway) MoveDestination(ctx context.Context, id domain.DestinationID, toDayID domain.DayID) error {
	destUUID, err := uuid.Parse(string(id))
	if err != nil {
		return tripgw.ErrDestinationNotFound
	}
	toDayUUID, err := uuid.Parse(string(toDayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var fromDayUUID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT day_id FROM destinations WHERE id = $1
		`, destUUID).Scan(&fromDayUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tripgw.ErrDestinationNotFound
			}
			return err
		}
		// Append to the target; the caller re-persists exact order next.
		_, err = tx.Exec(ctx, `
			UPDATE destinations
			SET day_id = $2,
			    position = (SELECT count(*) FROM destinations WHERE day_id = $2)
			WHERE id = $1
		`, destUUID, toDayUUID)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return tripgw.ErrDayNotFound
			}
			return err
		}
		return compactDestinationPositions(ctx, tx, fromDayUUID)
	})
}

func (g *Gateway) ReorderDestinations(ctx context.Context, dayID domain.DayID, orderedIDs []domain.DestinationID) error {
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		for pos, id := range orderedIDs {
			destUUID, err := uuid.Parse(string(id))
			if err != nil {
				return tripgw.ErrDestinationNotFound
			}
			tag, err := tx.Exec(ctx, `
				UPDATE destinations SET position = $3
				WHERE id = $1 AND day_id = $2
			`, destUUID, dayUUID, pos)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return tripgw.ErrDestinationNotFound
			}
		}
		return nil
	})
}

func (g *Gateway) AddBaseLocation(ctx context.Context, dayID domain.DayID, b domain.BaseLocation) error {
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var pos int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM base_locations WHERE day_id = $1
		`, dayUUID).Scan(&pos); err != nil {
			return err
		}
		if err := insertBaseAt(ctx, tx, dayUUID, pos, b); err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return tripgw.ErrDayNotFound
			}
			return err
		}
		return nil
	})
}

func (g *Gateway) RemoveBaseLocation(ctx context.Context, dayID domain.DayID, index int) error {
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM base_locations WHERE day_id = $1 AND position = $2
		`, dayUUID, index)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tripgw.ErrBaseIndexOutOfRange
		}
		_, err = tx.Exec(ctx, `
			UPDATE base_locations SET position = position - 1
			WHERE day_id = $1 AND position > $2
		`, dayUUID, index)
		return err
	})
}

func (g *Gateway) UpdateBaseLocation(ctx context.Context, dayID domain.DayID, index int, b domain.BaseLocation) error {
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	links, err := marshalLinks(b.Links)
	if err != nil {
		return err
	}
	tag, err := g.pool.Exec(ctx, `
		UPDATE base_locations
		SET name = $3, longitude = $4, latitude = $5, context_label = $6,
		    city = $7, notes = $8, links = $9
		WHERE day_id = $1 AND position = $2
	`, dayUUID, index, b.Name, b.Coord.Lng, b.Coord.Lat, b.Context, b.City, b.Notes, links)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tripgw.ErrBaseIndexOutOfRange
	}
	return nil
}

func (g *Gateway) ReorderBaseLocations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error {
	if fromIndex == toIndex {
		return nil
	}
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM base_locations WHERE day_id = $1
		`, dayUUID).Scan(&n); err != nil {
			return err
		}
		if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
			return tripgw.ErrBaseIndexOutOfRange
		}
		// Park the moving row outside the dense range, shift the gap closed,
		// then land it at the target position.
		if _, err := tx.Exec(ctx, `
			UPDATE base_locations SET position = -1 WHERE day_id = $1 AND position = $2
		`, dayUUID, fromIndex); err != nil {
			return err
		}
		if fromIndex < toIndex {
			if _, err := tx.Exec(ctx, `
				UPDATE base_locations SET position = position - 1
				WHERE day_id = $1 AND position > $2 AND position <= $3
			`, dayUUID, fromIndex, toIndex); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE base_locations SET position = position + 1
				WHERE day_id = $1 AND position >= $3 AND position < $2
			`, dayUUID, fromIndex, toIndex); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			UPDATE base_locations SET position = $2 WHERE day_id = $1 AND position = -1
		`, dayUUID, toIndex)
		return err
	})
}

func (g *Gateway) AddDay(ctx context.Context, tripID domain.TripID, date time.Time) (domain.Day, error) {
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return domain.Day{}, tripgw.ErrTripNotFound
	}
	dayUUID := uuid.New()
	day := domain.Day{
		ID:            domain.DayID(dayUUID.String()),
		Date:          domain.DateOnly(date),
		Destinations:  []domain.Destination{},
		BaseLocations: []domain.BaseLocation{},
	}

	err = pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var pos int
		err := tx.QueryRow(ctx, `
			SELECT count(*) FROM trip_days WHERE trip_id = $1
		`, tripUUID).Scan(&pos)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO trip_days (id, trip_id, day_date, position)
			VALUES ($1, $2, $3, $4)
		`, dayUUID, tripUUID, dateOf(day.Date), pos); err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return tripgw.ErrTripNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE trips SET end_date = GREATEST(end_date, $2), updated_at = now()
			WHERE id = $1
		`, tripUUID, dateOf(day.Date))
		return err
	})
	if err != nil {
		return domain.Day{}, err
	}
	return day, nil
}

func (g *Gateway) DuplicateDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) (domain.Day, error) {
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return domain.Day{}, tripgw.ErrTripNotFound
	}
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return domain.Day{}, tripgw.ErrDayNotFound
	}

	var clone domain.Day
	err = pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		var srcPos int
		err := tx.QueryRow(ctx, `
			SELECT position FROM trip_days WHERE id = $1 AND trip_id = $2
		`, dayUUID, tripUUID).Scan(&srcPos)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tripgw.ErrDayNotFound
			}
			return err
		}

		src, err := loadDay(ctx, tx, dayUUID)
		if err != nil {
			return err
		}

		// Open a slot right after the source.
		if _, err := tx.Exec(ctx, `
			UPDATE trip_days SET position = position + 1
			WHERE trip_id = $1 AND position > $2
		`, tripUUID, srcPos); err != nil {
			return err
		}

		cloneUUID := uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO trip_days (id, trip_id, day_date, position)
			VALUES ($1, $2, $3, $4)
		`, cloneUUID, tripUUID, dateOf(src.Date), srcPos+1); err != nil {
			return err
		}

		clone = domain.CloneDay(src)
		clone.ID = domain.DayID(cloneUUID.String())
		for i := range clone.Destinations {
			destUUID := uuid.New()
			clone.Destinations[i].ID = domain.DestinationID(destUUID.String())
			for j := range clone.Destinations[i].Links {
				clone.Destinations[i].Links[j].ID = domain.LinkID(uuid.NewString())
			}
			if err := insertDestination(ctx, tx, cloneUUID, i, clone.Destinations[i], destUUID); err != nil {
				return err
			}
		}
		for i := range clone.BaseLocations {
			for j := range clone.BaseLocations[i].Links {
				clone.BaseLocations[i].Links[j].ID = domain.LinkID(uuid.NewString())
			}
			if err := insertBase(ctx, tx, cloneUUID, i, clone.BaseLocations[i]); err != nil {
				return err
			}
		}
		return reflowDayDates(ctx, tx, tripUUID)
	})
	if err != nil {
		return domain.Day{}, err
	}

	// Report the clone with its reflowed date.
	fresh, err := g.GetTrip(ctx, tripID)
	if err != nil {
		return clone, nil
	}
	if d := fresh.DayByID(clone.ID); d != nil {
		return domain.CloneDay(*d), nil
	}
	return clone, nil
}

func (g *Gateway) RemoveDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) error {
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return tripgw.ErrTripNotFound
	}
	dayUUID, err := uuid.Parse(string(dayID))
	if err != nil {
		return tripgw.ErrDayNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM trip_days WHERE id = $1 AND trip_id = $2
		`, dayUUID, tripUUID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tripgw.ErrDayNotFound
		}
		if _, err := tx.Exec(ctx, `
			WITH ranked AS (
				SELECT id, row_number() OVER (ORDER BY position) - 1 AS new_pos
				FROM trip_days WHERE trip_id = $1
			)
			UPDATE trip_days d SET position = r.new_pos
			FROM ranked r WHERE d.id = r.id
		`, tripUUID); err != nil {
			return err
		}
		return reflowDayDates(ctx, tx, tripUUID)
	})
}

func (g *Gateway) UpdateTripDates(ctx context.Context, tripID domain.TripID, start, end time.Time) error {
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return tripgw.ErrTripNotFound
	}
	return pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE trips SET start_date = $2, end_date = $3, updated_at = now()
			WHERE id = $1
		`, tripUUID, dateOf(domain.DateOnly(start)), dateOf(domain.DateOnly(end)))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tripgw.ErrTripNotFound
		}
		return reflowDayDates(ctx, tx, tripUUID)
	})
}

// --- helpers ---

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadDays(ctx context.Context, q querier, tripUUID uuid.UUID) ([]domain.Day, error) {
	rows, err := q.Query(ctx, `
		SELECT id, day_date FROM trip_days
		WHERE trip_id = $1
		ORDER BY position ASC
	`, tripUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]domain.Day, 0)
	var dayUUIDs []uuid.UUID
	for rows.Next() {
		var (
			dayUUID uuid.UUID
			date    pgtype.Date
		)
		if err := rows.Scan(&dayUUID, &date); err != nil {
			return nil, err
		}
		days = append(days, domain.Day{
			ID:            domain.DayID(dayUUID.String()),
			Date:          dateToTime(date),
			Destinations:  []domain.Destination{},
			BaseLocations: []domain.BaseLocation{},
		})
		dayUUIDs = append(dayUUIDs, dayUUID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, dayUUID := range dayUUIDs {
		dests, err := loadDestinations(ctx, q, dayUUID)
		if err != nil {
			return nil, err
		}
		bases, err := loadBases(ctx, q, dayUUID)
		if err != nil {
			return nil, err
		}
		days[i].Destinations = dests
		days[i].BaseLocations = bases
	}
	return days, nil
}

func loadDay(ctx context.Context, q querier, dayUUID uuid.UUID) (domain.Day, error) {
	dests, err := loadDestinations(ctx, q, dayUUID)
	if err != nil {
		return domain.Day{}, err
	}
	bases, err := loadBases(ctx, q, dayUUID)
	if err != nil {
		return domain.Day{}, err
	}
	return domain.Day{
		ID:            domain.DayID(dayUUID.String()),
		Destinations:  dests,
		BaseLocations: bases,
	}, nil
}

func loadDestinations(ctx context.Context, q querier, dayUUID uuid.UUID) ([]domain.Destination, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, description, longitude, latitude, city, category,
		       rating, duration_hours, cost, notes, links
		FROM destinations
		WHERE day_id = $1
		ORDER BY position ASC
	`, dayUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Destination, 0)
	for rows.Next() {
		var (
			d        domain.Destination
			destUUID uuid.UUID
			category string
			links    []byte
		)
		if err := rows.Scan(&destUUID, &d.Name, &d.Description, &d.Coord.Lng, &d.Coord.Lat,
			&d.City, &category, &d.Rating, &d.DurationHours, &d.Cost, &d.Notes, &links); err != nil {
			return nil, err
		}
		d.ID = domain.DestinationID(destUUID.String())
		d.Category = domain.Category(category)
		if d.Links, err = unmarshalLinks(links); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func loadBases(ctx context.Context, q querier, dayUUID uuid.UUID) ([]domain.BaseLocation, error) {
	rows, err := q.Query(ctx, `
		SELECT name, longitude, latitude, context_label, city, notes, links
		FROM base_locations
		WHERE day_id = $1
		ORDER BY position ASC
	`, dayUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.BaseLocation, 0)
	for rows.Next() {
		var (
			b     domain.BaseLocation
			links []byte
		)
		if err := rows.Scan(&b.Name, &b.Coord.Lng, &b.Coord.Lat, &b.Context, &b.City, &b.Notes, &links); err != nil {
			return nil, err
		}
		if b.Links, err = unmarshalLinks(links); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func insertDestination(ctx context.Context, tx pgx.Tx, dayUUID uuid.UUID, pos int, d domain.Destination, destUUID uuid.UUID) error {
	links, err := marshalLinks(d.Links)
	if err != nil {
		return err
	}
	category := d.Category
	if category == "" {
		category = domain.CategoryAttraction
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO destinations (
			id, day_id, position, name, description, longitude, latitude,
			city, category, rating, duration_hours, cost, notes, links
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, destUUID, dayUUID, pos, d.Name, d.Description, d.Coord.Lng, d.Coord.Lat,
		d.City, string(category), d.Rating, d.DurationHours, d.Cost, d.Notes, links)
	return err
}

func insertBase(ctx context.Context, tx pgx.Tx, dayUUID uuid.UUID, pos int, b domain.BaseLocation) error {
	return insertBaseAt(ctx, tx, dayUUID, pos, b)
}

func insertBaseAt(ctx context.Context, tx pgx.Tx, dayUUID uuid.UUID, pos int, b domain.BaseLocation) error {
	links, err := marshalLinks(b.Links)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO base_locations (day_id, position, name, longitude, latitude, context_label, city, notes, links)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, dayUUID, pos, b.Name, b.Coord.Lng, b.Coord.Lat, b.Context, b.City, b.Notes, links)
	return err
}

func compactDestinationPositions(ctx context.Context, tx pgx.Tx, dayUUID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		WITH ranked AS (
			SELECT id, row_number() OVER (ORDER BY position) - 1 AS new_pos
			FROM destinations WHERE day_id = $1
		)
		UPDATE destinations d SET position = r.new_pos
		FROM ranked r WHERE d.id = r.id
	`, dayUUID)
	return err
}

// reflowDayDates reassigns contiguous dates from the trip start by day
// position and keeps end_date in step with the day count.
func reflowDayDates(ctx context.Context, tx pgx.Tx, tripUUID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `
		UPDATE trip_days d
		SET day_date = t.start_date + d.position
		FROM trips t
		WHERE t.id = $1 AND d.trip_id = t.id
	`, tripUUID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE trips t
		SET end_date = COALESCE(
			(SELECT max(day_date) FROM trip_days WHERE trip_id = t.id),
			t.end_date
		),
		updated_at = now()
		WHERE t.id = $1
	`, tripUUID)
	return err
}

func marshalLinks(links []domain.Link) ([]byte, error) {
	if len(links) == 0 {
		return []byte("[]"), nil
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("marshal links: %w", err)
	}
	return raw, nil
}

func unmarshalLinks(raw []byte) ([]domain.Link, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var links []domain.Link
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("unmarshal links: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	return links, nil
}

func dateOf(t time.Time) pgtype.Date {
	tt := domain.DateOnly(t)
	return pgtype.Date{Time: tt, Valid: true}
}

func dateToTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}
