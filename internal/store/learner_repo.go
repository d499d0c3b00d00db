package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type learnerRepo struct {
	db *sql.DB
}

func (r *learnerRepo) Get(ctx context.Context, id string) (*LearnerRecord, error) {
	rows, err := query(ctx, r.db, builder().
		Select(columnNames(LearnersColumns)...).
		From(entsql.Table(LearnersTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("query learner: %w", err)
	}
	defer rows.Close()

	recs, err := scanLearners(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *learnerRepo) Create(ctx context.Context, rec LearnerRecord) error {
	_, err := exec(ctx, r.db, builder().
		Insert(LearnersTable.Name).
		Columns(columnNames(LearnersColumns)...).
		Values(rec.ID, rec.Name, rec.FirstName, rec.Email, rec.ExpertiseTier,
			rec.Specialty, rec.Domain, rec.AppLevel, rec.RegisteredAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()))
	if err != nil {
		return fmt.Errorf("insert learner: %w", err)
	}
	return nil
}

func (r *learnerRepo) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	u := builder().Update(LearnersTable.Name).Where(entsql.EQ("id", id))
	changed := false
	set := func(col string, v *string) {
		if v != nil {
			u.Set(col, *v)
			changed = true
		}
	}
	set("expertise_tier", upd.ExpertiseTier)
	set("specialty", upd.Specialty)
	set("domain", upd.Domain)
	set("app_level", upd.AppLevel)
	if !changed {
		return nil
	}

	res, err := exec(ctx, r.db, u)
	if err != nil {
		return fmt.Errorf("update learner profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("learner %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *learnerRepo) List(ctx context.Context) ([]LearnerRecord, error) {
	rows, err := query(ctx, r.db, builder().
		Select(columnNames(LearnersColumns)...).
		From(entsql.Table(LearnersTable.Name)).
		OrderBy("registered_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("query learners: %w", err)
	}
	defer rows.Close()
	return scanLearners(rows)
}

func scanLearners(rows *sql.Rows) ([]LearnerRecord, error) {
	var recs []LearnerRecord
	for rows.Next() {
		var rec LearnerRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.FirstName, &rec.Email, &rec.ExpertiseTier,
			&rec.Specialty, &rec.Domain, &rec.AppLevel, &rec.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
