package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const catalogVersionKey = "catalog_version"

type caseRepo struct {
	db *sql.DB
}

func (r *caseRepo) List(ctx context.Context) ([]CaseRecord, error) {
	return r.list(ctx, nil)
}

func (r *caseRepo) ListByDifficulty(ctx context.Context, difficulty string) ([]CaseRecord, error) {
	return r.list(ctx, entsql.EQ("difficulty", difficulty))
}

func (r *caseRepo) Get(ctx context.Context, id string) (*CaseRecord, error) {
	recs, err := r.list(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *caseRepo) list(ctx context.Context, pred *entsql.Predicate) ([]CaseRecord, error) {
	sel := builder().
		Select(columnNames(ClinicalCasesColumns)...).
		From(entsql.Table(ClinicalCasesTable.Name)).
		OrderBy("position", "id")
	if pred != nil {
		sel.Where(pred)
	}

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var recs []CaseRecord
	for rows.Next() {
		var (
			rec                     CaseRecord
			symptoms, differentials string
		)
		if err := rows.Scan(&rec.ID, &rec.Position, &rec.Title, &rec.Description, &rec.ClinicalContext,
			&symptoms, &rec.CorrectDiagnosis, &differentials, &rec.Difficulty, &rec.PatientMentalState); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		if err := unmarshalJSON(symptoms, &rec.Symptoms); err != nil {
			return nil, fmt.Errorf("decode symptoms of case %s: %w", rec.ID, err)
		}
		if err := unmarshalJSON(differentials, &rec.Differentials); err != nil {
			return nil, fmt.Errorf("decode differentials of case %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *caseRepo) Upsert(ctx context.Context, cases []CaseRecord) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range cases {
			symptoms, err := marshalJSON(c.Symptoms)
			if err != nil {
				return fmt.Errorf("encode symptoms of case %s: %w", c.ID, err)
			}
			differentials, err := marshalJSON(c.Differentials)
			if err != nil {
				return fmt.Errorf("encode differentials of case %s: %w", c.ID, err)
			}
			_, err = exec(ctx, tx, builder().
				Insert(ClinicalCasesTable.Name).
				Columns(columnNames(ClinicalCasesColumns)...).
				Values(c.ID, c.Position, c.Title, c.Description, c.ClinicalContext,
					symptoms, c.CorrectDiagnosis, differentials, c.Difficulty, c.PatientMentalState).
				OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
			if err != nil {
				return fmt.Errorf("upsert case %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (r *caseRepo) CatalogVersion(ctx context.Context) (string, error) {
	rows, err := query(ctx, r.db, builder().
		Select("meta_value").
		From(entsql.Table(CatalogMetaTable.Name)).
		Where(entsql.EQ("meta_key", catalogVersionKey)))
	if err != nil {
		return "", fmt.Errorf("query catalog version: %w", err)
	}
	defer rows.Close()

	var version string
	if rows.Next() {
		if err := rows.Scan(&version); err != nil {
			return "", fmt.Errorf("scan catalog version: %w", err)
		}
	}
	return version, rows.Err()
}

func (r *caseRepo) SetCatalogVersion(ctx context.Context, version string) error {
	_, err := exec(ctx, r.db, builder().
		Insert(CatalogMetaTable.Name).
		Columns("meta_key", "meta_value").
		Values(catalogVersionKey, version).
		OnConflict(entsql.ConflictColumns("meta_key"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("set catalog version: %w", err)
	}
	return nil
}
