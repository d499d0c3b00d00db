package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	recs, err := r.list(ctx, entsql.EQ("id", id), 0)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *sessionRepo) ListByLearner(ctx context.Context, learnerID string, limit int) ([]SessionRecord, error) {
	return r.list(ctx, entsql.EQ("learner_id", learnerID), limit)
}

func (r *sessionRepo) list(ctx context.Context, pred *entsql.Predicate, limit int) ([]SessionRecord, error) {
	sel := builder().
		Select(columnNames(SessionsColumns)...).
		From(entsql.Table(SessionsTable.Name)).
		Where(pred).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var recs []SessionRecord
	for rows.Next() {
		var (
			rec      SessionRecord
			endedAt  sql.NullTime
			proposed sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.LevelID, &rec.CaseID, &rec.CaseTitle, &rec.Objective,
			&rec.StarScore, &rec.State, &rec.StartedAt, &endedAt, &proposed,
			&rec.DiagnosisCorrect, &rec.FirstTime, &rec.Feedback, &rec.LearnerID); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if endedAt.Valid {
			t := endedAt.Time
			rec.EndedAt = &t
		}
		if proposed.Valid {
			p := proposed.String
			rec.ProposedDiagnosis = &p
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *sessionRepo) CaseTitles(ctx context.Context, learnerID string) ([]string, error) {
	rows, err := query(ctx, r.db, builder().
		Select("case_title").
		Distinct().
		From(entsql.Table(SessionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.NEQ("case_title", ""),
		)).
		OrderBy("case_title"))
	if err != nil {
		return nil, fmt.Errorf("query case titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan case title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

func (r *sessionRepo) Interactions(ctx context.Context, sessionID string) ([]InteractionRecord, error) {
	rows, err := query(ctx, r.db, builder().
		Select(columnNames(InteractionsColumns)...).
		From(entsql.Table(InteractionsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}

	var (
		recs []InteractionRecord
		ids  []any
	)
	for rows.Next() {
		var rec InteractionRecord
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Author, &rec.AuthorName, &rec.Message,
			&rec.MessageType, &rec.ContainsError, &rec.Timestamp, &rec.SessionID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		recs = append(recs, rec)
		ids = append(ids, rec.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return recs, nil
	}

	errs, err := r.errorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Errors = errs[recs[i].ID]
	}
	return recs, nil
}

func (r *sessionRepo) errorsFor(ctx context.Context, interactionIDs []any) (map[string][]ErrorRecord, error) {
	rows, err := query(ctx, r.db, builder().
		Select(columnNames(PedagogicalErrorsColumns)...).
		From(entsql.Table(PedagogicalErrorsTable.Name)).
		Where(entsql.In("interaction_id", interactionIDs...)))
	if err != nil {
		return nil, fmt.Errorf("query pedagogical errors: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ErrorRecord)
	for rows.Next() {
		var e ErrorRecord
		if err := rows.Scan(&e.ID, &e.Category, &e.Severity, &e.Description, &e.Context,
			&e.Suggestion, &e.Corrected, &e.InteractionID); err != nil {
			return nil, fmt.Errorf("scan pedagogical error: %w", err)
		}
		out[e.InteractionID] = append(out[e.InteractionID], e)
	}
	return out, rows.Err()
}

func (r *sessionRepo) SaveTurn(ctx context.Context, sess SessionRecord, turns []InteractionRecord) error {
	var endedAt sql.NullTime
	if sess.EndedAt != nil {
		endedAt = sql.NullTime{Time: *sess.EndedAt, Valid: true}
	}
	var proposed sql.NullString
	if sess.ProposedDiagnosis != nil {
		proposed = sql.NullString{String: *sess.ProposedDiagnosis, Valid: true}
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := exec(ctx, tx, builder().
			Insert(SessionsTable.Name).
			Columns(columnNames(SessionsColumns)...).
			Values(sess.ID, sess.LevelID, sess.CaseID, sess.CaseTitle, sess.Objective,
				sess.StarScore, sess.State, sess.StartedAt, endedAt, proposed,
				sess.DiagnosisCorrect, sess.FirstTime, sess.Feedback, sess.LearnerID).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
		if err != nil {
			return fmt.Errorf("upsert session %s: %w", sess.ID, err)
		}

		for _, t := range turns {
			_, err := exec(ctx, tx, builder().
				Insert(InteractionsTable.Name).
				Columns(columnNames(InteractionsColumns)...).
				Values(t.ID, t.Seq, t.Author, t.AuthorName, t.Message,
					t.MessageType, t.ContainsError, t.Timestamp, sess.ID))
			if err != nil {
				return fmt.Errorf("insert interaction %d: %w", t.Seq, err)
			}
			for _, e := range t.Errors {
				_, err := exec(ctx, tx, builder().
					Insert(PedagogicalErrorsTable.Name).
					Columns(columnNames(PedagogicalErrorsColumns)...).
					Values(e.ID, e.Category, e.Severity, e.Description, e.Context,
						e.Suggestion, e.Corrected, t.ID))
				if err != nil {
					return fmt.Errorf("insert pedagogical error: %w", err)
				}
			}
		}
		return nil
	})
}

func (r *sessionRepo) MarkErrorCorrected(ctx context.Context, errorID string) error {
	res, err := exec(ctx, r.db, builder().
		Update(PedagogicalErrorsTable.Name).
		Set("corrected", true).
		Where(entsql.EQ("id", errorID)))
	if err != nil {
		return fmt.Errorf("mark error corrected: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pedagogical error %s: %w", errorID, ErrNotFound)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	res, err := exec(ctx, r.db, builder().
		Delete(SessionsTable.Name).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
