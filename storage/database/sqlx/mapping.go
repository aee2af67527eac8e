package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
)

type (
	mappingRepository struct {
		db *sqlx.DB
	}

	courseRow struct {
		ID        string      `db:"id"`
		Title     null.String `db:"title"`
		CreatedAt null.Time   `db:"created_at"`
		UpdatedAt null.Time   `db:"updated_at"`
	}

	summaryRow struct {
		ID           string      `db:"id"`
		Title        null.String `db:"title"`
		UpdatedAt    null.Time   `db:"updated_at"`
		OutcomeCount int         `db:"outcome_count"`
		POLinks      int         `db:"co_po_count"`
		PSOLinks     int         `db:"co_pso_count"`
	}

	entryRow struct {
		Row   int `db:"co_index"`
		Col   int `db:"col"`
		Value int `db:"mapping_value"`
	}

	// mappingTable describes one of the two sparse tables.
	mappingTable struct {
		name string
		col  string
	}
)

var (
	poTable  = mappingTable{name: "co_po_mapping", col: "po_index"}
	psoTable = mappingTable{name: "co_pso_mapping", col: "pso_index"}
)

var _ mapping.Repository = (*mappingRepository)(nil) // interface compliance check

func NewMappingRepository(db *sqlx.DB) mapping.Repository {
	return &mappingRepository{db: db}
}

// trapNoRowsErr maps sql "no rows" err to mapping.ErrCourseNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return mapping.ErrCourseNotFound
	}
	return errors.Wrap(err, msg)
}

// inTx runs fn in a transaction, rolled back when fn fails.
func (repo *mappingRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *mappingRepository) getCourse(ctx context.Context, q sqlx.QueryerContext, id string) (mapping.Course, error) {
	var row courseRow
	err := sqlx.GetContext(ctx, q, &row, repo.db.Rebind(`SELECT id, title, created_at, updated_at FROM course WHERE id = ?`), id)
	if err != nil {
		return mapping.Course{}, trapNoRowsErr(err, "getting course")
	}

	outcomes := make([]string, 0)
	err = sqlx.SelectContext(ctx, q, &outcomes, repo.db.Rebind(`SELECT text FROM course_outcome WHERE course_id = ? ORDER BY position`), id)
	if err != nil {
		return mapping.Course{}, errors.Wrap(err, "getting course outcomes")
	}

	return mapping.Course{
		ID:        row.ID,
		Title:     row.Title.String,
		Outcomes:  outcomes,
		CreatedAt: row.CreatedAt.Time.UTC(),
		UpdatedAt: row.UpdatedAt.Time.UTC(),
	}, nil
}

func (repo *mappingRepository) GetCourse(ctx context.Context, id string) (mapping.Course, error) {
	return repo.getCourse(ctx, repo.db, id)
}

func (repo *mappingRepository) QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]mapping.CourseSummary, error) {
	q := `
		SELECT c.id, c.title, c.updated_at,
			(SELECT COUNT(*) FROM course_outcome o WHERE o.course_id = c.id) AS outcome_count,
			(SELECT COUNT(*) FROM co_po_mapping p WHERE p.course_id = c.id) AS co_po_count,
			(SELECT COUNT(*) FROM co_pso_mapping s WHERE s.course_id = c.id) AS co_pso_count
		FROM course c`
	if len(orderings) > 0 {
		orderList := make([]string, 0, len(orderings)+1)
		for _, ord := range orderings {
			orderList = append(orderList, "c."+ord.String())
		}
		orderList = append(orderList, "c.id ASC")
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []summaryRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]mapping.CourseSummary, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, mapping.CourseSummary{
			ID:           row.ID,
			Title:        row.Title.String,
			OutcomeCount: row.OutcomeCount,
			POLinks:      row.POLinks,
			PSOLinks:     row.PSOLinks,
			UpdatedAt:    row.UpdatedAt.Time.UTC(),
		})
	}
	return courses, nil
}

func (repo *mappingRepository) SaveCourse(ctx context.Context, course mapping.Course) (mapping.Course, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		row := courseRow{
			ID:        course.ID,
			Title:     null.NewString(course.Title, course.Title != ""),
			CreatedAt: null.TimeFrom(course.CreatedAt.UTC()),
			UpdatedAt: null.TimeFrom(course.UpdatedAt.UTC()),
		}

		res, err := tx.NamedExecContext(ctx, `UPDATE course SET title = :title, updated_at = :updated_at WHERE id = :id`, row)
		if err != nil {
			return errors.Wrap(err, "updating course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO course (id, title, created_at, updated_at)
				VALUES (:id, :title, :created_at, :updated_at)`, row)
			if err != nil {
				return errors.Wrap(err, "inserting course")
			}
		}

		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM course_outcome WHERE course_id = ?`), course.ID); err != nil {
			return errors.Wrap(err, "deleting course outcomes")
		}
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO course_outcome (course_id, position, text) VALUES (?, ?, ?)`))
		if err != nil {
			return errors.Wrap(err, "preparing course outcome insert")
		}
		defer func() { _ = stmt.Close() }()
		for i, text := range course.Outcomes {
			if _, err = stmt.ExecContext(ctx, course.ID, i, text); err != nil {
				return errors.Wrap(err, "inserting course outcome")
			}
		}

		// purge mapping rows of outcomes that no longer exist
		for _, tbl := range []mappingTable{poTable, psoTable} {
			q := tx.Rebind(`DELETE FROM ` + tbl.name + ` WHERE course_id = ? AND co_index >= ?`)
			if _, err = tx.ExecContext(ctx, q, course.ID, len(course.Outcomes)); err != nil {
				return errors.Wrapf(err, "purging %s", tbl.name)
			}
		}

		course, err = repo.getCourse(ctx, tx, course.ID)
		return err
	})
	if err != nil {
		return mapping.Course{}, err
	}
	return course, nil
}

func (repo *mappingRepository) selectEntries(ctx context.Context, q sqlx.QueryerContext, tbl mappingTable, courseID string) ([]mapping.Record, error) {
	var rows []entryRow
	query := repo.db.Rebind(`
		SELECT co_index, ` + tbl.col + ` AS col, mapping_value
		FROM ` + tbl.name + `
		WHERE course_id = ?
		ORDER BY co_index, ` + tbl.col)
	if err := sqlx.SelectContext(ctx, q, &rows, query, courseID); err != nil {
		return nil, errors.Wrapf(err, "selecting %s", tbl.name)
	}
	recs := make([]mapping.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, mapping.Record{Row: row.Row, Col: row.Col, Value: mapping.Level(row.Value)})
	}
	return recs, nil
}

func (repo *mappingRepository) GetMapping(ctx context.Context, courseID string) (po, pso []mapping.Record, err error) {
	var exists bool
	err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(`SELECT true FROM course WHERE id = ?`), courseID)
	if err != nil {
		return nil, nil, trapNoRowsErr(err, "checking course")
	}
	if po, err = repo.selectEntries(ctx, repo.db, poTable, courseID); err != nil {
		return nil, nil, err
	}
	if pso, err = repo.selectEntries(ctx, repo.db, psoTable, courseID); err != nil {
		return nil, nil, err
	}
	return po, pso, nil
}

func (repo *mappingRepository) replaceEntries(ctx context.Context, tx *sqlx.Tx, tbl mappingTable, courseID string, recs []mapping.Record) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+tbl.name+` WHERE course_id = ?`), courseID); err != nil {
		return errors.Wrapf(err, "deleting %s", tbl.name)
	}
	if len(recs) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO `+tbl.name+` (course_id, co_index, `+tbl.col+`, mapping_value) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return errors.Wrapf(err, "preparing %s insert", tbl.name)
	}
	defer func() { _ = stmt.Close() }()
	for _, rec := range recs {
		if _, err = stmt.ExecContext(ctx, courseID, rec.Row, rec.Col, int(rec.Value)); err != nil {
			return errors.Wrapf(err, "inserting %s", tbl.name)
		}
	}
	return nil
}

func (repo *mappingRepository) ReplaceMapping(ctx context.Context, courseID string, po, pso []mapping.Record, updatedAt time.Time) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE course SET updated_at = ? WHERE id = ?`), updatedAt.UTC(), courseID)
		if err != nil {
			return errors.Wrap(err, "touching course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return mapping.ErrCourseNotFound
		}
		if err = repo.replaceEntries(ctx, tx, poTable, courseID, po); err != nil {
			return err
		}
		return repo.replaceEntries(ctx, tx, psoTable, courseID, pso)
	})
}

func (repo *mappingRepository) DeleteCourse(ctx context.Context, id string) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, tbl := range []string{poTable.name, psoTable.name, "course_outcome"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+tbl+` WHERE course_id = ?`), id); err != nil {
				return errors.Wrapf(err, "deleting %s", tbl)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM course WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "deleting course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return mapping.ErrCourseNotFound
		}
		return nil
	})
}
