package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
)

type mappingRepository struct {
	db *courseTable
}

var _ mapping.Repository = (*mappingRepository)(nil)

func NewMappingRepository(db *DB) mapping.Repository {
	return &mappingRepository{db: db.course}
}

func copyCourse(c mapping.Course) mapping.Course {
	c.Outcomes = append(make([]string, 0, len(c.Outcomes)), c.Outcomes...)
	return c
}

func records(cells map[mapping.Key]mapping.Level) []mapping.Record {
	recs := make([]mapping.Record, 0, len(cells))
	for k, v := range cells {
		recs = append(recs, mapping.Record{Row: k.Row, Col: k.Col, Value: v})
	}
	mapping.SortRecords(recs)
	return recs
}

func cells(recs []mapping.Record) map[mapping.Key]mapping.Level {
	m := make(map[mapping.Key]mapping.Level, len(recs))
	for _, rec := range recs {
		m[rec.Key()] = rec.Value
	}
	return m
}

func (repo *mappingRepository) GetCourse(ctx context.Context, id string) (mapping.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.t[id]; ok {
		return copyCourse(row.course), nil
	}
	return mapping.Course{}, mapping.ErrCourseNotFound
}

func (repo *mappingRepository) QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]mapping.CourseSummary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]mapping.CourseSummary, 0, len(repo.db.t))
	for _, row := range repo.db.t {
		res = append(res, mapping.CourseSummary{
			ID:           row.course.ID,
			Title:        row.course.Title,
			OutcomeCount: len(row.course.Outcomes),
			POLinks:      len(row.po),
			PSOLinks:     len(row.pso),
			UpdatedAt:    row.course.UpdatedAt,
		})
	}
	sort.SliceStable(res, func(i, j int) bool {
		for _, ord := range orderings {
			if c := compareSummaries(res[i], res[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func compareSummaries(a, b mapping.CourseSummary, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "updated_at":
		switch {
		case a.UpdatedAt.Before(b.UpdatedAt):
			return -1
		case a.UpdatedAt.After(b.UpdatedAt):
			return 1
		}
		return 0
	default:
		return strings.Compare(a.ID, b.ID)
	}
}

func (repo *mappingRepository) SaveCourse(ctx context.Context, course mapping.Course) (mapping.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	course = copyCourse(course)
	row, ok := repo.db.t[course.ID]
	if !ok {
		row = &courseRow{
			po:  make(map[mapping.Key]mapping.Level),
			pso: make(map[mapping.Key]mapping.Level),
		}
		repo.db.t[course.ID] = row
	} else {
		course.CreatedAt = row.course.CreatedAt
	}
	row.course = course

	// purge mapping rows of outcomes that no longer exist
	n := len(course.Outcomes)
	for _, m := range []map[mapping.Key]mapping.Level{row.po, row.pso} {
		for k := range m {
			if k.Row >= n {
				delete(m, k)
			}
		}
	}
	return copyCourse(course), nil
}

func (repo *mappingRepository) GetMapping(ctx context.Context, courseID string) (po, pso []mapping.Record, err error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	row, ok := repo.db.t[courseID]
	if !ok {
		return nil, nil, mapping.ErrCourseNotFound
	}
	return records(row.po), records(row.pso), nil
}

func (repo *mappingRepository) ReplaceMapping(ctx context.Context, courseID string, po, pso []mapping.Record, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.t[courseID]
	if !ok {
		return mapping.ErrCourseNotFound
	}
	row.po = cells(po)
	row.pso = cells(pso)
	row.course.UpdatedAt = updatedAt
	return nil
}

func (repo *mappingRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[id]; !ok {
		return mapping.ErrCourseNotFound
	}
	delete(repo.db.t, id)
	return nil
}
