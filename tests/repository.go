package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
)

// TestMappingRepository checks the behaviour every mapping.Repository must share.
// newRepo must return an empty repository.
func TestMappingRepository(t *testing.T, newRepo func(t *testing.T) mapping.Repository) {
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("course not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetCourse(ctx, "nope")
		assert.Equal(t, mapping.ErrCourseNotFound, errors.Cause(err))
		_, _, err = repo.GetMapping(ctx, "nope")
		assert.Equal(t, mapping.ErrCourseNotFound, errors.Cause(err))
		err = repo.ReplaceMapping(ctx, "nope", nil, nil, t0)
		assert.Equal(t, mapping.ErrCourseNotFound, errors.Cause(err))
		assert.Equal(t, mapping.ErrCourseNotFound, errors.Cause(repo.DeleteCourse(ctx, "nope")))
	})

	t.Run("save & get course", func(t *testing.T) {
		repo := newRepo(t)
		CreateCourse(t, repo, "CS101", "Intro", []string{"Understand X", "Apply Y"}, nil, nil, t0)

		course, err := repo.GetCourse(ctx, "CS101")
		require.NoError(t, err)
		assert.Equal(t, "Intro", course.Title)
		assert.Equal(t, []string{"Understand X", "Apply Y"}, course.Outcomes)
		assert.True(t, t0.Equal(course.CreatedAt), "CreatedAt = %v", course.CreatedAt)

		// update keeps created_at
		course.Outcomes = []string{"Apply Y"}
		course.CreatedAt = t0.Add(time.Hour)
		course.UpdatedAt = t0.Add(time.Hour)
		course, err = repo.SaveCourse(ctx, course)
		require.NoError(t, err)
		assert.Equal(t, []string{"Apply Y"}, course.Outcomes)
		assert.True(t, t0.Equal(course.CreatedAt), "CreatedAt = %v", course.CreatedAt)
		assert.True(t, t0.Add(time.Hour).Equal(course.UpdatedAt), "UpdatedAt = %v", course.UpdatedAt)
	})

	t.Run("replace mapping", func(t *testing.T) {
		repo := newRepo(t)
		CreateCourse(t, repo, "CS101", "Intro", []string{"A", "B"},
			[]mapping.Record{{Row: 0, Col: 1, Value: mapping.High}},
			[]mapping.Record{{Row: 0, Col: 3, Value: mapping.Low}}, t0,
		)

		po := []mapping.Record{{Row: 1, Col: 2, Value: mapping.Low}, {Row: 0, Col: 12, Value: mapping.Medium}}
		require.NoError(t, repo.ReplaceMapping(ctx, "CS101", po, nil, t0.Add(time.Minute)))

		gotPO, gotPSO, err := repo.GetMapping(ctx, "CS101")
		require.NoError(t, err)
		assert.Equal(t, []mapping.Record{{Row: 0, Col: 12, Value: mapping.Medium}, {Row: 1, Col: 2, Value: mapping.Low}}, gotPO)
		assert.Equal(t, []mapping.Record{}, gotPSO)

		course, err := repo.GetCourse(ctx, "CS101")
		require.NoError(t, err)
		assert.True(t, t0.Add(time.Minute).Equal(course.UpdatedAt), "UpdatedAt = %v", course.UpdatedAt)
	})

	t.Run("shrinking outcomes purges rows", func(t *testing.T) {
		repo := newRepo(t)
		course := CreateCourse(t, repo, "CS101", "Intro", []string{"A", "B", "C"},
			[]mapping.Record{{Row: 0, Col: 1, Value: mapping.High}, {Row: 2, Col: 1, Value: mapping.High}},
			[]mapping.Record{{Row: 1, Col: 1, Value: mapping.Low}, {Row: 2, Col: 2, Value: mapping.Low}}, t0,
		)
		course.Outcomes = course.Outcomes[:2]
		_, err := repo.SaveCourse(ctx, course)
		require.NoError(t, err)

		po, pso, err := repo.GetMapping(ctx, "CS101")
		require.NoError(t, err)
		assert.Equal(t, []mapping.Record{{Row: 0, Col: 1, Value: mapping.High}}, po)
		assert.Equal(t, []mapping.Record{{Row: 1, Col: 1, Value: mapping.Low}}, pso)
	})

	t.Run("query courses", func(t *testing.T) {
		repo := newRepo(t)
		CreateCourse(t, repo, "MA201", "Algebra", []string{"A"}, nil, nil, t0.Add(time.Hour))
		CreateCourse(t, repo, "CS101", "Intro", []string{"A", "B"},
			[]mapping.Record{{Row: 0, Col: 1, Value: mapping.High}, {Row: 1, Col: 2, Value: mapping.Low}},
			[]mapping.Record{{Row: 0, Col: 1, Value: mapping.Low}}, t0,
		)

		courses, err := repo.QueryCourses(ctx, core.DBOrdering{Field: "updated_at"})
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, "MA201", courses[0].ID)

		cs := courses[1]
		assert.Equal(t, "CS101", cs.ID)
		assert.Equal(t, "Intro", cs.Title)
		assert.Equal(t, 2, cs.OutcomeCount)
		assert.Equal(t, 2, cs.POLinks)
		assert.Equal(t, 1, cs.PSOLinks)
	})

	t.Run("delete course", func(t *testing.T) {
		repo := newRepo(t)
		CreateCourse(t, repo, "CS101", "Intro", []string{"A"},
			[]mapping.Record{{Row: 0, Col: 1, Value: mapping.High}}, nil, t0,
		)
		require.NoError(t, repo.DeleteCourse(ctx, "CS101"))
		_, err := repo.GetCourse(ctx, "CS101")
		assert.Equal(t, mapping.ErrCourseNotFound, errors.Cause(err))

		// re-creating starts from an empty mapping
		CreateCourse(t, repo, "CS101", "Intro", []string{"A"}, nil, nil, t0)
		po, _, err := repo.GetMapping(ctx, "CS101")
		require.NoError(t, err)
		assert.Empty(t, po)
	})
}
