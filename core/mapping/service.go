package mapping

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/curriculum/core"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]CourseSummary, error)
		// SaveCourse creates or updates the course & its outcomes.
		// Mapping entries of rows that no longer exist (row >= len(course.Outcomes)) are deleted.
		SaveCourse(ctx context.Context, course Course) (Course, error)
		// GetMapping returns both sparse lists ordered by (row, col).
		GetMapping(ctx context.Context, courseID string) (po, pso []Record, err error)
		// ReplaceMapping overwrites the whole mapping set of the course, atomically.
		ReplaceMapping(ctx context.Context, courseID string, po, pso []Record, updatedAt time.Time) error
		DeleteCourse(ctx context.Context, id string) error
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		logger     core.Logger
		appName    string
		recipients []mail.Address
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		logger:     logger,
		appName:    conf.AppName,
		recipients: conf.NoticeRecipients(),
	}
}

func cleanCourseID(id string) (string, error) {
	id = core.CleanString(id)
	if id == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}
	return id, nil
}

func (svc *Service) ListCourses(ctx context.Context, orderings ...core.DBOrdering) ([]CourseSummary, error) {
	orderings = core.FilterOrderings(orderings, CourseOrderings)
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "id", Ascending: true}}
	}
	return svc.repo.QueryCourses(ctx, orderings...)
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	id, err := cleanCourseID(id)
	if err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourse(ctx, id)
}

// SetOutcomes replaces the outcome list of a course, creating the course if it does not exist yet.
func (svc *Service) SetOutcomes(ctx context.Context, id string, so SetOutcomes) (Course, error) {
	id, err := cleanCourseID(id)
	if err != nil {
		return Course{}, err
	}
	now := NowFunc().UTC()

	course, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		if errors.Cause(err) != ErrCourseNotFound {
			return Course{}, errors.Wrap(err, "getting course")
		}
		course = Course{ID: id, CreatedAt: now}
	}
	if so.Title != "" {
		course.Title = so.Title
	}
	course.Outcomes = append(make([]string, 0, len(so.Outcomes)), so.Outcomes...)
	course.UpdatedAt = now

	return svc.repo.SaveCourse(ctx, course)
}

func (svc *Service) GetMapping(ctx context.Context, id string) (Mapping, error) {
	course, err := svc.GetCourse(ctx, id)
	if err != nil {
		return Mapping{}, err
	}
	po, pso, err := svc.repo.GetMapping(ctx, course.ID)
	if err != nil {
		return Mapping{}, errors.Wrap(err, "getting mapping")
	}
	return newMapping(course, po, pso), nil
}

// ReplaceMapping overwrites the course's whole mapping set with `p`.
// Zero-valued entries are dropped and repeated cells collapse to the last one.
func (svc *Service) ReplaceMapping(ctx context.Context, id string, p Payload) (Mapping, error) {
	course, err := svc.GetCourse(ctx, id)
	if err != nil {
		return Mapping{}, err
	}

	rows := len(course.Outcomes)
	fldErrs := checkBounds("co_po_matrix", POAxis, rows, p.PO.Records())
	fldErrs = append(fldErrs, checkBounds("co_pso_matrix", PSOAxis, rows, p.PSO.Records())...)
	if len(fldErrs) > 0 {
		return Mapping{}, core.NewValidationError(nil, fldErrs...)
	}
	po, pso := Normalize(p.PO.Records()), Normalize(p.PSO.Records())

	prevPO, prevPSO, err := svc.repo.GetMapping(ctx, course.ID)
	if err != nil {
		return Mapping{}, errors.Wrap(err, "getting previous mapping")
	}
	if err = svc.repo.ReplaceMapping(ctx, course.ID, po, pso, NowFunc().UTC()); err != nil {
		return Mapping{}, errors.Wrap(err, "replacing mapping")
	}

	svc.notify(course, Diff{PrevPO: prevPO, PrevPSO: prevPSO, PO: po, PSO: pso})
	return newMapping(course, po, pso), nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	course, err := svc.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, course.ID)
}

func (svc *Service) notify(course Course, diff Diff) {
	if svc.mailSvc == nil || len(svc.recipients) == 0 {
		return
	}
	msg, changed, err := NewChangeNotice(svc.appName, course, diff, svc.recipients)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Error(fmt.Sprintf("building change notice for course %q: %v", course.ID, err), err)
		}
		return
	}
	if changed {
		svc.mailSvc.SendMessages(msg)
	}
}

func newMapping(course Course, po, pso []Record) Mapping {
	outcomes := course.Outcomes
	if outcomes == nil {
		outcomes = []string{}
	}
	return Mapping{
		CourseID: course.ID,
		Title:    course.Title,
		Outcomes: outcomes,
		PO:       NewPOMatrix(Normalize(po)),
		PSO:      NewPSOMatrix(Normalize(pso)),
	}
}

func checkBounds(field string, axis Axis, rows int, recs []Record) []core.FieldError {
	var fldErrs []core.FieldError
	for i, rec := range recs {
		name := fmt.Sprintf("%s[%d]", field, i)
		if rec.Row < 0 || rec.Row >= rows {
			fldErrs = append(fldErrs, core.FieldErrorf(name+".co_index", "course has no outcome at index %d", rec.Row))
		}
		if !axis.Contains(rec.Col) {
			fldErrs = append(fldErrs, core.FieldErrorf(name+"."+axis.Field, "%s ordinal must be between 1 and %d", axis.Name, axis.Size))
		}
		if !rec.Value.Valid() {
			fldErrs = append(fldErrs, core.FieldErrorf(name+".mapping_value", "mapping value must be between %d and %d", NoCorrelation, High))
		}
	}
	return fldErrs
}
