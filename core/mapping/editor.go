package mapping

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultNoticeTTL is how long a save confirmation stays visible.
const DefaultNoticeTTL = 3 * time.Second

// Backend is the remote side of the Editor, see services/mappingapi.
type Backend interface {
	FetchMapping(ctx context.Context, courseID string) (Mapping, error)
	ReplaceMapping(ctx context.Context, courseID string, payload Payload) error
}

type EditorState int

const (
	StateIdle       EditorState = iota // never loaded
	StateReady                         // loaded, rows available for editing
	StateEmpty                         // loaded, but the course has no outcomes yet
	StateLoadFailed                    // last load failed
)

func (s EditorState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateLoadFailed:
		return "load failed"
	default:
		return "idle"
	}
}

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is the banner shown to the user: a success clears itself after the notice TTL,
// an error stays until the next successful load or save.
type Notice struct {
	Kind    NoticeKind
	Message string
}

const (
	msgSaved      = "Mapping saved successfully!"
	msgLoadFailed = "Failed to load mapping data"
	msgSaveFailed = "Failed to save mapping"

	// GuardMessage is shown instead of the matrices when the course has no outcomes.
	GuardMessage = "No Course Outcomes defined for this course. Define the course outcomes first."
)

// Editor holds the CO-PO and CO-PSO matrices of one course while they are being edited.
// Load fetches fresh data, Set mutates memory only, Save replaces the whole remote mapping.
// Loads and saves are not de-duplicated: overlapping saves resolve in network completion order.
type Editor struct {
	backend   Backend
	courseID  string
	noticeTTL time.Duration

	mu       sync.Mutex
	state    EditorState
	outcomes []string
	po       *Dense
	pso      *Dense
	notice   Notice
	timer    *time.Timer
	noticeID int // bumped on every notice change, stale timers compare against it
	closed   bool
}

// NewEditor returns an Editor for the given course. A noticeTTL <= 0 means DefaultNoticeTTL.
func NewEditor(backend Backend, courseID string, noticeTTL time.Duration) *Editor {
	if noticeTTL <= 0 {
		noticeTTL = DefaultNoticeTTL
	}
	return &Editor{
		backend:   backend,
		courseID:  courseID,
		noticeTTL: noticeTTL,
		po:        NewDense(POAxis, 0),
		pso:       NewDense(PSOAxis, 0),
	}
}

func (e *Editor) CourseID() string { return e.courseID }

// Load fetches the outcomes & sparse lists and rebuilds both dense matrices.
// A course without outcomes is not an error: the editor goes to StateEmpty (see GuardMessage).
// On failure the matrices are emptied, an error notice is set and a *LoadError is returned.
func (e *Editor) Load(ctx context.Context) error {
	if e.isClosed() {
		return ErrEditorClosed
	}
	m, err := e.backend.FetchMapping(ctx, e.courseID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	if err != nil {
		e.outcomes = nil
		e.po = NewDense(POAxis, 0)
		e.pso = NewDense(PSOAxis, 0)
		e.state = StateLoadFailed
		e.setNotice(Notice{Kind: NoticeError, Message: msgLoadFailed})
		return &LoadError{CourseID: e.courseID, Err: err}
	}

	rows := len(m.Outcomes)
	e.outcomes = append(make([]string, 0, rows), m.Outcomes...)
	e.po = Densify(POAxis, rows, m.PO.Records())
	e.pso = Densify(PSOAxis, rows, m.PSO.Records())
	if rows == 0 {
		e.state = StateEmpty
	} else {
		e.state = StateReady
	}
	e.setNotice(Notice{})
	return nil
}

// Set updates exactly one cell in memory.
func (e *Editor) Set(axis Axis, row, col int, val Level) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.matrix(axis)
	if err != nil {
		return err
	}
	return m.Set(row, col, val)
}

// Get reads one cell; cells outside the matrix read as NoCorrelation.
func (e *Editor) Get(axis Axis, row, col int) Level {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.matrix(axis)
	if err != nil {
		return NoCorrelation
	}
	return m.At(row, col)
}

// Reset sets every cell of both matrices to NoCorrelation, in memory.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.po.Reset()
	e.pso.Reset()
}

// Payload returns what Save would submit.
func (e *Editor) Payload() Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NewPayload(e.po, e.pso)
}

// Save submits both matrices as one replace-all write.
// On success a transient confirmation is shown; on failure an error notice stays,
// the in-memory matrices are left untouched and a *SaveError is returned.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	switch e.state {
	case StateReady:
	case StateEmpty:
		e.mu.Unlock()
		return ErrNoOutcomes
	default:
		e.mu.Unlock()
		return ErrNotLoaded
	}
	payload := NewPayload(e.po, e.pso)
	e.mu.Unlock()

	err := e.backend.ReplaceMapping(ctx, e.courseID, payload)

	e.mu.Lock()
	defer e.mu.Unlock()

	// closed while the request was in flight: report the outcome, leave the editor as it is
	if e.closed {
		if err != nil {
			return &SaveError{CourseID: e.courseID, Err: err}
		}
		return nil
	}
	if err != nil {
		e.setNotice(Notice{Kind: NoticeError, Message: msgSaveFailed})
		return &SaveError{CourseID: e.courseID, Err: err}
	}
	e.setNotice(Notice{Kind: NoticeSuccess, Message: msgSaved})
	return nil
}

func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Notice() Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notice
}

func (e *Editor) Outcomes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.outcomes...)
}

// Matrix returns a copy of the dense matrix of the given axis.
func (e *Editor) Matrix(axis Axis) (*Dense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.matrix(axis)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// Close stops the pending notice timer. Afterwards Load and Save return ErrEditorClosed,
// and a request still in flight no longer changes the editor.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Editor) matrix(axis Axis) (*Dense, error) {
	switch axis.Name {
	case POAxis.Name:
		return e.po, nil
	case PSOAxis.Name:
		return e.pso, nil
	default:
		return nil, errors.Wrapf(ErrUnknownAxis, "%q", axis.Name)
	}
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// setNotice replaces the current notice; must be called with e.mu held.
func (e *Editor) setNotice(n Notice) {
	if e.closed {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.noticeID++
	e.notice = n

	if n.Kind != NoticeSuccess {
		return
	}
	id := e.noticeID
	e.timer = time.AfterFunc(e.noticeTTL, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.noticeID != id {
			return
		}
		e.notice = Notice{}
		e.timer = nil
	})
}
