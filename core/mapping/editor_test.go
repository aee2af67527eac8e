package mapping_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/curriculum/core/mapping"
)

type fakeBackend struct {
	mu       sync.Mutex
	mapping  mapping.Mapping
	fetchErr error
	saveErr  error
	saved    []mapping.Payload
	fetches  int

	// when set, ReplaceMapping signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (b *fakeBackend) FetchMapping(ctx context.Context, courseID string) (mapping.Mapping, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.fetchErr != nil {
		return mapping.Mapping{}, b.fetchErr
	}
	return b.mapping, nil
}

func (b *fakeBackend) ReplaceMapping(ctx context.Context, courseID string, payload mapping.Payload) error {
	if b.release != nil {
		b.started <- struct{}{}
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, payload)
	return nil
}

func (b *fakeBackend) setErrors(fetchErr, saveErr error) {
	b.mu.Lock()
	b.fetchErr, b.saveErr = fetchErr, saveErr
	b.mu.Unlock()
}

func (b *fakeBackend) savedPayloads() []mapping.Payload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]mapping.Payload(nil), b.saved...)
}

func newLoadedEditor(t *testing.T, backend *fakeBackend, ttl time.Duration) *mapping.Editor {
	t.Helper()
	ed := mapping.NewEditor(backend, "CS101", ttl)
	t.Cleanup(ed.Close)
	require.NoError(t, ed.Load(context.Background()))
	return ed
}

func TestEditor_Load(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{
		Outcomes: []string{"Understand X", "Apply Y"},
		PO:       mapping.POMatrix{{COIndex: 0, POIndex: 1, Value: mapping.High}},
	}}
	ed := newLoadedEditor(t, backend, 0)

	assert.Equal(t, mapping.StateReady, ed.State())
	assert.Equal(t, mapping.Notice{}, ed.Notice())
	assert.Equal(t, []string{"Understand X", "Apply Y"}, ed.Outcomes())

	po, err := ed.Matrix(mapping.POAxis)
	require.NoError(t, err)
	assert.Equal(t, 2, po.Rows())
	assert.Equal(t, mapping.POCount, po.Cols())

	var cells, nonZero int
	for row := 0; row < po.Rows(); row++ {
		for col := 1; col <= po.Cols(); col++ {
			cells++
			if po.At(row, col) != mapping.NoCorrelation {
				nonZero++
			}
		}
	}
	assert.Equal(t, 24, cells)
	assert.Equal(t, 1, nonZero)
	assert.Equal(t, mapping.High, po.At(0, 1))

	pso, err := ed.Matrix(mapping.PSOAxis)
	require.NoError(t, err)
	assert.Equal(t, []mapping.Record{}, pso.Sparsify())
}

func TestEditor_Load_dropsOutOfRangeRecords(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{
		Outcomes: []string{"A"},
		PO:       mapping.POMatrix{{COIndex: 1, POIndex: 1, Value: mapping.High}, {COIndex: 0, POIndex: 13, Value: mapping.Low}},
		PSO:      mapping.PSOMatrix{{COIndex: 0, PSOIndex: 3, Value: mapping.Medium}},
	}}
	ed := newLoadedEditor(t, backend, 0)

	assert.Equal(t, mapping.Payload{
		PO:  mapping.POMatrix{},
		PSO: mapping.PSOMatrix{{COIndex: 0, PSOIndex: 3, Value: mapping.Medium}},
	}, ed.Payload())
}

func TestEditor_Load_noOutcomes(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{}}}
	ed := newLoadedEditor(t, backend, 0)

	// guard state, not an error
	assert.Equal(t, mapping.StateEmpty, ed.State())
	assert.Equal(t, mapping.NoticeNone, ed.Notice().Kind)

	err := ed.Save(context.Background())
	assert.Equal(t, mapping.ErrNoOutcomes, err)
	assert.Empty(t, backend.savedPayloads())
}

func TestEditor_Load_failure(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{
		Outcomes: []string{"A"},
		PO:       mapping.POMatrix{{COIndex: 0, POIndex: 1, Value: mapping.High}},
	}}
	ed := newLoadedEditor(t, backend, 0)

	backend.setErrors(&mapping.StatusError{Code: 500}, nil)
	err := ed.Load(context.Background())
	require.Error(t, err)
	assert.True(t, mapping.IsLoadFailure(err))
	assert.False(t, mapping.IsSaveFailure(err))

	var serr *mapping.StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 500, serr.Code)

	assert.Equal(t, mapping.StateLoadFailed, ed.State())
	assert.Equal(t, mapping.NoticeError, ed.Notice().Kind)
	assert.Empty(t, ed.Outcomes())

	po, err := ed.Matrix(mapping.POAxis)
	require.NoError(t, err)
	assert.Equal(t, 0, po.Rows())

	assert.Equal(t, mapping.ErrNotLoaded, ed.Save(context.Background()))

	// a successful reload clears the error
	backend.setErrors(nil, nil)
	require.NoError(t, ed.Load(context.Background()))
	assert.Equal(t, mapping.StateReady, ed.State())
	assert.Equal(t, mapping.Notice{}, ed.Notice())
}

func TestEditor_Save(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"Understand X", "Apply Y"}}}
	ed := newLoadedEditor(t, backend, time.Hour)

	require.NoError(t, ed.Set(mapping.PSOAxis, 1, 2, mapping.Medium))
	require.NoError(t, ed.Save(context.Background()))

	saved := backend.savedPayloads()
	require.Len(t, saved, 1)
	assert.Equal(t, mapping.POMatrix{}, saved[0].PO)
	assert.Equal(t, mapping.PSOMatrix{{COIndex: 1, PSOIndex: 2, Value: mapping.Medium}}, saved[0].PSO)

	assert.Equal(t, mapping.Notice{Kind: mapping.NoticeSuccess, Message: "Mapping saved successfully!"}, ed.Notice())
}

func TestEditor_Save_neverSendsZeros(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{
		Outcomes: []string{"A", "B"},
		PO:       mapping.POMatrix{{COIndex: 0, POIndex: 1, Value: mapping.High}, {COIndex: 1, POIndex: 2, Value: mapping.Low}},
	}}
	ed := newLoadedEditor(t, backend, time.Hour)

	require.NoError(t, ed.Set(mapping.POAxis, 0, 1, mapping.NoCorrelation))
	require.NoError(t, ed.Save(context.Background()))

	saved := backend.savedPayloads()
	require.Len(t, saved, 1)
	assert.Equal(t, mapping.POMatrix{{COIndex: 1, POIndex: 2, Value: mapping.Low}}, saved[0].PO)

	ed.Reset()
	require.NoError(t, ed.Save(context.Background()))
	saved = backend.savedPayloads()
	require.Len(t, saved, 2)
	assert.Equal(t, mapping.Payload{PO: mapping.POMatrix{}, PSO: mapping.PSOMatrix{}}, saved[1])
}

func TestEditor_Save_failureKeepsEdits(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A", "B"}}}
	ed := newLoadedEditor(t, backend, time.Hour)

	require.NoError(t, ed.Set(mapping.POAxis, 1, 12, mapping.High))
	backend.setErrors(nil, errors.New("connection refused"))

	err := ed.Save(context.Background())
	require.Error(t, err)
	assert.True(t, mapping.IsSaveFailure(err))
	assert.Equal(t, mapping.NoticeError, ed.Notice().Kind)
	assert.Equal(t, mapping.High, ed.Get(mapping.POAxis, 1, 12))
	assert.Equal(t, mapping.StateReady, ed.State())

	// retry without re-entering anything
	backend.setErrors(nil, nil)
	require.NoError(t, ed.Save(context.Background()))
	saved := backend.savedPayloads()
	require.Len(t, saved, 1)
	assert.Equal(t, mapping.POMatrix{{COIndex: 1, POIndex: 12, Value: mapping.High}}, saved[0].PO)
	assert.Equal(t, mapping.NoticeSuccess, ed.Notice().Kind)
}

func TestEditor_Set(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A", "B"}}}
	ed := newLoadedEditor(t, backend, 0)

	tests := []struct {
		name    string
		axis    mapping.Axis
		row     int
		col     int
		val     mapping.Level
		wantErr error
	}{
		{name: "po", axis: mapping.POAxis, row: 0, col: 12, val: mapping.High},
		{name: "pso", axis: mapping.PSOAxis, row: 1, col: 3, val: mapping.Low},
		{name: "pso col 4", axis: mapping.PSOAxis, row: 0, col: 4, val: mapping.Low, wantErr: mapping.ErrOutOfRange},
		{name: "row 2", axis: mapping.POAxis, row: 2, col: 1, val: mapping.Low, wantErr: mapping.ErrOutOfRange},
		{name: "level", axis: mapping.POAxis, row: 0, col: 1, val: 4, wantErr: mapping.ErrInvalidLevel},
		{name: "axis", axis: mapping.Axis{Name: "XO", Size: 1}, row: 0, col: 1, val: mapping.Low, wantErr: mapping.ErrUnknownAxis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ed.Set(tt.axis, tt.row, tt.col, tt.val)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Set() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				assert.Equal(t, tt.val, ed.Get(tt.axis, tt.row, tt.col))
			}
		})
	}
	// no network call while editing
	assert.Empty(t, backend.savedPayloads())
	assert.Equal(t, 1, backend.fetches)
}

func TestEditor_noticeClears(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A"}}}
	ed := newLoadedEditor(t, backend, 20*time.Millisecond)

	require.NoError(t, ed.Save(context.Background()))
	assert.Equal(t, mapping.NoticeSuccess, ed.Notice().Kind)

	assert.Eventually(t, func() bool {
		return ed.Notice().Kind == mapping.NoticeNone
	}, time.Second, 5*time.Millisecond)
}

func TestEditor_errorNoticeStays(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A"}}}
	ed := newLoadedEditor(t, backend, 10*time.Millisecond)

	// a success followed by a failure: the stale timer must not clear the error
	require.NoError(t, ed.Save(context.Background()))
	backend.setErrors(nil, errors.New("boom"))
	require.Error(t, ed.Save(context.Background()))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, mapping.NoticeError, ed.Notice().Kind)
}

func TestEditor_Close(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A"}}}
	ed := newLoadedEditor(t, backend, 10*time.Millisecond)

	require.NoError(t, ed.Save(context.Background()))
	ed.Close()

	time.Sleep(50 * time.Millisecond)
	// the timer was stopped: nothing touches the editor after Close
	assert.Equal(t, mapping.NoticeSuccess, ed.Notice().Kind)
}

func TestEditor_Close_saveInFlight(t *testing.T) {
	tests := []struct {
		name    string
		saveErr error
	}{
		{name: "success"},
		{name: "failure", saveErr: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				mapping: mapping.Mapping{Outcomes: []string{"A"}},
				saveErr: tt.saveErr,
				started: make(chan struct{}),
				release: make(chan struct{}),
			}
			ed := newLoadedEditor(t, backend, 10*time.Millisecond)
			require.NoError(t, ed.Set(mapping.POAxis, 0, 1, mapping.Low))

			done := make(chan error, 1)
			go func() { done <- ed.Save(context.Background()) }()

			<-backend.started
			ed.Close()
			close(backend.release)

			err := <-done
			if tt.saveErr != nil {
				assert.True(t, mapping.IsSaveFailure(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, mapping.Notice{}, ed.Notice())
			assert.Equal(t, mapping.Low, ed.Get(mapping.POAxis, 0, 1))
		})
	}
}

func TestEditor_afterClose(t *testing.T) {
	backend := &fakeBackend{mapping: mapping.Mapping{Outcomes: []string{"A"}}}
	ed := newLoadedEditor(t, backend, 0)
	ed.Close()

	assert.Equal(t, mapping.ErrEditorClosed, ed.Save(context.Background()))
	assert.Equal(t, mapping.ErrEditorClosed, ed.Load(context.Background()))
	assert.Empty(t, backend.savedPayloads())
	assert.Equal(t, 1, backend.fetches)
}
