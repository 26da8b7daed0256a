package data

import (
	"context"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/storage"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// fakeStore 内存中的运行记录存储
type fakeStore struct {
	runs       map[string]storage.Run
	order      []string
	lastLimit  uint64
	lastOffset uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{runs: make(map[string]storage.Run)}
}

func (f *fakeStore) SaveRun(_ context.Context, run storage.Run) error {
	if _, ok := f.runs[run.ID]; !ok {
		f.order = append(f.order, run.ID)
	}
	f.runs[run.ID] = run
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, id string) (*storage.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &run, nil
}

func (f *fakeStore) ListRuns(_ context.Context, inputType string, limit, offset uint64) ([]storage.Run, error) {
	f.lastLimit, f.lastOffset = limit, offset
	var out []storage.Run
	for _, id := range f.order {
		if run := f.runs[id]; inputType == "" || run.InputType == inputType {
			out = append(out, run)
		}
	}
	return out, nil
}

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(store runStore) *runRepo {
	r := NewRunRepo(&Data{store: store}, log.DefaultLogger).(*runRepo)
	r.now = func() time.Time { return created }
	return r
}

func researchState() workflow.State {
	return workflow.State{
		RunID:     "r1",
		Status:    workflow.PhaseComplete,
		InputType: model.InputResearch,
		Report: &model.SummaryReport{
			Title:    "Dividend Investment Research Report",
			TopPicks: []model.InvestmentRecord{{Symbol: "VYM"}, {Symbol: "SCHD"}},
		},
		Trace: []string{"guard_intent", "load_preferences"},
	}
}

func TestRunRepo_SaveAndGet(t *testing.T) {
	r := newTestRepo(newFakeStore())
	ctx := context.Background()

	require.NoError(t, r.SaveRun(ctx, researchState()))
	run, err := r.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "complete", run.Status)
	assert.Equal(t, "research", run.InputType)
	assert.Equal(t, created, run.CreatedAt)
	require.NotNil(t, run.Report)
	assert.Len(t, run.Report.TopPicks, 2)
	assert.Equal(t, []string{"guard_intent", "load_preferences"}, run.Trace)
}

func TestRunRepo_GetMissing(t *testing.T) {
	r := newTestRepo(newFakeStore())
	_, err := r.GetRun(context.Background(), "nope")
	assert.True(t, kerrors.IsNotFound(err))
}

func TestRunRepo_List(t *testing.T) {
	store := newFakeStore()
	r := newTestRepo(store)
	ctx := context.Background()

	require.NoError(t, r.SaveRun(ctx, researchState()))
	require.NoError(t, r.SaveRun(ctx, workflow.State{RunID: "r2", Status: workflow.PhaseError, InputType: model.InputGeneral, Error: "boom"}))

	runs, err := r.ListRuns(ctx, "", 2, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(10), store.lastLimit)
	assert.Equal(t, uint64(10), store.lastOffset)
	assert.Equal(t, "Dividend Investment Research Report", runs[0].Title)
	assert.Equal(t, 2, runs[0].PickCount)
	assert.Equal(t, "boom", runs[1].Error)
	assert.Zero(t, runs[1].PickCount)

	runs, err = r.ListRuns(ctx, "general", 1, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r2", runs[0].ID)
}

func TestRunRepo_StorageDisabled(t *testing.T) {
	r := NewRunRepo(&Data{}, log.DefaultLogger)
	ctx := context.Background()

	assert.NoError(t, r.SaveRun(ctx, researchState()))
	_, err := r.ListRuns(ctx, "", 1, 10)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = r.GetRun(ctx, "r1")
	assert.Equal(t, 503, kerrors.Code(err))
}
