package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/display/internal/domain"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// mockRunner 记录收到的请求并返回固定状态
type mockRunner struct {
	state workflow.State
	reqs  []workflow.Request
}

func (m *mockRunner) Run(_ context.Context, req workflow.Request) workflow.State {
	m.reqs = append(m.reqs, req)
	return m.state
}

// mockRunRepo 模拟运行记录仓库
type mockRunRepo struct {
	saved    []workflow.State
	saveErr  error
	page     int
	pageSize int
}

func (m *mockRunRepo) SaveRun(_ context.Context, s workflow.State) error {
	m.saved = append(m.saved, s)
	return m.saveErr
}

func (m *mockRunRepo) ListRuns(_ context.Context, _ string, page, pageSize int) ([]*domain.RunSummary, error) {
	m.page, m.pageSize = page, pageSize
	return []*domain.RunSummary{{ID: "r1"}}, nil
}

func (m *mockRunRepo) GetRun(_ context.Context, id string) (*domain.Run, error) {
	return &domain.Run{ID: id}, nil
}

type mockStatus struct{}

func (mockStatus) MarketStatus(context.Context) (*model.MarketStatus, error) {
	return &model.MarketStatus{MarketStatus: "open", LastUpdated: "2024-05-01"}, nil
}

func TestAdvisorUseCase_ResearchSavesRun(t *testing.T) {
	runner := &mockRunner{state: workflow.State{RunID: "r1", Status: workflow.PhaseComplete}}
	repo := &mockRunRepo{}
	uc := NewAdvisorUseCase(runner, nil, repo, log.DefaultLogger)

	req := model.ResearchRequest{Sectors: []string{"tech"}, Regions: []string{"usa"}, YieldRange: []float64{2, 5}}
	s := uc.Research(context.Background(), req)

	assert.Equal(t, "r1", s.RunID)
	require.Len(t, runner.reqs, 1)
	require.NotNil(t, runner.reqs[0].Research)
	assert.Equal(t, []string{"tech"}, runner.reqs[0].Research.Sectors)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "r1", repo.saved[0].RunID)
}

func TestAdvisorUseCase_ChatIgnoresSaveError(t *testing.T) {
	runner := &mockRunner{state: workflow.State{RunID: "c1", Status: workflow.PhaseComplete}}
	uc := NewAdvisorUseCase(runner, nil, &mockRunRepo{saveErr: errors.New("db down")}, log.DefaultLogger)

	s := uc.Chat(context.Background(), "hello")
	assert.Equal(t, workflow.PhaseComplete, s.Status)
	require.NotNil(t, runner.reqs[0].UserInput)
	assert.Equal(t, "hello", *runner.reqs[0].UserInput)
}

func TestAdvisorUseCase_MarketStatus(t *testing.T) {
	uc := NewAdvisorUseCase(&mockRunner{}, nil, &mockRunRepo{}, log.DefaultLogger)
	_, err := uc.MarketStatus(context.Background())
	assert.ErrorIs(t, err, ErrNoStatusSource)

	uc = NewAdvisorUseCase(&mockRunner{}, mockStatus{}, &mockRunRepo{}, log.DefaultLogger)
	st, err := uc.MarketStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", st.MarketStatus)
}

func TestAdvisorUseCase_ListRunsNormalizesPaging(t *testing.T) {
	repo := &mockRunRepo{}
	uc := NewAdvisorUseCase(&mockRunner{}, nil, repo, log.DefaultLogger)

	runs, err := uc.ListRuns(context.Background(), "", 0, 1000)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, 1, repo.page)
	assert.Equal(t, 10, repo.pageSize)
}
