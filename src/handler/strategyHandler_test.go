package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tastytracker/src/identifier"
	"tastytracker/src/model"
	"tastytracker/src/repository"
)

type mockUserGetter struct {
	users map[uint]*model.User
	err   error
}

func (m *mockUserGetter) GetByID(ctx context.Context, id uint) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

type mockStrategySearcher struct {
	strategies []model.TradingStrategy
	err        error
	opts       repository.StrategySearchOptions
	called     int
}

func (m *mockStrategySearcher) Search(ctx context.Context, opts repository.StrategySearchOptions) ([]model.TradingStrategy, error) {
	m.called++
	m.opts = opts
	return m.strategies, m.err
}

type mockIdentifyRunner struct {
	strategies []*model.TradingStrategy
	report     *identifier.RunReport
	err        error
	account    string
	dryRun     bool
	called     int
}

func (m *mockIdentifyRunner) IdentifyForUser(ctx context.Context, user *model.User, accountNumber string, dryRun bool) ([]*model.TradingStrategy, *identifier.RunReport, error) {
	m.called++
	m.account = accountNumber
	m.dryRun = dryRun
	return m.strategies, m.report, m.err
}

func knownUsers() *mockUserGetter {
	return &mockUserGetter{users: map[uint]*model.User{7: {ID: 7, Username: "alice"}}}
}

func TestIdentifyHandler_MissingUser(t *testing.T) {
	handler := IdentifyHandler(knownUsers(), &mockIdentifyRunner{})

	req := httptest.NewRequest(http.MethodPost, "/identify", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIdentifyHandler_UserNotFound(t *testing.T) {
	handler := IdentifyHandler(knownUsers(), &mockIdentifyRunner{})

	req := httptest.NewRequest(http.MethodPost, "/identify?userId=99", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIdentifyHandler_RunsAndReturnsReport(t *testing.T) {
	runner := &mockIdentifyRunner{
		report: &identifier.RunReport{RunID: "run-1", UserID: 7, StrategiesCreated: 2},
	}
	handler := IdentifyHandler(knownUsers(), runner)

	req := httptest.NewRequest(http.MethodPost, "/identify?userId=7&account=5WX01234&dryRun=true", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, runner.called)
	assert.Equal(t, "5WX01234", runner.account)
	assert.True(t, runner.dryRun)

	var body struct {
		Report identifier.RunReport `json:"report"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.Report.RunID)
	assert.Equal(t, 2, body.Report.StrategiesCreated)
}

func TestIdentifyHandler_InvalidDryRun(t *testing.T) {
	handler := IdentifyHandler(knownUsers(), &mockIdentifyRunner{})

	req := httptest.NewRequest(http.MethodPost, "/identify?userId=7&dryRun=banana", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIdentifyHandler_RunnerError(t *testing.T) {
	handler := IdentifyHandler(knownUsers(), &mockIdentifyRunner{err: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/identify?userId=7", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSearchStrategiesHandler_PassesFilters(t *testing.T) {
	repo := &mockStrategySearcher{strategies: []model.TradingStrategy{{ID: 1, StrategyType: model.StrategyIronCondor}}}
	handler := SearchStrategiesHandler(knownUsers(), repo)

	req := httptest.NewRequest(http.MethodGet, "/strategies?userId=7&status=open&type=iron_condor&page=2&pageSize=10", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, repo.called)
	assert.Equal(t, uint(7), repo.opts.UserID)
	if assert.NotNil(t, repo.opts.Status) {
		assert.Equal(t, "open", *repo.opts.Status)
	}
	if assert.NotNil(t, repo.opts.StrategyType) {
		assert.Equal(t, model.StrategyIronCondor, *repo.opts.StrategyType)
	}
	assert.Equal(t, 10, repo.opts.Limit)
	assert.Equal(t, 10, repo.opts.Offset)

	var strategies []model.TradingStrategy
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &strategies))
	assert.Len(t, strategies, 1)
}

func TestSearchStrategiesHandler_InvalidPage(t *testing.T) {
	handler := SearchStrategiesHandler(knownUsers(), &mockStrategySearcher{})

	req := httptest.NewRequest(http.MethodGet, "/strategies?userId=7&page=0", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchStrategiesHandler_RepoError(t *testing.T) {
	handler := SearchStrategiesHandler(knownUsers(), &mockStrategySearcher{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/strategies?userId=7", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
