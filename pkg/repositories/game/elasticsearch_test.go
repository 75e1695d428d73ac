package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockBaseRepository is a testify mock of the Repository interface
type MockBaseRepository struct {
	mock.Mock
}

func (m *MockBaseRepository) SaveRound(ctx context.Context, summary *entities.GameSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockBaseRepository) GetRound(ctx context.Context, roundID string) (*entities.GameSummary, error) {
	args := m.Called(ctx, roundID)
	summary, _ := args.Get(0).(*entities.GameSummary)
	return summary, args.Error(1)
}

func (m *MockBaseRepository) GetRecentRounds(ctx context.Context, limit int) ([]*entities.GameSummary, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entities.GameSummary), args.Error(1)
}

func (m *MockBaseRepository) GetPlayerRounds(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error) {
	args := m.Called(ctx, playerName, limit)
	return args.Get(0).([]*entities.GameSummary), args.Error(1)
}

func (m *MockBaseRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	args := m.Called(ctx, playerName)
	return args.Get(0).(*entities.PlayerStatistics), args.Error(1)
}

func (m *MockBaseRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.PlayerStatistics), args.Error(1)
}

func (m *MockBaseRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeElasticsearch serves the handful of endpoints the repository uses
type fakeElasticsearch struct {
	mu          sync.Mutex
	indexExists bool
	created     int
	docs        map[string]ESRound
	order       []string
	failIndex   bool
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if !f.indexExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && len(parts) == 1:
		f.indexExists = true
		f.created++
		_, _ = w.Write([]byte(`{"acknowledged":true,"index":"` + parts[0] + `"}`))

	case r.Method == http.MethodPut && len(parts) == 3 && parts[1] == "_doc":
		if f.failIndex {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom","status":500}`))
			return
		}
		var doc ESRound
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, seen := f.docs[parts[2]]; !seen {
			f.order = append(f.order, parts[2])
		}
		f.docs[parts[2]] = doc
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"` + parts[2] + `","result":"created"}`))

	case len(parts) == 2 && parts[1] == "_search":
		var query struct {
			Query struct {
				Term map[string]string `json:"term"`
			} `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&query)
		name := query.Query.Term["player_names"]

		var resp esSearchResponse
		for i := len(f.order) - 1; i >= 0; i-- {
			doc := f.docs[f.order[i]]
			for _, p := range doc.PlayerNames {
				if p == name {
					resp.Hits.Hits = append(resp.Hits.Hits, struct {
						Source ESRound `json:"_source"`
					}{Source: doc})
				}
			}
		}
		resp.Hits.Total.Value = len(resp.Hits.Hits)
		_ = json.NewEncoder(w).Encode(resp)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type ElasticsearchTestSuite struct {
	suite.Suite
	ctx    context.Context
	fake   *fakeElasticsearch
	server *httptest.Server
}

func TestElasticsearchSuite(t *testing.T) {
	suite.Run(t, new(ElasticsearchTestSuite))
}

func (s *ElasticsearchTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.fake = &fakeElasticsearch{docs: make(map[string]ESRound)}
	s.server = httptest.NewServer(s.fake)
}

func (s *ElasticsearchTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ElasticsearchTestSuite) newRepo(base Repository) *ElasticsearchRepository {
	repo, err := NewElasticsearchRepository(s.ctx, base, ElasticsearchConfig{
		URL:         s.server.URL,
		IndexPrefix: "test",
	}, logging.Nop())
	s.Require().NoError(err)
	return repo
}

func (s *ElasticsearchTestSuite) TestCreatesIndexOnce() {
	repo := s.newRepo(NewMemoryRepository())
	s.Equal("test_rounds", repo.GetIndexName())
	s.Equal(1, s.fake.created)

	s.newRepo(NewMemoryRepository())
	s.Equal(1, s.fake.created, "An existing index is left alone")
}

func (s *ElasticsearchTestSuite) TestSaveRoundIndexesDocument() {
	base := NewMemoryRepository()
	repo := s.newRepo(base)

	doubled := hand("alice", "h1", entities.ResultWin,
		entities.NewCard(entities.Spades, entities.Five), entities.NewCard(entities.Hearts, entities.Six),
		entities.NewCard(entities.Clubs, entities.King))
	doubled.Value = 21
	doubled.IsDoubled = true
	summary := round("r1", 0, player("alice", 20, 40, doubled))
	summary.Payouts.Payouts = append(summary.Payouts.Payouts, entities.Payout{
		PlayerName:  "alice",
		HandID:      "h1",
		Wager:       entities.Dollars(10),
		TotalReturn: entities.Dollars(20),
	})
	summary.Payouts.Payouts[0].TotalReturn = entities.Dollars(20)

	s.Require().NoError(repo.SaveRound(s.ctx, summary))

	stored, err := repo.GetRound(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("r1", stored.RoundID)

	doc, ok := s.fake.docs["r1"]
	s.Require().True(ok)
	s.Equal([]string{"alice"}, doc.PlayerNames)
	s.Equal("USD", doc.Currency)
	s.Equal([]string{"10 of HEARTS", "7 of CLUBS"}, doc.DealerCards)
	s.Require().Len(doc.Hands, 1)
	s.Equal("WIN", doc.Hands[0].Result)
	s.Equal(int64(2000), doc.Hands[0].Bet)
	s.Equal(int64(4000), doc.Hands[0].Returned)
	s.Equal(21, doc.Hands[0].Score)
	s.True(doc.Hands[0].IsDoubled)
	s.Len(doc.Hands[0].Cards, 3)

	stats, err := repo.GetPlayerStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, stats.RoundsPlayed)
}

func (s *ElasticsearchTestSuite) TestSearchPlayerRounds() {
	repo := s.newRepo(NewMemoryRepository())
	s.Require().NoError(repo.SaveRound(s.ctx, round("r1", 0, player("alice", 10, 0, hand("alice", "a1", entities.ResultLose)))))
	s.Require().NoError(repo.SaveRound(s.ctx, round("r2", 1, player("bob", 10, 0, hand("bob", "b1", entities.ResultLose)))))
	s.Require().NoError(repo.SaveRound(s.ctx, round("r3", 2, player("alice", 10, 20, hand("alice", "a2", entities.ResultWin)))))

	rounds, err := repo.SearchPlayerRounds(s.ctx, "alice", 5)
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal("r3", rounds[0].RoundID)
	s.Equal("r1", rounds[1].RoundID)
}

func (s *ElasticsearchTestSuite) TestBaseFailureSkipsIndexing() {
	base := new(MockBaseRepository)
	summary := round("r1", 0)
	base.On("SaveRound", mock.Anything, summary).Return(errors.New("disk full")).Once()
	repo := s.newRepo(base)

	err := repo.SaveRound(s.ctx, summary)

	s.Error(err)
	s.Empty(s.fake.docs)
	base.AssertExpectations(s.T())
}

func (s *ElasticsearchTestSuite) TestIndexFailure() {
	base := new(MockBaseRepository)
	summary := round("r1", 0)
	base.On("SaveRound", mock.Anything, summary).Return(nil).Once()
	base.On("Close").Return(nil).Once()
	repo := s.newRepo(base)
	s.fake.failIndex = true

	s.Error(repo.SaveRound(s.ctx, summary))
	s.NoError(repo.Close())
	base.AssertExpectations(s.T())
}

func (s *ElasticsearchTestSuite) TestReindexRecentCatchesUp() {
	repo := s.newRepo(NewMemoryRepository())
	s.fake.failIndex = true
	s.Error(repo.SaveRound(s.ctx, round("r1", 0, player("alice", 10, 0, hand("alice", "a1", entities.ResultLose)))))
	s.Error(repo.SaveRound(s.ctx, round("r2", 1, player("bob", 10, 0, hand("bob", "b1", entities.ResultLose)))))
	s.Empty(s.fake.docs)

	s.fake.failIndex = false
	indexed, err := repo.ReindexRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(2, indexed)
	s.Contains(s.fake.docs, "r1")
	s.Contains(s.fake.docs, "r2")

	indexed, err = repo.ReindexRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, indexed)
	s.Len(s.fake.docs, 2)
}

func (s *ElasticsearchTestSuite) TestReindexRecentBaseFailure() {
	base := new(MockBaseRepository)
	base.On("GetRecentRounds", mock.Anything, 5).Return([]*entities.GameSummary(nil), errors.New("locked")).Once()
	repo := s.newRepo(base)

	indexed, err := repo.ReindexRecent(s.ctx, 5)
	s.Error(err)
	s.Zero(indexed)
	base.AssertExpectations(s.T())
}
