package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/pkg/entities"
)

const roundMapping = `{
	"mappings": {
		"properties": {
			"round_id": { "type": "keyword" },
			"started_at": { "type": "date" },
			"completed_at": { "type": "date" },
			"currency": { "type": "keyword" },
			"player_names": { "type": "keyword" },
			"dealer_cards": { "type": "keyword" },
			"dealer_score": { "type": "integer" },
			"dealer_busted": { "type": "boolean" },
			"dealer_blackjack": { "type": "boolean" },
			"hands": {
				"type": "nested",
				"properties": {
					"player_name": { "type": "keyword" },
					"hand_id": { "type": "keyword" },
					"cards": { "type": "keyword" },
					"score": { "type": "integer" },
					"result": { "type": "keyword" },
					"bet": { "type": "long" },
					"returned": { "type": "long" },
					"blackjack": { "type": "boolean" },
					"busted": { "type": "boolean" },
					"is_split": { "type": "boolean" },
					"is_doubled": { "type": "boolean" }
				}
			}
		}
	}
}`

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "blackjack",
	}
}

// ElasticsearchRepository decorates a base repository, indexing every saved
// round for search. Reads of rounds and statistics go to the base repository.
type ElasticsearchRepository struct {
	baseRepo   Repository
	client     *elasticsearch.Client
	roundIndex string
	logger     *logging.Logger
}

// NewElasticsearchRepository connects to Elasticsearch and creates the round
// index if it does not exist yet
func NewElasticsearchRepository(ctx context.Context, baseRepo Repository, config ElasticsearchConfig, logger *logging.Logger) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = DefaultElasticsearchConfig().IndexPrefix
	}
	if logger == nil {
		logger = logging.Default
	}

	repo := &ElasticsearchRepository{
		baseRepo:   baseRepo,
		client:     client,
		roundIndex: config.IndexPrefix + "_rounds",
		logger:     logger,
	}
	if err := repo.initIndex(ctx); err != nil {
		return nil, fmt.Errorf("error initializing indices: %w", err)
	}
	return repo, nil
}

// initIndex creates the round index if it doesn't exist
func (r *ElasticsearchRepository) initIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.roundIndex}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if round index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: r.roundIndex,
		Body:  bytes.NewReader([]byte(roundMapping)),
	}
	res, err = req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error creating round index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating round index: %s", res.String())
	}
	r.logger.Info("Created Elasticsearch index %s", r.roundIndex)
	return nil
}

// SaveRound saves the round to the base repository, then indexes it
func (r *ElasticsearchRepository) SaveRound(ctx context.Context, summary *entities.GameSummary) error {
	if err := r.baseRepo.SaveRound(ctx, summary); err != nil {
		return fmt.Errorf("error saving round to base repository: %w", err)
	}
	return r.IndexRound(ctx, summary)
}

// IndexRound indexes a round document keyed by round ID
func (r *ElasticsearchRepository) IndexRound(ctx context.Context, summary *entities.GameSummary) error {
	data, err := json.Marshal(ToESRound(summary))
	if err != nil {
		return fmt.Errorf("error marshaling round: %w", err)
	}

	res, err := r.client.Index(
		r.roundIndex,
		bytes.NewReader(data),
		r.client.Index.WithDocumentID(summary.RoundID),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error indexing round: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing round: %s", res.String())
	}
	r.logger.Debug("Indexed round %s", summary.RoundID)
	return nil
}

// ReindexRecent indexes the limit most recent rounds of the base repository
// again. Indexing by round ID is idempotent, so rounds whose first indexing
// failed catch up and the rest are overwritten unchanged.
func (r *ElasticsearchRepository) ReindexRecent(ctx context.Context, limit int) (int, error) {
	rounds, err := r.baseRepo.GetRecentRounds(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("error loading rounds to reindex: %w", err)
	}

	indexed := 0
	for _, summary := range rounds {
		if err := r.IndexRound(ctx, summary); err != nil {
			return indexed, err
		}
		indexed++
	}
	r.logger.Debug("Reindexed %d rounds", indexed)
	return indexed, nil
}

// SearchPlayerRounds returns up to limit indexed rounds the player sat in,
// newest first
func (r *ElasticsearchRepository) SearchPlayerRounds(ctx context.Context, playerName string, limit int) ([]*ESRound, error) {
	if limit <= 0 {
		limit = 10
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"player_names": playerName},
		},
		"sort": []interface{}{
			map[string]interface{}{"completed_at": map[string]string{"order": "desc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error encoding round search: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.roundIndex),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching rounds: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching rounds: %s", res.String())
	}

	var result esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing round search: %w", err)
	}

	rounds := make([]*ESRound, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		rounds = append(rounds, &result.Hits.Hits[i].Source)
	}
	return rounds, nil
}

// GetRound delegates to the base repository
func (r *ElasticsearchRepository) GetRound(ctx context.Context, roundID string) (*entities.GameSummary, error) {
	return r.baseRepo.GetRound(ctx, roundID)
}

// GetRecentRounds delegates to the base repository
func (r *ElasticsearchRepository) GetRecentRounds(ctx context.Context, limit int) ([]*entities.GameSummary, error) {
	return r.baseRepo.GetRecentRounds(ctx, limit)
}

// GetPlayerRounds delegates to the base repository
func (r *ElasticsearchRepository) GetPlayerRounds(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error) {
	return r.baseRepo.GetPlayerRounds(ctx, playerName, limit)
}

// GetPlayerStatistics delegates to the base repository
func (r *ElasticsearchRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	return r.baseRepo.GetPlayerStatistics(ctx, playerName)
}

// GetAllPlayerStatistics delegates to the base repository
func (r *ElasticsearchRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	return r.baseRepo.GetAllPlayerStatistics(ctx)
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}

// GetIndexName returns the name of the round index
func (r *ElasticsearchRepository) GetIndexName() string {
	return r.roundIndex
}
