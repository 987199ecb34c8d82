package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/graphview"
)

// SnapshotRepository provides the bounded data snapshots graph views are built from.
type SnapshotRepository interface {
	FetchUsers(ctx context.Context, limit int) ([]domain.User, error)
	FetchTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// SnapshotCache stores serialized graph payloads keyed by view parameters.
// Implementations return ok=false on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// BuildObserver receives measurements for assembled graph views.
type BuildObserver interface {
	ObserveGraphBuild(view string, duration time.Duration, nodes, edges int)
	ObserveCacheLookup(hit bool)
}

// GraphServiceOptions configures snapshot bounds and assembly parameters.
type GraphServiceOptions struct {
	UserLimit        int
	TransactionLimit int
	Assembly         graphview.Options
}

// GraphService assembles visualization graphs from repository snapshots.
// Cache and observer are optional.
type GraphService struct {
	repo     SnapshotRepository
	cache    SnapshotCache
	observer BuildObserver
	logger   *slog.Logger
	opts     GraphServiceOptions
	nowFn    func() time.Time
}

// NewGraphService constructs a GraphService. A nil cache disables caching and
// a nil observer disables measurements.
func NewGraphService(repo SnapshotRepository, cache SnapshotCache, observer BuildObserver, logger *slog.Logger, opts GraphServiceOptions) *GraphService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UserLimit <= 0 {
		opts.UserLimit = 500
	}
	if opts.TransactionLimit <= 0 {
		opts.TransactionLimit = 500
	}
	return &GraphService{
		repo:     repo,
		cache:    cache,
		observer: observer,
		logger:   logger,
		opts:     opts,
		nowFn:    time.Now,
	}
}

// BuildGraph assembles the full filtered network view.
func (s *GraphService) BuildGraph(ctx context.Context, filters graphview.Filters) (graphview.Graph, error) {
	key := cacheKey("graph", filters)
	if payload, ok := s.cacheGet(ctx, key); ok {
		var cached graphview.Graph
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("discarding undecodable cached graph", "key", key)
	}

	users, txs, err := s.fetchSnapshot(ctx)
	if err != nil {
		return graphview.Graph{}, err
	}

	start := s.nowFn()
	graph := graphview.Assemble(users, txs, filters, s.opts.Assembly)
	s.observe("full", s.nowFn().Sub(start), len(graph.Nodes), len(graph.Edges))

	s.cacheSet(ctx, key, graph)
	return graph, nil
}

// BuildUserGraph assembles the 1-hop neighborhood around a user.
func (s *GraphService) BuildUserGraph(ctx context.Context, userID string, focus graphview.FocusFilter) (graphview.FocusedGraph, error) {
	return s.buildFocused(ctx, "user", userID, graphview.KindUser, focus)
}

// BuildTransactionGraph assembles the 1-hop neighborhood around a transaction.
func (s *GraphService) BuildTransactionGraph(ctx context.Context, txID string, focus graphview.FocusFilter) (graphview.FocusedGraph, error) {
	return s.buildFocused(ctx, "transaction", txID, graphview.KindTransaction, focus)
}

func (s *GraphService) buildFocused(ctx context.Context, view, focalID string, kind graphview.NodeKind, focus graphview.FocusFilter) (graphview.FocusedGraph, error) {
	if focalID == "" {
		return graphview.FocusedGraph{}, fmt.Errorf("%s ID is required", view)
	}
	if focus == "" {
		focus = graphview.FocusAll
	}

	key := cacheKey(view, struct {
		ID    string                `json:"id"`
		Focus graphview.FocusFilter `json:"focus"`
	}{focalID, focus})
	if payload, ok := s.cacheGet(ctx, key); ok {
		var cached graphview.FocusedGraph
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("discarding undecodable cached graph", "key", key)
	}

	users, txs, err := s.fetchSnapshot(ctx)
	if err != nil {
		return graphview.FocusedGraph{}, err
	}

	start := s.nowFn()
	graph := graphview.AssembleFocused(focalID, kind, users, txs, focus, s.opts.Assembly)
	s.observe(view, s.nowFn().Sub(start), len(graph.Nodes), len(graph.Edges))

	s.cacheSet(ctx, key, graph)
	return graph, nil
}

// fetchSnapshot loads users and transactions concurrently.
func (s *GraphService) fetchSnapshot(ctx context.Context) ([]domain.User, []domain.Transaction, error) {
	var (
		wg      sync.WaitGroup
		users   []domain.User
		txs     []domain.Transaction
		userErr error
		txErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, userErr = s.repo.FetchUsers(ctx, s.opts.UserLimit)
	}()
	go func() {
		defer wg.Done()
		txs, txErr = s.repo.FetchTransactions(ctx, s.opts.TransactionLimit)
	}()
	wg.Wait()

	if userErr != nil {
		return nil, nil, fmt.Errorf("fetch user snapshot: %w", userErr)
	}
	if txErr != nil {
		return nil, nil, fmt.Errorf("fetch transaction snapshot: %w", txErr)
	}
	return users, txs, nil
}

func (s *GraphService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("graph cache read failed", "key", key, "error", err)
		return nil, false
	}
	if s.observer != nil {
		s.observer.ObserveCacheLookup(ok)
	}
	return payload, ok
}

func (s *GraphService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("graph cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger.Warn("graph cache write failed", "key", key, "error", err)
	}
}

func (s *GraphService) observe(view string, duration time.Duration, nodes, edges int) {
	if s.observer != nil {
		s.observer.ObserveGraphBuild(view, duration, nodes, edges)
	}
}

func cacheKey(view string, params any) string {
	payload, err := json.Marshal(params)
	if err != nil {
		return view
	}
	return view + ":" + string(payload)
}
