package matching

import (
	"context"
	"errors"
	"fmt"

	"recruit-matcher/internal/document"
	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPoolLoad                = errors.New("load pool")
	ErrRequestNotFound         = errors.New("hiring request not open")
	ErrInvalidRecommendation   = errors.New("invalid recommendation")
	ErrRecommendationWrite     = errors.New("write recommendation")
	ErrDuplicateRecommendation = errors.New("candidate already recommended for request")
	ErrCandidateNotInSession   = errors.New("candidate not in working set")
)

// DefaultRecommendedBy 未提供操作人时写入的默认值。
const DefaultRecommendedBy = "admin"

// Store 文档库读写接口，匹配只需要整集合读取与追加。
type Store interface {
	ListAll(ctx context.Context, collection string) ([]model.Document, error)
	Append(ctx context.Context, collection string, fields map[string]any) (string, error)
}

// Notifier 推荐写入成功后的通知。
type Notifier interface {
	NotifyRecommendation(ctx context.Context, rec model.Recommendation) error
}

// Config 控制推荐写入行为。
type Config struct {
	RejectDuplicates bool `mapstructure:"reject_duplicates" yaml:"reject_duplicates"`
}

// Pool 一次匹配会话使用的只读快照。
type Pool struct {
	Requests   []model.HiringRequest `json:"requests"`
	Candidates []model.Candidate     `json:"candidates"`
}

// Request 在池内查找需求。
func (p Pool) Request(id string) (model.HiringRequest, bool) {
	for _, r := range p.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return model.HiringRequest{}, false
}

// RecommendInput 推荐请求参数。
type RecommendInput struct {
	RequestID     string `validate:"required"`
	CandidateID   string `validate:"required"`
	AgencyID      string
	RecommendedBy string
}

// Engine 组合文档库与纯匹配逻辑。
type Engine struct {
	store    Store
	cfg      Config
	notif    Notifier
	logger   *zap.Logger
	validate *validator.Validate
}

// NewEngine 创建 Engine，notif 与 log 可为空。
func NewEngine(store Store, cfg Config, notif Notifier, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		cfg:      cfg,
		notif:    notif,
		logger:   logger.OrNop(log),
		validate: validator.New(),
	}
}

// LoadPool 并发读取需求与候选人集合并过滤。
// 读取失败时返回空池与 ErrPoolLoad，调用方可将其视同空池展示。
func (e *Engine) LoadPool(ctx context.Context) (Pool, error) {
	var (
		requests   []model.HiringRequest
		candidates []model.Candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = e.openRequests(gctx)
		return err
	})
	g.Go(func() error {
		docs, err := e.store.ListAll(gctx, model.CollectionCandidates)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		candidates = make([]model.Candidate, 0, len(docs))
		for _, doc := range docs {
			c, err := document.ParseCandidate(doc)
			if err != nil {
				e.skip(doc, err)
				continue
			}
			if c.Eligible() {
				candidates = append(candidates, c)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		e.logger.Error("load pool", zap.Error(err))
		return emptyPool(), fmt.Errorf("%w: %w", ErrPoolLoad, err)
	}

	e.logger.Debug("pool loaded",
		zap.Int("requests", len(requests)),
		zap.Int("candidates", len(candidates)),
	)
	return Pool{Requests: requests, Candidates: candidates}, nil
}

// OpenRequest 返回处于可匹配状态的需求。
func (e *Engine) OpenRequest(ctx context.Context, id string) (model.HiringRequest, error) {
	requests, err := e.openRequests(ctx)
	if err != nil {
		return model.HiringRequest{}, err
	}
	for _, r := range requests {
		if r.ID == id {
			return r, nil
		}
	}
	return model.HiringRequest{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
}

// Match 加载池并计算指定需求的匹配结果。
func (e *Engine) Match(ctx context.Context, requestID string) (model.HiringRequest, []model.Candidate, error) {
	pool, err := e.LoadPool(ctx)
	if err != nil {
		return model.HiringRequest{}, nil, err
	}
	request, ok := pool.Request(requestID)
	if !ok {
		return model.HiringRequest{}, nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	return request, FindMatches(request, pool.Candidates), nil
}

// Recommend 追加一条推荐记录，不修改候选人与需求。
func (e *Engine) Recommend(ctx context.Context, in RecommendInput) (string, error) {
	if err := e.validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecommendation, err)
	}
	if in.RecommendedBy == "" {
		in.RecommendedBy = DefaultRecommendedBy
	}

	if e.cfg.RejectDuplicates {
		existing, err := e.ListRecommendations(ctx, in.RequestID)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRecommendationWrite, err)
		}
		for _, rec := range existing {
			if rec.CandidateID == in.CandidateID {
				return "", fmt.Errorf("%w: %s/%s", ErrDuplicateRecommendation, in.RequestID, in.CandidateID)
			}
		}
	}

	rec := model.Recommendation{
		HiringRequestID: in.RequestID,
		CandidateID:     in.CandidateID,
		AgencyID:        in.AgencyID,
		Status:          model.RecommendationRecommended,
		RecommendedBy:   in.RecommendedBy,
	}
	id, err := e.store.Append(ctx, model.CollectionRecommendations, document.RecommendationFields(rec))
	if err != nil {
		e.logger.Error("write recommendation",
			zap.String("request_id", in.RequestID),
			zap.String("candidate_id", in.CandidateID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrRecommendationWrite, err)
	}
	rec.ID = id

	e.logger.Info("candidate recommended",
		zap.String("recommendation_id", id),
		zap.String("request_id", in.RequestID),
		zap.String("candidate_id", in.CandidateID),
		zap.String("recommended_by", in.RecommendedBy),
	)

	if e.notif != nil {
		if err := e.notif.NotifyRecommendation(ctx, rec); err != nil {
			e.logger.Warn("notify recommendation", zap.String("recommendation_id", id), zap.Error(err))
		}
	}
	return id, nil
}

// ListRecommendations 返回某需求下已记录的推荐。
func (e *Engine) ListRecommendations(ctx context.Context, requestID string) ([]model.Recommendation, error) {
	docs, err := e.store.ListAll(ctx, model.CollectionRecommendations)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	recs := make([]model.Recommendation, 0)
	for _, doc := range docs {
		rec, err := document.ParseRecommendation(doc)
		if err != nil {
			e.skip(doc, err)
			continue
		}
		if rec.HiringRequestID == requestID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (e *Engine) openRequests(ctx context.Context) ([]model.HiringRequest, error) {
	docs, err := e.store.ListAll(ctx, model.CollectionHiringRequests)
	if err != nil {
		return nil, fmt.Errorf("list hiring requests: %w", err)
	}
	requests := make([]model.HiringRequest, 0, len(docs))
	for _, doc := range docs {
		r, err := document.ParseHiringRequest(doc)
		if err != nil {
			e.skip(doc, err)
			continue
		}
		if r.Status.Open() {
			requests = append(requests, r)
		}
	}
	return requests, nil
}

func (e *Engine) skip(doc model.Document, err error) {
	e.logger.Warn("skip document",
		zap.String("collection", doc.Collection),
		zap.String("id", doc.ID),
		zap.Error(err),
	)
}

func emptyPool() Pool {
	return Pool{Requests: []model.HiringRequest{}, Candidates: []model.Candidate{}}
}
