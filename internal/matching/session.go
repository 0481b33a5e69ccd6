package matching

import (
	"context"
	"fmt"

	"recruit-matcher/internal/model"
)

// Recommender 记录推荐的接口，Engine 实现之。
type Recommender interface {
	Recommend(ctx context.Context, in RecommendInput) (string, error)
}

// Session 操作员针对单个需求的本地工作集。
// 推荐成功后候选人仅从工作集中移除，不回写候选人池。
type Session struct {
	rec     Recommender
	request model.HiringRequest
	matches []model.Candidate
}

// NewSession 基于池快照计算初始工作集。
func NewSession(rec Recommender, request model.HiringRequest, candidates []model.Candidate) *Session {
	return &Session{
		rec:     rec,
		request: request,
		matches: FindMatches(request, candidates),
	}
}

// Request 返回会话对应的需求。
func (s *Session) Request() model.HiringRequest {
	return s.request
}

// Matches 返回当前工作集副本。
func (s *Session) Matches() []model.Candidate {
	out := make([]model.Candidate, len(s.matches))
	copy(out, s.matches)
	return out
}

// Recommend 写入推荐，成功后才从工作集移除候选人；失败时工作集保持不变。
func (s *Session) Recommend(ctx context.Context, candidateID, recommendedBy string) (string, error) {
	idx := -1
	for i, c := range s.matches {
		if c.ID == candidateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrCandidateNotInSession, candidateID)
	}

	id, err := s.rec.Recommend(ctx, RecommendInput{
		RequestID:     s.request.ID,
		CandidateID:   candidateID,
		AgencyID:      s.request.AgencyID,
		RecommendedBy: recommendedBy,
	})
	if err != nil {
		return "", err
	}

	remaining := make([]model.Candidate, 0, len(s.matches)-1)
	remaining = append(remaining, s.matches[:idx]...)
	remaining = append(remaining, s.matches[idx+1:]...)
	s.matches = remaining
	return id, nil
}
