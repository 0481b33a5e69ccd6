package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"recruit-matcher/internal/auth"
	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Matcher 抽象匹配引擎。
type Matcher interface {
	LoadPool(ctx context.Context) (matching.Pool, error)
	OpenRequest(ctx context.Context, id string) (model.HiringRequest, error)
	Match(ctx context.Context, requestID string) (model.HiringRequest, []model.Candidate, error)
	Recommend(ctx context.Context, in matching.RecommendInput) (string, error)
	ListRecommendations(ctx context.Context, requestID string) ([]model.Recommendation, error)
}

// Digester 抽象摘要调度接口。
type Digester interface {
	RunOnce(ctx context.Context) (int, error)
}

// Authenticator 校验请求身份，为空时不鉴权。
type Authenticator interface {
	Authenticate(r *http.Request) (auth.Principal, error)
}

// RecommendationRequest 表示推荐 API 请求。
type RecommendationRequest struct {
	HiringRequestID string `json:"hiring_request_id" validate:"required"`
	CandidateID     string `json:"candidate_id" validate:"required"`
}

// MatchesResponse 单个需求的匹配结果。
type MatchesResponse struct {
	Request    model.HiringRequest `json:"request"`
	Candidates []model.Candidate   `json:"candidates"`
}

type handler struct {
	matcher  Matcher
	digest   Digester
	authn    Authenticator
	logger   *zap.Logger
	validate *validator.Validate
}

type principalKey struct{}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(matcher Matcher, digest Digester, authn Authenticator, log *zap.Logger) http.Handler {
	h := &handler{
		matcher:  matcher,
		digest:   digest,
		authn:    authn,
		logger:   logger.OrNop(log).Named("api"),
		validate: validator.New(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/pool", h.protect(h.pool))
	mux.HandleFunc("GET /api/requests/{id}/matches", h.protect(h.matches))
	mux.HandleFunc("GET /api/requests/{id}/recommendations", h.protect(h.recommendations))
	mux.HandleFunc("POST /api/recommendations", h.protect(h.recommend))
	mux.HandleFunc("POST /api/digest", h.protect(h.runDigest))

	return mux
}

func (h *handler) protect(next http.HandlerFunc) http.HandlerFunc {
	if h.authn == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.authn.Authenticate(r)
		if err != nil {
			h.logger.Debug("reject request", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, httpStatus(err), err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	}
}

func (h *handler) pool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.matcher.LoadPool(r.Context())
	if err != nil {
		// 读取失败按空池展示，错误已记录。
		h.logger.Warn("pool unavailable", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *handler) matches(w http.ResponseWriter, r *http.Request) {
	req, candidates, err := h.matcher.Match(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, httpStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, MatchesResponse{Request: req, Candidates: candidates})
}

func (h *handler) recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.matcher.ListRecommendations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, httpStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handler) recommend(w http.ResponseWriter, r *http.Request) {
	var payload RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	request, err := h.matcher.OpenRequest(r.Context(), payload.HiringRequestID)
	if err != nil {
		writeError(w, httpStatus(err), err)
		return
	}

	by := matching.DefaultRecommendedBy
	if p, ok := r.Context().Value(principalKey{}).(auth.Principal); ok && p.Subject != "" {
		by = p.Subject
	}

	id, err := h.matcher.Recommend(r.Context(), matching.RecommendInput{
		RequestID:     request.ID,
		CandidateID:   payload.CandidateID,
		AgencyID:      request.AgencyID,
		RecommendedBy: by,
	})
	if err != nil {
		writeError(w, httpStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) runDigest(w http.ResponseWriter, r *http.Request) {
	if h.digest == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "digest disabled"})
		return
	}
	n, err := h.digest.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"requests": n})
}

// httpStatus 将领域错误映射为 HTTP 状态码。
func httpStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, matching.ErrInvalidRecommendation):
		return http.StatusBadRequest
	case errors.Is(err, matching.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrDuplicateRecommendation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
