package notifier

import (
	"context"

	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/model"

	"go.uber.org/zap"
)

// LogNotifier 仅写日志，未配置邮件时使用。
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器，logger 为空时不输出。
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.OrNop(log).Named("notify")}
}

// NotifyRecommendation 记录一条推荐。
func (n *LogNotifier) NotifyRecommendation(_ context.Context, rec model.Recommendation) error {
	n.logger.Info("recommendation recorded",
		zap.String("recommendation_id", rec.ID),
		zap.String("request_id", rec.HiringRequestID),
		zap.String("candidate_id", rec.CandidateID),
		zap.String("agency_id", rec.AgencyID),
	)
	return nil
}

// NotifyDigest 逐条记录开放需求的匹配数量。
func (n *LogNotifier) NotifyDigest(_ context.Context, summaries []model.MatchSummary) error {
	for _, s := range summaries {
		n.logger.Info("open request",
			zap.String("request_id", s.RequestID),
			zap.String("job_title", s.JobTitle),
			zap.Int("quantity", s.Quantity),
			zap.Int("matches", s.Matches),
		)
	}
	return nil
}
