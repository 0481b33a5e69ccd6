package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrMissingDependencies 调度器缺少池加载器或通知器。
var ErrMissingDependencies = errors.New("scheduler missing dependencies")

// Config 用于调度配置。Interval 可为 duration 或五段 cron 表达式。
type Config struct {
	Interval string `mapstructure:"interval" yaml:"interval" json:"interval"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// PoolLoader 加载当前开放需求与可用候选人。
type PoolLoader interface {
	LoadPool(ctx context.Context) (matching.Pool, error)
}

// DigestNotifier 发送匹配摘要。
type DigestNotifier interface {
	NotifyDigest(ctx context.Context, summaries []model.MatchSummary) error
}

// Scheduler 负责周期性计算匹配摘要并通知。
type Scheduler struct {
	loader    PoolLoader
	notif     DigestNotifier
	logger    *zap.Logger
	interval  time.Duration
	cronSpec  string
	cron      *cronSchedule
	timeout   time.Duration
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔与超时；无效配置会记录告警并使用默认值。
func NewScheduler(loader PoolLoader, n DigestNotifier, cfg Config, log *zap.Logger) *Scheduler {
	log = logger.OrNop(log).Named("scheduler")

	interval, cronCfg, err := parseSchedule(cfg.Interval)
	if err != nil {
		log.Warn("invalid digest schedule, using default", zap.Error(err), zap.Duration("interval", interval))
	}
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		} else {
			log.Warn("invalid digest timeout, using default", zap.String("timeout", cfg.Timeout))
		}
	}

	return &Scheduler{
		loader:    loader,
		notif:     n,
		logger:    log,
		interval:  interval,
		cronSpec:  cronCfg.spec,
		cron:      cronCfg.schedule,
		timeout:   timeout,
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Start 启动调度循环，直到上下文取消。单次失败只记录日志。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.loader == nil || s.notif == nil {
		return ErrMissingDependencies
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.cron != nil {
		s.logger.Info("digest scheduled", zap.String("cron", s.cronSpec))
		g.Go(func() error {
			return s.startCron(ctx)
		})
	} else {
		s.logger.Info("digest scheduled", zap.Duration("interval", s.interval))
		tick := s.newTicker(s.interval)
		ch := tick.C()

		g.Go(func() error {
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ch:
					s.runLogged(ctx)
				drain:
					for {
						select {
						case <-ch:
							continue
						default:
							break drain
						}
					}
				}
			}
		})
	}

	return g.Wait()
}

// RunOnce 对外暴露单次摘要接口，返回摘要中的需求数量。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.loader == nil || s.notif == nil {
		return 0, ErrMissingDependencies
	}
	return s.runOnce(ctx)
}

func (s *Scheduler) runLogged(ctx context.Context) {
	n, err := s.runOnce(ctx)
	if err != nil {
		s.logger.Error("digest run failed", zap.Error(err))
		return
	}
	s.logger.Debug("digest run finished", zap.Int("requests", n))
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pool, err := s.loader.LoadPool(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pool: %w", err)
	}

	summaries := Summarize(pool)
	if len(summaries) == 0 {
		return 0, nil
	}
	if err := s.notif.NotifyDigest(ctx, summaries); err != nil {
		return len(summaries), fmt.Errorf("notify digest: %w", err)
	}
	return len(summaries), nil
}

// Summarize 统计池内每个开放需求的匹配人数，顺序与池一致。
func Summarize(pool matching.Pool) []model.MatchSummary {
	out := make([]model.MatchSummary, 0, len(pool.Requests))
	for _, r := range pool.Requests {
		out = append(out, model.MatchSummary{
			RequestID: r.ID,
			JobTitle:  r.JobTitle,
			AgencyID:  r.AgencyID,
			Quantity:  r.Quantity,
			Matches:   len(matching.FindMatches(r, pool.Candidates)),
		})
	}
	return out
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

func (s *Scheduler) startCron(ctx context.Context) error {
	for {
		now := s.now()
		next, err := s.cron.next(now)
		if err != nil {
			return fmt.Errorf("compute next cron time: %w", err)
		}
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.runLogged(ctx)
		}
	}
}
