package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/crawlers"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Runner 驱动一次完整的采集运行
// 单个 goroutine 按序号依次处理项目,记录严格按序号排列
type Runner struct {
	cfg      models.ScrapeConfig
	open     browser.Opener
	clock    utils.Clock
	limiter  *rate.Limiter
	progress io.Writer
}

// RunnerOption 可选参数
type RunnerOption func(*Runner)

// WithClock 指定时钟(测试中使用 FakeClock)
func WithClock(c utils.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithLimiter 指定项目之间的限速器
func WithLimiter(l *rate.Limiter) RunnerOption {
	return func(r *Runner) { r.limiter = l }
}

// WithProgress 在 w 上显示进度条
func WithProgress(w io.Writer) RunnerOption {
	return func(r *Runner) { r.progress = w }
}

// NewRunner 创建运行器
func NewRunner(cfg models.ScrapeConfig, open browser.Opener, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:   cfg,
		open:  open,
		clock: utils.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limiter == nil {
		r.limiter = newRecordLimiter(cfg.Timing.RecordSpacing)
	}
	return r
}

// newRecordLimiter 相邻两个项目开始的最小间隔
func newRecordLimiter(spacing time.Duration) *rate.Limiter {
	if spacing <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(spacing), 1)
}

// pace 按运行器的时钟等待限速器放行
func (r *Runner) pace(ctx context.Context) error {
	now := r.clock.Now()
	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		return fmt.Errorf("限速器拒绝请求")
	}
	return r.clock.Sleep(ctx, res.DelayFrom(now))
}

// Run 执行采集
// 只有浏览器会话无法建立时返回错误;其余情况返回带结束原因的结果(可能为部分结果)
func (r *Runner) Run(ctx context.Context) (*models.RunResult, error) {
	result := models.NewRunResult(r.cfg, r.clock.Now())
	logger := zerolog.Ctx(ctx).With().Str("run_id", result.RunID).Logger()
	ctx = logger.WithContext(ctx)

	b, err := r.open(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("❌ 浏览器会话启动失败")
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭浏览器失败")
		} else {
			logger.Info().Msg("浏览器已关闭")
		}
	}()

	session := crawlers.NewSession(b, r.clock, r.cfg.Timing)
	nav := crawlers.NewNavigator(session, r.cfg)
	asm := crawlers.NewAssembler(session, nav)

	discovered, err := nav.Start(ctx, r.cfg.ListURL)
	if err != nil {
		reason := models.StopStartFailure
		if errors.Is(err, models.ErrNoEntries) {
			reason = models.StopNoEntries
		}
		logger.Error().Err(err).Str("reason", string(reason)).Msg("❌ 无法开始采集")
		result.Finish(reason, r.clock.Now())
		return result, nil
	}

	target := min(r.cfg.MaxRecords, discovered)
	result.Stats.Discovered = discovered
	result.Stats.Target = target
	logger.Info().
		Int("discovered", discovered).
		Int("target", target).
		Msg("🚀 开始采集项目")

	var bar interface{ Add(int) error }
	if r.progress != nil {
		bar = utils.NewProgressBar(target, "采集项目", r.progress)
	}

	reason := r.loop(ctx, nav, asm, target, result, bar)
	result.Finish(reason, r.clock.Now())

	logger.Info().
		Int("scraped", result.Stats.Scraped).
		Int("failed", result.Stats.Failed).
		Int("target", target).
		Str("reason", string(reason)).
		Msg("✅ 采集结束")
	return result, nil
}

func (r *Runner) loop(ctx context.Context, nav *crawlers.Navigator, asm *crawlers.Assembler,
	target int, result *models.RunResult, bar interface{ Add(int) error }) models.StopReason {

	for i := 0; i < target; i++ {
		logger := zerolog.Ctx(ctx).With().Int("index", i).Logger()

		if err := r.pace(ctx); err != nil {
			logger.Warn().Err(err).Msg("运行被取消")
			return models.StopCancelled
		}

		rec, err := asm.Assemble(ctx, i)
		switch {
		case err == nil:
			result.Records = append(result.Records, rec)
		case ctx.Err() != nil:
			logger.Warn().Err(err).Msg("运行被取消")
			return models.StopCancelled
		case errors.Is(err, models.ErrIndexOutOfRange), errors.Is(err, models.ErrNoEntries):
			logger.Warn().Err(err).Msg("列表中没有更多项目")
			return models.StopEndOfData
		default:
			logger.Error().Err(err).Msg("❌ 项目采集失败,继续下一个")
			result.Failures = append(result.Failures, models.RecordFailure{Index: i, Error: err.Error()})
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		if i == target-1 {
			break
		}
		if !nav.ReturnToList(ctx) {
			if ctx.Err() != nil {
				return models.StopCancelled
			}
			logger.Error().Msg("❌ 无法返回列表页,停止采集")
			return models.StopBackNavFail
		}
		if err := r.clock.Sleep(ctx, r.cfg.Timing.RecordInterval); err != nil {
			logger.Warn().Err(err).Msg("运行被取消")
			return models.StopCancelled
		}
	}
	return models.StopCompleted
}
