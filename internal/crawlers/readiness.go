package crawlers

import (
	"context"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/rs/zerolog"
)

const readyStateComplete = "complete"

// ReadinessGate 等待页面加载完成
type ReadinessGate struct {
	s *Session
}

// NewReadinessGate 创建就绪检查
func NewReadinessGate(s *Session) *ReadinessGate {
	return &ReadinessGate{s: s}
}

// AwaitReady 轮询 document.readyState 直到 complete 或超过 maxWait
// 无论是否超时,之后都会再等待 SettleDelay 供异步渲染完成
func (g *ReadinessGate) AwaitReady(ctx context.Context, maxWait time.Duration) bool {
	logger := zerolog.Ctx(ctx)

	ready := utils.Poll(ctx, g.s.Clock, maxWait, g.s.Timing.ReadyPollInterval, func() bool {
		state, err := g.s.Browser.ReadyState(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("读取 readyState 失败")
			return false
		}
		return state == readyStateComplete
	})
	if !ready {
		logger.Warn().Dur("max_wait", maxWait).Msg("⚠️ 页面加载超时,继续执行")
	}

	_ = g.s.Clock.Sleep(ctx, g.s.Timing.SettleDelay)
	return ready
}
