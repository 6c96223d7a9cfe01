package crawlers

import (
	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
)

// Session 一次采集运行共享的上下文
// 所有组件通过它访问浏览器、时钟和等待参数
type Session struct {
	Browser browser.Browser
	Clock   utils.Clock
	Timing  models.Timing
}

// NewSession 创建会话,clock 为 nil 时使用系统时钟
func NewSession(b browser.Browser, clock utils.Clock, timing models.Timing) *Session {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Session{Browser: b, Clock: clock, Timing: timing}
}
