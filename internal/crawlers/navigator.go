package crawlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/rs/zerolog"
)

// 调试输出的正文长度
const debugBodyChars = 500

// Navigator 管理列表页与详情页之间的切换
// 每次切换后返回当前视图,调用方据此判断能否继续
type Navigator struct {
	s         *Session
	cfg       models.ScrapeConfig
	gate      *ReadinessGate
	locator   *Locator
	extractor *FieldExtractor
	view      models.PageView
}

// NewNavigator 创建导航器,初始视图为列表页
func NewNavigator(s *Session, cfg models.ScrapeConfig) *Navigator {
	return &Navigator{
		s:         s,
		cfg:       cfg,
		gate:      NewReadinessGate(s),
		locator:   NewLocator(s),
		extractor: NewFieldExtractor(s),
		view:      models.ViewList,
	}
}

// View 当前视图
func (n *Navigator) View() models.PageView {
	return n.view
}

// Extractor 与导航器共享会话的字段提取器
func (n *Navigator) Extractor() *FieldExtractor {
	return n.extractor
}

func (n *Navigator) entries(ctx context.Context) Match {
	return n.locator.Locate(ctx, ProjectEntryTarget(n.cfg.MaxRecords))
}

// Start 打开列表页并返回发现的项目入口数量
func (n *Navigator) Start(ctx context.Context, listURL string) (int, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("url", listURL).Msg("打开项目列表页")

	if err := n.s.Browser.Navigate(ctx, listURL); err != nil {
		n.view = models.ViewUnknown
		return 0, fmt.Errorf("打开列表页失败: %w", err)
	}
	n.gate.AwaitReady(ctx, n.s.Timing.ReadyTimeout)
	n.DebugPage(ctx, "列表页加载后")

	m := n.entries(ctx)
	if !m.Found() {
		n.view = models.ViewUnknown
		return 0, models.ErrNoEntries
	}
	n.view = models.ViewList
	logger.Info().
		Int("entries", len(m.Elements)).
		Str("strategy", m.Strategy).
		Msg("✅ 找到项目入口")
	return len(m.Elements), nil
}

// OpenDetail 列表页 → 详情页
// 入口不存在或越界时不发生切换;点击失败时停留在列表页
func (n *Navigator) OpenDetail(ctx context.Context, index int) (models.PageView, error) {
	logger := zerolog.Ctx(ctx)

	if err := ctx.Err(); err != nil {
		return n.view, err
	}
	if n.view != models.ViewList {
		return n.view, fmt.Errorf("%w: 需要 %s, 当前 %s", models.ErrUnexpectedView, models.ViewList, n.view)
	}

	m := n.entries(ctx)
	if !m.Found() {
		logger.Error().Msg("❌ 列表页没有项目入口")
		return n.view, models.ErrNoEntries
	}
	if index < 0 || index >= len(m.Elements) {
		logger.Warn().Int("available", len(m.Elements)).Msg("项目序号超出可用范围")
		return n.view, &models.IndexError{Index: index, Available: len(m.Elements)}
	}

	logger.Info().
		Int("position", index+1).
		Int("total", min(len(m.Elements), n.cfg.MaxRecords)).
		Msg("进入项目详情")

	entry := m.Elements[index]
	if err := entry.ScrollIntoView(ctx); err != nil {
		logger.Debug().Err(err).Msg("滚动到入口失败")
	}
	if err := n.s.Clock.Sleep(ctx, n.s.Timing.PreClickDelay); err != nil {
		return n.view, err
	}
	if err := clickElement(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("❌ 点击项目入口失败")
		return n.view, err
	}
	n.view = models.ViewDetail
	logger.Info().Msg("✅ 已点击项目入口")

	if !n.gate.AwaitReady(ctx, n.s.Timing.ReadyTimeout) {
		logger.Warn().Msg("详情页加载超时,继续执行")
	}
	n.DebugPage(ctx, fmt.Sprintf("进入项目 %d 后", index+1))

	var container Match
	loaded := utils.Poll(ctx, n.s.Clock, n.s.Timing.DetailProbeTimeout, n.s.Timing.DetailProbeInterval, func() bool {
		container = n.locator.Locate(ctx, DetailContainerTarget())
		return container.Found()
	})
	if loaded {
		logger.Info().Str("strategy", container.Strategy).Msg("详情内容已加载")
	} else {
		logger.Warn().Msg("未检测到详情内容,继续执行")
	}

	if err := n.s.Clock.Sleep(ctx, n.s.Timing.PostDetailDelay); err != nil {
		return n.view, err
	}
	return n.view, nil
}

// OpenPromoterTab 详情页 → 开发商标签
// 找不到或点不开标签时停留在详情页,clicked 为 false;调用方照常继续提取
func (n *Navigator) OpenPromoterTab(ctx context.Context) (view models.PageView, clicked bool) {
	logger := zerolog.Ctx(ctx)

	if n.view != models.ViewDetail {
		logger.Warn().Str("view", n.view.String()).Msg("当前不在详情页,跳过开发商标签")
		return n.view, false
	}

	if err := n.s.Clock.Sleep(ctx, n.s.Timing.PromoterTabDelay); err != nil {
		return n.view, false
	}

	m := n.locator.Locate(ctx, PromoterTabTarget())
	if !m.Found() {
		logger.Warn().Msg("⚠️ 未找到开发商标签,直接提取")
		return n.view, false
	}

	for i, tab := range m.Elements {
		if err := tab.ScrollIntoView(ctx); err != nil {
			logger.Debug().Err(err).Int("candidate", i).Msg("滚动到标签失败")
		}
		if err := n.s.Clock.Sleep(ctx, n.s.Timing.PreClickDelay); err != nil {
			return n.view, false
		}
		if err := clickElement(ctx, tab); err != nil {
			logger.Debug().Err(err).Int("candidate", i).Msg("点击开发商标签失败,尝试下一个")
			continue
		}
		clicked = true
		logger.Info().Str("strategy", m.Strategy).Msg("✅ 已点击开发商标签")
		break
	}
	if !clicked {
		logger.Warn().Msg("⚠️ 开发商标签无法点击,直接提取")
		return n.view, false
	}
	n.view = models.ViewPromoterTab

	probes := n.cfg.PromoterProbes
	if len(probes) == 0 {
		probes = models.DefaultPromoterProbes
	}
	settled := utils.Retry(ctx, n.s.Clock, n.s.Timing.PromoterPollAttempts, n.s.Timing.PromoterPollInterval, func() bool {
		for _, probe := range probes {
			if v := n.extractor.Extract(ctx, probe); v.Usable() {
				logger.Info().
					Str("probe", probe).
					Str("value", utils.Truncate(v.String(), 30)).
					Msg("✅ 开发商内容已加载")
				return true
			}
		}
		return false
	})
	if !settled {
		logger.Warn().Msg("开发商内容可能未完全加载")
	}
	return n.view, true
}

// ReturnToList 详情页 → 列表页
// 只有重新找到项目入口才算成功;失败时视图变为 Unknown
func (n *Navigator) ReturnToList(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	if n.view == models.ViewList {
		if n.entries(ctx).Found() {
			return true
		}
		n.view = models.ViewUnknown
		logger.Error().Msg("❌ 列表页上找不到项目入口")
		return false
	}

	logger.Info().Msg("返回项目列表")

	steps := 1
	if n.view == models.ViewPromoterTab {
		steps = max(n.cfg.MaxBackSteps, 1)
	}
	for step := 1; step <= steps; step++ {
		if err := n.s.Browser.Back(ctx); err != nil {
			logger.Warn().Err(err).Int("step", step).Msg("浏览器后退失败")
			break
		}
		n.gate.AwaitReady(ctx, n.s.Timing.ReadyTimeout)

		if m := n.entries(ctx); m.Found() {
			n.view = models.ViewList
			logger.Info().
				Int("entries", len(m.Elements)).
				Int("steps", step).
				Msg("✅ 已返回列表页")
			return true
		}
		logger.Debug().Int("step", step).Msg("后退后未找到项目入口")
	}

	n.view = models.ViewUnknown
	logger.Error().Msg("❌ 返回列表页失败")
	return false
}

// DebugPage 在 debug 级别输出当前页面概况
func (n *Navigator) DebugPage(ctx context.Context, stage string) {
	e := zerolog.Ctx(ctx).Debug()
	if !e.Enabled() {
		return
	}

	e = e.Str("stage", stage)
	if info, err := n.s.Browser.Info(ctx); err == nil {
		e = e.Str("url", info.URL).Str("title", info.Title)
	}
	for _, c := range []struct{ key, selector string }{
		{"primary_buttons", "a.btn.btn-primary"},
		{"btn_links", "a.btn"},
		{"links", "a"},
	} {
		if els, err := n.s.Browser.Query(ctx, browser.ByCSS, c.selector); err == nil {
			e = e.Int(c.key, len(els))
		}
	}
	if bodies, err := n.s.Browser.Query(ctx, browser.ByTag, "body"); err == nil && len(bodies) > 0 {
		if text, err := bodies[0].Text(ctx); err == nil {
			e = e.Str("body", strings.TrimSpace(strings.ReplaceAll(utils.Truncate(text, debugBodyChars), "\n", " ")))
		}
	}
	e.Msg("页面状态")
}
