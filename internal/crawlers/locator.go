package crawlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/rs/zerolog"
)

// Strategy 单个查找策略
// Find 只读取页面,不修改页面状态
type Strategy struct {
	Name string
	Find func(ctx context.Context, b browser.Browser) ([]browser.Element, error)
}

// Filter 候选元素过滤条件
type Filter func(ctx context.Context, el browser.Element) bool

// Target 要查找的语义目标:按优先级排列的策略列表
type Target struct {
	Name       string
	Strategies []Strategy
	Filter     Filter
}

// Match 查找结果
type Match struct {
	Elements []browser.Element
	Strategy string // 生效的策略名
	Rank     int    // 生效策略的序号,未找到时为 -1
}

// Found 是否找到元素
func (m Match) Found() bool {
	return len(m.Elements) > 0
}

// Cascade 依次尝试各策略,返回第一个非空(过滤后)的结果
// 不合并多个策略的结果;策略出错视为未找到
func Cascade(ctx context.Context, b browser.Browser, strategies []Strategy, filter Filter) Match {
	logger := zerolog.Ctx(ctx)

	for rank, st := range strategies {
		els, err := st.Find(ctx, b)
		if err != nil {
			logger.Debug().Err(err).Str("strategy", st.Name).Msg("查找策略出错,尝试下一个")
			continue
		}
		if filter != nil {
			els = applyFilter(ctx, els, filter)
		}
		if len(els) > 0 {
			return Match{Elements: els, Strategy: st.Name, Rank: rank}
		}
	}
	return Match{Rank: -1}
}

func applyFilter(ctx context.Context, els []browser.Element, filter Filter) []browser.Element {
	kept := make([]browser.Element, 0, len(els))
	for _, el := range els {
		if filter(ctx, el) {
			kept = append(kept, el)
		}
	}
	return kept
}

// CSS CSS选择器策略
func CSS(selector string) Strategy {
	return Strategy{
		Name: "css:" + selector,
		Find: func(ctx context.Context, b browser.Browser) ([]browser.Element, error) {
			return b.Query(ctx, browser.ByCSS, selector)
		},
	}
}

// XPath XPath策略
func XPath(expr string) Strategy {
	return Strategy{
		Name: "xpath:" + expr,
		Find: func(ctx context.Context, b browser.Browser) ([]browser.Element, error) {
			return b.Query(ctx, browser.ByXPath, expr)
		},
	}
}

// AnchorKeywords 扫描所有链接,文本或href包含关键词的视为候选,最多返回 limit 个
// 单个链接读取失败时跳过
func AnchorKeywords(limit int, textWords, hrefWords []string) Strategy {
	return Strategy{
		Name: "anchor-keywords",
		Find: func(ctx context.Context, b browser.Browser) ([]browser.Element, error) {
			anchors, err := b.Query(ctx, browser.ByTag, "a")
			if err != nil {
				return nil, err
			}

			var found []browser.Element
			for _, a := range anchors {
				text, err := a.Text(ctx)
				if err != nil {
					continue
				}
				href, _, err := a.Attribute(ctx, "href")
				if err != nil {
					continue
				}
				if containsAny(strings.ToLower(strings.TrimSpace(text)), textWords) ||
					containsAny(strings.ToLower(href), hrefWords) {
					found = append(found, a)
				}
			}
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}
			return found, nil
		},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Clickable 可见且可用
func Clickable(ctx context.Context, el browser.Element) bool {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled(ctx)
	return err == nil && enabled
}

// ProjectEntryTarget 列表页中进入项目详情的链接
func ProjectEntryTarget(limit int) Target {
	strategies := []Strategy{CSS("a.btn.btn-primary")}
	for _, sel := range []string{
		"a.btn-primary",
		".btn-primary",
		"a[href*='project']",
		"a[href*='detail']",
		"button.btn-primary",
		".project-item a",
		".project-card a",
		"a.btn",
	} {
		strategies = append(strategies, CSS(sel))
	}
	strategies = append(strategies, AnchorKeywords(limit,
		[]string{"view", "detail", "more"},
		[]string{"project", "detail"},
	))
	return Target{Name: "project-entry", Strategies: strategies}
}

// PromoterTabTarget 详情页中的开发商标签
func PromoterTabTarget() Target {
	return Target{
		Name: "promoter-tab",
		Strategies: []Strategy{
			XPath("//a[contains(translate(text(), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'promoter')]"),
			XPath("//a[contains(text(), 'Promoter')]"),
			XPath("//li//a[contains(text(), 'Promoter')]"),
			XPath("//*[@role='tab' and contains(text(), 'Promoter')]"),
			CSS("a[href*='promoter']"),
			CSS(".nav-link[href*='promoter']"),
			CSS(".tab-link[href*='promoter']"),
			CSS("[data-toggle='tab'][href*='promoter']"),
		},
		Filter: Clickable,
	}
}

// DetailContainerTarget 详情页内容容器
func DetailContainerTarget() Target {
	return Target{
		Name: "detail-container",
		Strategies: []Strategy{
			CSS("div.details-project"),
			CSS(".project-details"),
			CSS(".detail-content"),
			CSS("[class*='detail']"),
			CSS(".container"),
		},
	}
}

// Locator 在会话的当前页面上解析语义目标
type Locator struct {
	s *Session
}

// NewLocator 创建定位器
func NewLocator(s *Session) *Locator {
	return &Locator{s: s}
}

// Locate 查找目标,未找到是正常结果
func (l *Locator) Locate(ctx context.Context, t Target) Match {
	m := Cascade(ctx, l.s.Browser, t.Strategies, t.Filter)

	logger := zerolog.Ctx(ctx)
	if m.Found() {
		logger.Debug().
			Str("target", t.Name).
			Str("strategy", m.Strategy).
			Int("rank", m.Rank).
			Int("count", len(m.Elements)).
			Msg("定位成功")
	} else {
		logger.Debug().Str("target", t.Name).Msg("所有策略均未找到元素")
	}
	return m
}

// clickElement 先模拟鼠标点击,失败时改用脚本点击
func clickElement(ctx context.Context, el browser.Element) error {
	err := el.Click(ctx)
	if err == nil {
		return nil
	}
	zerolog.Ctx(ctx).Debug().Err(err).Msg("普通点击失败,改用脚本点击")

	if ferr := el.ForceClick(ctx); ferr != nil {
		return fmt.Errorf("%w: %w", models.ErrClickFailed, errors.Join(err, ferr))
	}
	return nil
}
