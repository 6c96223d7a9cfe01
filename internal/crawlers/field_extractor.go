package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/rs/zerolog"
)

// 详情块:一个 label 加对应的值区域
const detailBlockSelector = "div.details-project"

// 块内值为空时剥离的分隔符
const valueSeparators = ": \n\t"

const upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"

// FieldResult 按规范字段提取的结果
type FieldResult struct {
	Value models.ExtractedValue
	Alias string   // 生效的候选标签,未找到时为空
	Tried []string // 按顺序尝试过的候选标签
}

// FieldExtractor 根据标签文本从详情页提取字段值
type FieldExtractor struct {
	s *Session
}

// NewFieldExtractor 创建字段提取器
func NewFieldExtractor(s *Session) *FieldExtractor {
	return &FieldExtractor{s: s}
}

// ExtractSpec 依次尝试字段的候选标签,第一个得到可用值的生效
// 全部失败时返回缺失值
func (x *FieldExtractor) ExtractSpec(ctx context.Context, spec models.FieldSpec) FieldResult {
	logger := zerolog.Ctx(ctx).With().Str("field", spec.Name).Logger()
	ctx = logger.WithContext(ctx)

	res := FieldResult{Value: models.Absent()}
	for _, alias := range spec.Aliases {
		res.Tried = append(res.Tried, alias)
		v := x.Extract(ctx, alias)
		if v.Usable() {
			res.Value = v
			res.Alias = alias
			logger.Info().
				Str("alias", alias).
				Str("value", utils.Truncate(v.String(), 50)).
				Msg("找到字段")
			return res
		}
	}
	return res
}

// Extract 提取单个标签对应的值
//
// 结构化层:遍历详情块,第一个 label 包含目标文本的块即为最终结果,
// 依次尝试 GST 文档链接、strong 文本、块文本;
// 没有块匹配时才进入 XPath 兜底层。
func (x *FieldExtractor) Extract(ctx context.Context, label string) (v models.ExtractedValue) {
	logger := zerolog.Ctx(ctx).With().Str("label", label).Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("提取字段 %q 时发生panic: %v", label, r)
			logger.Error().Err(err).Msg("字段提取失败")
			v = models.Failed(err)
		}
	}()

	if err := x.s.Clock.Sleep(ctx, x.s.Timing.ExtractDelay); err != nil {
		return models.Failed(err)
	}

	if value, matched := x.fromBlocks(ctx, label); matched {
		return value
	}

	if value := x.fromXPath(ctx, label); value.Usable() {
		return value
	}

	logger.Warn().Msg("⚠️ 字段未找到")
	return models.Absent()
}

// fromBlocks 结构化层,matched 表示有块的 label 命中
func (x *FieldExtractor) fromBlocks(ctx context.Context, label string) (models.ExtractedValue, bool) {
	logger := zerolog.Ctx(ctx)

	blocks, err := x.s.Browser.Query(ctx, browser.ByCSS, detailBlockSelector)
	if err != nil {
		logger.Debug().Err(err).Msg("查询详情块失败")
		return models.Absent(), false
	}
	logger.Debug().Int("blocks", len(blocks)).Msg("详情块数量")

	want := strings.ToLower(strings.TrimSpace(label))
	for _, block := range blocks {
		labels, err := block.Query(ctx, browser.ByTag, "label")
		if err != nil || len(labels) == 0 {
			continue
		}
		labelText, err := labels[0].Text(ctx)
		if err != nil {
			continue
		}
		labelText = strings.TrimSpace(labelText)
		if !strings.Contains(strings.ToLower(labelText), want) {
			continue
		}
		return x.blockValue(ctx, block, label, labelText), true
	}
	return models.Absent(), false
}

func (x *FieldExtractor) blockValue(ctx context.Context, block browser.Element, label, labelText string) models.ExtractedValue {
	logger := zerolog.Ctx(ctx)

	if isGSTLabel(label) {
		if links, err := block.Query(ctx, browser.ByCSS, "a[href*='fileId']"); err == nil && len(links) > 0 {
			href, _, err := links[0].Attribute(ctx, "href")
			if id, ok := fileIDFromHref(href); err == nil && ok {
				logger.Debug().Str("file_id", id).Msg("字段为PDF文档链接")
				return models.Reference(id)
			}
		}
	}

	if strongs, err := block.Query(ctx, browser.ByTag, "strong"); err == nil && len(strongs) > 0 {
		if text, err := strongs[0].Text(ctx); err == nil && strings.TrimSpace(text) != "" {
			return models.Text(text)
		}
	}

	blockText, err := block.Text(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("读取详情块文本失败")
		return models.Absent()
	}
	blockText = strings.TrimSpace(blockText)
	if strings.HasPrefix(blockText, labelText) {
		value := strings.TrimSpace(blockText[len(labelText):])
		value = strings.TrimLeft(value, valueSeparators)
		if v := models.Text(value); v.Usable() {
			return v
		}
	}
	return models.Absent()
}

// fromXPath 兜底层:在整个页面按标签文本查找相邻文本
func (x *FieldExtractor) fromXPath(ctx context.Context, label string) models.ExtractedValue {
	logger := zerolog.Ctx(ctx)

	lower := xpathLiteral(strings.ToLower(label))
	exact := xpathLiteral(label)
	exprs := []string{
		fmt.Sprintf("//text()[contains(translate(., '%s', '%s'), %s)]/following::text()[1]", upperAlphabet, lowerAlphabet, lower),
		fmt.Sprintf("//*[contains(translate(text(), '%s', '%s'), %s)]/following-sibling::*[1]", upperAlphabet, lowerAlphabet, lower),
		fmt.Sprintf("//*[contains(text(), %s)]/following-sibling::*[1]", exact),
	}

	for _, expr := range exprs {
		els, err := x.s.Browser.Query(ctx, browser.ByXPath, expr)
		if err != nil {
			logger.Debug().Err(err).Str("xpath", expr).Msg("XPath查询失败")
			continue
		}
		for _, el := range els {
			text, err := el.Text(ctx)
			if err != nil {
				continue
			}
			if v := models.Text(text); v.Usable() {
				logger.Debug().Str("xpath", expr).Msg("通过XPath找到字段")
				return v
			}
		}
	}
	return models.Absent()
}

func isGSTLabel(label string) bool {
	return strings.Contains(strings.ToLower(label), "gst")
}

// fileIDFromHref 从文档链接中取出 fileId 参数
func fileIDFromHref(href string) (string, bool) {
	if !strings.Contains(href, "fileId=") {
		return "", false
	}
	// 保留原始编码,不做百分号解码
	if u, err := url.Parse(href); err == nil {
		for _, kv := range strings.Split(u.RawQuery, "&") {
			if id, ok := strings.CutPrefix(kv, "fileId="); ok && id != "" {
				return id, true
			}
		}
	}
	_, rest, _ := strings.Cut(href, "fileId=")
	id, _, _ := strings.Cut(rest, "&")
	return id, id != ""
}

// xpathLiteral 把任意字符串转成 XPath 字符串字面量
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
