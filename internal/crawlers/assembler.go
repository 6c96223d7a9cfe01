package crawlers

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/rs/zerolog"
)

// Assembler 为单个项目组装完整记录
type Assembler struct {
	s         *Session
	nav       *Navigator
	extractor *FieldExtractor
}

// NewAssembler 创建记录组装器
func NewAssembler(s *Session, nav *Navigator) *Assembler {
	return &Assembler{s: s, nav: nav, extractor: nav.Extractor()}
}

// Assemble 进入第 index 个项目的详情页并提取全部字段
// 进入详情失败时返回错误;字段缺失不算失败,记为缺失值
func (a *Assembler) Assemble(ctx context.Context, index int) (rec *models.Record, err error) {
	logger := zerolog.Ctx(ctx).With().Int("index", index).Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("组装项目 %d 时发生panic: %v", index+1, r)
			logger.Error().Err(err).Msg("❌ 记录组装失败")
		}
	}()

	view, err := a.nav.OpenDetail(ctx, index)
	if err != nil {
		return nil, err
	}
	if view != models.ViewDetail {
		return nil, fmt.Errorf("%w: 需要 %s, 当前 %s", models.ErrUnexpectedView, models.ViewDetail, view)
	}

	values := make(map[string]models.ExtractedValue, len(models.BaseFields)+len(models.PromoterFields))
	for _, spec := range models.BaseFields {
		values[spec.Name] = a.extractor.ExtractSpec(ctx, spec).Value
	}

	logger.Info().Msg("切换到开发商标签")
	if _, clicked := a.nav.OpenPromoterTab(ctx); !clicked {
		logger.Info().Msg("在当前页面提取开发商字段")
	}

	for _, spec := range models.PromoterFields {
		res := a.extractor.ExtractSpec(ctx, spec)
		if !res.Value.Usable() {
			logger.Warn().Str("field", spec.Name).Strs("tried", res.Tried).Msg("⚠️ 所有候选标签均未找到")
		}
		values[spec.Name] = res.Value
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err = models.NewRecord(index, values, a.s.Clock.Now())
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("✅ 项目信息提取完成")
	return rec, nil
}
