// Package crawlers 实现 RERA 项目列表的采集引擎
//
// # 概述
//
// 目标站点的列表页和详情页均由 JavaScript 渲染,标记结构不稳定。
// crawlers 包通过多策略定位、标签-值提取和显式的页面状态切换,
// 保证单个选择器失效时整次运行仍能继续。
//
// # 核心组件
//
// ## ReadinessGate (页面就绪)
//
// 轮询 document.readyState 直到 complete,随后固定等待 SettleDelay。
// 超时只记录警告,不返回错误。
//
// ## Locator (元素定位)
//
// 语义目标(项目入口、开发商标签、详情容器)由一组按优先级排列的策略描述,
// Cascade 返回第一个非空结果,从不合并多个策略的结果:
//
//	m := Cascade(ctx, b, ProjectEntryTarget(6).Strategies, nil)
//	if m.Found() { ... }
//
// ## FieldExtractor (字段提取)
//
// 先在 div.details-project 详情块中按 label 匹配,第一个命中的块即为最终结果;
// 没有块命中时再用 XPath 在整个页面中查找。GST 字段优先识别 PDF 文档链接。
//
//	res := extractor.ExtractSpec(ctx, models.PromoterFields[0])
//	fmt.Println(res.Value, res.Alias, res.Tried)
//
// ## Navigator (页面切换)
//
// 显式维护当前视图:
//
//	List --OpenDetail--> Detail --OpenPromoterTab--> Detail.PromoterTab
//	  ^                    |                              |
//	  +----ReturnToList----+------------------------------+
//
// 返回列表失败时视图变为 Unknown,由调用方结束运行。
//
// ## Assembler (记录组装)
//
// 进入详情页,提取4个基础字段,切换开发商标签后提取3个开发商字段,
// 打上采集时间生成不可变的 models.Record。
//
// # 等待与时钟
//
// 所有等待都通过 Session.Clock 完成,测试中使用 utils.FakeClock,不会真实休眠。
//
// # 日志
//
// 组件从 context 中取 zerolog 日志器,调用方可以附加 run_id、index 等字段。
package crawlers
