package models

// PageView 浏览器当前所处的逻辑视图
type PageView int

const (
	ViewList        PageView = iota // 项目列表页(初始状态)
	ViewDetail                      // 项目详情页
	ViewPromoterTab                 // 详情页的开发商标签
	ViewUnknown                     // 返回列表失败后无法确认的状态
)

// String 返回视图名称(用于日志)
func (v PageView) String() string {
	switch v {
	case ViewList:
		return "List"
	case ViewDetail:
		return "Detail"
	case ViewPromoterTab:
		return "Detail.PromoterTab"
	default:
		return "Unknown"
	}
}

// InDetail 是否处于详情页(含开发商标签)
func (v PageView) InDetail() bool {
	return v == ViewDetail || v == ViewPromoterTab
}
