// Package browser 定义采集引擎所需的浏览器能力接口及其实现
//
// 引擎只依赖 Browser 和 Element 两个接口:
//   - Rod: 基于 go-rod 的真实 Chrome 会话(生产环境)
//   - Snapshot: 基于已保存 HTML 页面的离线会话(回放调试与测试)
package browser

import (
	"context"
	"fmt"
)

// By 元素查询方式
type By int

const (
	ByCSS   By = iota // CSS选择器
	ByXPath           // XPath表达式
	ByTag             // 标签名
)

// String 查询方式名称
func (b By) String() string {
	switch b {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	case ByTag:
		return "tag"
	default:
		return fmt.Sprintf("by(%d)", int(b))
	}
}

// Browser 单个浏览器会话(单标签页)
type Browser interface {
	// Navigate 打开URL
	Navigate(ctx context.Context, url string) error
	// ReadyState 返回 document.readyState
	ReadyState(ctx context.Context) (string, error)
	// Query 在整个文档中查询元素,未找到时返回空切片
	Query(ctx context.Context, by By, selector string) ([]Element, error)
	// Back 浏览器历史后退
	Back(ctx context.Context) error
	// Info 当前页面的URL和标题
	Info(ctx context.Context) (PageInfo, error)
	// Close 关闭会话
	Close() error
}

// Element 页面元素句柄,页面跳转后可能失效
type Element interface {
	// Text 可见文本(innerText),元素或祖先隐藏时为空
	Text(ctx context.Context) (string, error)
	// Attribute 读取属性,属性不存在时 ok 为 false
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	// Click 模拟真实鼠标点击,元素被遮挡时返回错误
	Click(ctx context.Context) error
	// ForceClick 通过脚本触发点击,不受遮挡影响
	ForceClick(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// Query 在元素内部查询
	Query(ctx context.Context, by By, selector string) ([]Element, error)
}

// PageInfo 页面基本信息
type PageInfo struct {
	URL   string
	Title string
}

// Opener 打开一个浏览器会话
type Opener func(ctx context.Context) (Browser, error)
