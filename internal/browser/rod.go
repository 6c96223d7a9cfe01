package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// 单次点击的最长等待,rod 在元素被遮挡时会一直等待可交互
const clickTimeout = 10 * time.Second

// Rod 基于 go-rod 的浏览器会话
type Rod struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// LaunchRod 启动 Chrome 并打开一个标签页
// 任一步骤失败都会清理已启动的进程并返回 SessionError
func LaunchRod(ctx context.Context, cfg models.BrowserConfig, headers http.Header) (*Rod, error) {
	logger := zerolog.Ctx(ctx)

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(true)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	// 隐藏自动化特征
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("ignore-certificate-errors"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	if !cfg.Headless {
		l.Set(flags.Flag("start-maximized"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &models.SessionError{Stage: "launch", Cause: err}
	}
	logger.Debug().Str("control_url", controlURL).Msg("浏览器已启动")

	r := &Rod{launcher: l, browser: rod.New().ControlURL(controlURL)}
	if err := r.browser.Connect(); err != nil {
		l.Kill()
		return nil, &models.SessionError{Stage: "connect", Cause: err}
	}

	if err := r.openPage(cfg, headers); err != nil {
		_ = r.Close()
		return nil, &models.SessionError{Stage: "page", Cause: err}
	}

	logger.Info().
		Bool("headless", cfg.Headless).
		Bool("stealth", cfg.Stealth).
		Msg("✅ 浏览器会话已就绪")
	return r, nil
}

func (r *Rod) openPage(cfg models.BrowserConfig, headers http.Header) error {
	var err error
	if cfg.Stealth {
		r.page, err = stealth.Page(r.browser)
	} else {
		r.page, err = r.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return fmt.Errorf("创建标签页失败: %w", err)
	}

	if cfg.UserAgent != "" {
		if err := r.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			return fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}

	if err := r.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
	}); err != nil {
		return fmt.Errorf("设置视口失败: %w", err)
	}

	if len(headers) > 0 {
		dict := make([]string, 0, len(headers)*2)
		for name := range headers {
			dict = append(dict, name, headers.Get(name))
		}
		if _, err := r.page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("设置额外请求头失败: %w", err)
		}
	}
	return nil
}

// Navigate 打开URL
func (r *Rod) Navigate(ctx context.Context, url string) error {
	return r.page.Context(ctx).Navigate(url)
}

// ReadyState 返回 document.readyState
func (r *Rod) ReadyState(ctx context.Context) (string, error) {
	res, err := r.page.Context(ctx).Eval(`() => document.readyState`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Query 在整个文档中查询元素
func (r *Rod) Query(ctx context.Context, by By, selector string) ([]Element, error) {
	p := r.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	switch by {
	case ByXPath:
		els, err = p.ElementsX(selector)
	default:
		els, err = p.Elements(selector)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

// Back 浏览器历史后退
func (r *Rod) Back(ctx context.Context) error {
	return r.page.Context(ctx).NavigateBack()
}

// Info 当前页面的URL和标题
func (r *Rod) Info(ctx context.Context) (PageInfo, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return PageInfo{}, err
	}
	return PageInfo{URL: info.URL, Title: info.Title}, nil
}

// Close 关闭浏览器并清理进程
func (r *Rod) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
	return err
}

type rodElement struct {
	el *rod.Element
}

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	// 不可见元素的 innerText 会退化为 textContent,先判断可见性
	res, err := e.el.Context(ctx).Eval(`() => {
		const el = this.nodeType === Node.ELEMENT_NODE ? this : this.parentElement;
		if (!el || (el.checkVisibility && !el.checkVisibility({visibilityProperty: true}))) {
			return "";
		}
		return (this.innerText !== undefined ? this.innerText : this.textContent) || "";
	}`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *rodElement) Enabled(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => !this.disabled`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *rodElement) Click(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, clickTimeout)
	defer cancel()
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) ForceClick(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.click()`)
	return err
}

func (e *rodElement) ScrollIntoView(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.scrollIntoView({block: "center"})`)
	return err
}

func (e *rodElement) Query(ctx context.Context, by By, selector string) ([]Element, error) {
	el := e.el.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	switch by {
	case ByXPath:
		els, err = el.ElementsX(selector)
	default:
		els, err = el.Elements(selector)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}
