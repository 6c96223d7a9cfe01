package browser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// SnapshotOrigin 离线页面使用的站点地址
const SnapshotOrigin = "https://snapshot.local"

// 点击带有该属性的元素时普通点击失败(模拟被遮挡),脚本点击不受影响
const AttrIntercept = "data-intercept"

// 点击带有该属性的元素时只追加一条历史记录,不重新加载页面(模拟 pushState 的标签页)
const AttrPushHistory = "data-push-history"

var (
	errSessionClosed = errors.New("浏览器会话已关闭")
	errNotVisible    = errors.New("元素不可见,无法点击")
	errIntercepted   = errors.New("element click intercepted")

	tagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
)

type historyEntry struct {
	key    string
	pushed bool // 由页面内标签切换产生,后退时不重新加载
}

// Snapshot 基于保存的 HTML 页面的离线浏览器
//
// 页面按路径注册,同一路径可注册多个版本:第 n 次访问返回第 n 个版本,
// 超出后一直返回最后一个版本。未注册的路径渲染为空白页。
type Snapshot struct {
	mu      sync.Mutex
	origin  *url.URL
	pages   map[string][]string
	visits  map[string]int
	history []historyEntry
	ready   []string
	doc     *html.Node
	gen     int
	closed  bool
}

// NewSnapshot 创建空的离线浏览器
func NewSnapshot() *Snapshot {
	origin, _ := url.Parse(SnapshotOrigin)
	return &Snapshot{
		origin: origin,
		pages:  make(map[string][]string),
		visits: make(map[string]int),
	}
}

// AddPage 注册页面的各个版本
func (s *Snapshot) AddPage(path string, versions ...string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeKey(path)
	s.pages[key] = append(s.pages[key], versions...)
	return s
}

// SetReadyStates 设置后续 ReadyState 调用依次返回的值,用完后返回 "complete"
func (s *Snapshot) SetReadyStates(states ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = append([]string(nil), states...)
}

// Visits 路径被加载的次数
func (s *Snapshot) Visits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[normalizeKey(path)]
}

// CurrentPath 当前页面路径
func (s *Snapshot) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return ""
	}
	return s.history[len(s.history)-1].key
}

// HistoryLen 历史记录条数
func (s *Snapshot) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// LoadSnapshotDir 从目录加载保存的页面
// 文件路径即页面路径: projects/project-list.html 对应 /projects/project-list,
// index.html 对应 /
func LoadSnapshotDir(dir string) (*Snapshot, error) {
	s := NewSnapshot()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取页面失败 [%s]: %w", path, err)
		}

		key := "/" + strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		if key == "/index" {
			key = "/"
		}
		s.AddPage(key, string(data))
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("目录中没有HTML页面: %s", dir)
	}
	return s, nil
}

func normalizeKey(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// resolveKey 将链接解析为页面路径(忽略主机和片段)
func (s *Snapshot) resolveKey(raw string) (string, error) {
	base := s.origin
	if len(s.history) > 0 {
		if cur, err := url.Parse(SnapshotOrigin + s.history[len(s.history)-1].key); err == nil {
			base = cur
		}
	}
	u, err := base.Parse(raw)
	if err != nil {
		return "", err
	}
	key := normalizeKey(u.Path)
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key, nil
}

// render 加载页面,调用方持有锁
func (s *Snapshot) render(key string) error {
	src := "<html><head></head><body></body></html>"
	if versions, ok := s.pages[key]; ok && len(versions) > 0 {
		i := s.visits[key]
		if i >= len(versions) {
			i = len(versions) - 1
		}
		src = versions[i]
	}
	s.visits[key]++

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("解析页面失败 [%s]: %w", key, err)
	}
	s.doc = doc
	s.gen++
	return nil
}

// Navigate 打开URL
func (s *Snapshot) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	key, err := s.resolveKey(rawURL)
	if err != nil {
		return err
	}
	s.history = append(s.history, historyEntry{key: key})
	return s.render(key)
}

// ReadyState 返回预设的就绪状态
func (s *Snapshot) ReadyState(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errSessionClosed
	}
	if s.doc == nil {
		return "loading", nil
	}
	if len(s.ready) > 0 {
		state := s.ready[0]
		s.ready = s.ready[1:]
		return state, nil
	}
	return "complete", nil
}

// Query 在整个文档中查询元素
func (s *Snapshot) Query(ctx context.Context, by By, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSessionClosed
	}
	if s.doc == nil {
		return nil, nil
	}
	return s.query(s.doc, by, selector)
}

// Back 浏览器历史后退
func (s *Snapshot) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if len(s.history) < 2 {
		return models.ErrNoHistory
	}
	popped := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	if popped.pushed {
		return nil
	}
	return s.render(s.history[len(s.history)-1].key)
}

// Info 当前页面的URL和标题
func (s *Snapshot) Info(ctx context.Context) (PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return PageInfo{}, errSessionClosed
	}
	info := PageInfo{URL: "about:blank"}
	if len(s.history) > 0 {
		info.URL = s.origin.String() + s.history[len(s.history)-1].key
	}
	if s.doc != nil {
		if t := htmlquery.FindOne(s.doc, "//title"); t != nil {
			info.Title = strings.TrimSpace(htmlquery.InnerText(t))
		}
	}
	return info, nil
}

// Close 关闭会话
func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// query 调用方持有锁
func (s *Snapshot) query(root *html.Node, by By, selector string) ([]Element, error) {
	var nodes []*html.Node
	switch by {
	case ByXPath:
		found, err := htmlquery.QueryAll(root, selector)
		if err != nil {
			return nil, fmt.Errorf("无效的XPath %q: %w", selector, err)
		}
		for _, n := range found {
			if n.Type == html.ElementNode || n.Type == html.TextNode {
				nodes = append(nodes, n)
			}
		}
	case ByTag:
		if !tagNamePattern.MatchString(selector) {
			return nil, fmt.Errorf("无效的标签名 %q", selector)
		}
		nodes = goquery.NewDocumentFromNode(root).Find(selector).Nodes
	default:
		if _, err := cascadia.ParseGroup(selector); err != nil {
			return nil, fmt.Errorf("无效的CSS选择器 %q: %w", selector, err)
		}
		nodes = goquery.NewDocumentFromNode(root).Find(selector).Nodes
	}

	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &snapshotElement{s: s, node: n, gen: s.gen})
	}
	return out, nil
}

// activate 执行点击的效果,调用方持有锁
func (s *Snapshot) activate(n *html.Node) error {
	target := n
	if target.Type == html.TextNode {
		target = target.Parent
	}

	// 向上查找可点击的链接
	var link *html.Node
	for x := target; x != nil; x = x.Parent {
		if x.Type != html.ElementNode {
			continue
		}
		if hasAttr(x, "href") || hasAttr(x, "data-href") || hasAttr(x, "data-target") {
			link = x
			break
		}
	}
	if link == nil {
		return nil
	}

	if hasAttr(link, AttrPushHistory) && len(s.history) > 0 {
		s.history = append(s.history, historyEntry{key: s.history[len(s.history)-1].key, pushed: true})
	}

	href := attr(link, "data-href")
	if href == "" {
		href = attr(link, "href")
	}
	pane := attr(link, "data-target")
	if pane == "" && strings.HasPrefix(href, "#") {
		pane = href
	}

	switch {
	case pane != "":
		reveal(s.doc, strings.TrimPrefix(pane, "#"))
		return nil
	case href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:"):
		return nil
	}

	key, err := s.resolveKey(href)
	if err != nil {
		return err
	}
	s.history = append(s.history, historyEntry{key: key})
	return s.render(key)
}

type snapshotElement struct {
	s    *Snapshot
	node *html.Node
	gen  int
}

// lock 加锁并检查元素是否仍属于当前页面
func (e *snapshotElement) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.s.mu.Lock()
	if e.s.closed {
		e.s.mu.Unlock()
		return errSessionClosed
	}
	if e.gen != e.s.gen {
		e.s.mu.Unlock()
		return models.ErrStaleElement
	}
	return nil
}

func (e *snapshotElement) Text(ctx context.Context) (string, error) {
	if err := e.lock(ctx); err != nil {
		return "", err
	}
	defer e.s.mu.Unlock()
	// 自身或祖先隐藏时没有可见文本
	if !visible(e.node) {
		return "", nil
	}
	if e.node.Type == html.TextNode {
		return collapseSpaces(e.node.Data), nil
	}
	return innerText(e.node), nil
}

func (e *snapshotElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.lock(ctx); err != nil {
		return "", false, err
	}
	defer e.s.mu.Unlock()
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *snapshotElement) Visible(ctx context.Context) (bool, error) {
	if err := e.lock(ctx); err != nil {
		return false, err
	}
	defer e.s.mu.Unlock()
	return visible(e.node), nil
}

func (e *snapshotElement) Enabled(ctx context.Context) (bool, error) {
	if err := e.lock(ctx); err != nil {
		return false, err
	}
	defer e.s.mu.Unlock()
	return !hasAttr(e.node, "disabled"), nil
}

func (e *snapshotElement) Click(ctx context.Context) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.s.mu.Unlock()
	if !visible(e.node) {
		return errNotVisible
	}
	for x := e.node; x != nil; x = x.Parent {
		if hasAttr(x, AttrIntercept) {
			return errIntercepted
		}
	}
	return e.s.activate(e.node)
}

func (e *snapshotElement) ForceClick(ctx context.Context) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.s.mu.Unlock()
	return e.s.activate(e.node)
}

func (e *snapshotElement) ScrollIntoView(ctx context.Context) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	e.s.mu.Unlock()
	return nil
}

func (e *snapshotElement) Query(ctx context.Context, by By, selector string) ([]Element, error) {
	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	defer e.s.mu.Unlock()
	return e.s.query(e.node, by, selector)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// hiddenSelf 元素自身是否隐藏(hidden 属性或内联样式)
func hiddenSelf(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if hasAttr(n, "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func visible(n *html.Node) bool {
	for x := n; x != nil; x = x.Parent {
		if hiddenSelf(x) {
			return false
		}
	}
	return true
}

// reveal 显示指定id的元素
func reveal(doc *html.Node, id string) {
	if doc == nil || id == "" {
		return
	}
	n := htmlquery.FindOne(doc, fmt.Sprintf("//*[@id=%q]", id))
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			continue
		}
		if a.Key == "style" {
			a.Val = strings.ReplaceAll(strings.ReplaceAll(a.Val, "display:none", ""), "display: none", "")
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "thead": true, "tfoot": true, "tr": true, "ul": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "template": true, "noscript": true,
}

// innerText 近似浏览器的 innerText: 块级元素换行,隐藏元素不计入
func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(squashSpaces(c.Data))
			return
		case html.ElementNode:
			if skipTags[c.Data] || hiddenSelf(c) {
				return
			}
			if c.Data == "br" {
				sb.WriteString("\n")
				return
			}
		}
		block := c.Type == html.ElementNode && blockTags[c.Data]
		if block {
			sb.WriteString("\n")
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if block {
			sb.WriteString("\n")
		} else if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			sb.WriteString(" ")
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		walk(ch)
	}

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = collapseSpaces(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// squashSpaces 将连续空白压缩为一个空格,保留首尾空格
func squashSpaces(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
