package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/google/go-cmp/cmp"
)

const listPage = `<html><head><title>Project List</title></head><body>
<div class="project-card">
  <a class="btn btn-primary" href="/projects/1">View Details</a>
</div>
<div class="project-card">
  <a class="btn btn-primary" href="/projects/2" data-intercept="1">View Details</a>
</div>
<a href="javascript:void(0)" class="noop">noop</a>
</body></html>`

const detailPage = `<html><body>
<div class="details-project">
  <label>Project Name</label>
  <strong>Green Valley</strong>
</div>
<ul class="nav">
  <li><a class="nav-link" href="#promoter" data-push-history="1">Promoter Details</a></li>
</ul>
<div id="promoter" style="display: none">
  <div class="details-project"><label>Company Name</label><strong>Acme</strong></div>
</div>
<button class="btn" disabled>Disabled</button>
</body></html>`

func newTestSnapshot() *Snapshot {
	return NewSnapshot().
		AddPage("/list", listPage).
		AddPage("/projects/1", detailPage).
		AddPage("/projects/2", detailPage)
}

func texts(t *testing.T, ctx context.Context, els []Element) []string {
	t.Helper()
	out := make([]string, 0, len(els))
	for _, el := range els {
		s, err := el.Text(ctx)
		if err != nil {
			t.Fatalf("Text() error = %v", err)
		}
		out = append(out, s)
	}
	return out
}

func TestSnapshot_QueryModes(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	if err := s.Navigate(ctx, SnapshotOrigin+"/projects/1"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	tests := []struct {
		name     string
		by       By
		selector string
		want     []string
	}{
		{"CSS", ByCSS, "div.details-project strong", []string{"Green Valley", ""}},
		{"标签名", ByTag, "label", []string{"Project Name", ""}},
		{"XPath", ByXPath, "//label[contains(text(),'Project')]/following-sibling::*[1]", []string{"Green Valley"}},
		{"未找到", ByCSS, "table", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			els, err := s.Query(ctx, tt.by, tt.selector)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, texts(t, ctx, els)); diff != "" {
				t.Errorf("结果不匹配 (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshot_InvalidSelectors(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/list")

	if _, err := s.Query(ctx, ByCSS, "a[href*="); err == nil {
		t.Error("无效CSS选择器应返回错误")
	}
	if _, err := s.Query(ctx, ByXPath, "//a[contains("); err == nil {
		t.Error("无效XPath应返回错误")
	}
	if _, err := s.Query(ctx, ByTag, "a b"); err == nil {
		t.Error("无效标签名应返回错误")
	}
}

func TestSnapshot_TextNodes(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/projects/1")

	els, err := s.Query(ctx, ByXPath, "//text()[contains(., 'Project Name')]")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Project Name"}, texts(t, ctx, els)); diff != "" {
		t.Errorf("文本节点不匹配 (-want +got):\n%s", diff)
	}
}

func TestSnapshot_InnerText(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot().AddPage("/", `<html><body><div id="x">
	  <label>Address</label>:
	  <span>Plot 12,</span>
	  <p>Bhubaneswar</p>
	  <script>var a = 1;</script>
	  <span hidden>secret</span>
	</div></body></html>`)
	_ = s.Navigate(ctx, "/")

	els, _ := s.Query(ctx, ByCSS, "#x")
	got := texts(t, ctx, els)
	want := []string{"Address: Plot 12,\nBhubaneswar"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("innerText 不匹配 (-want +got):\n%s", diff)
	}
}

func TestSnapshot_HiddenAncestorText(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/projects/1")

	strongs, _ := s.Query(ctx, ByCSS, "#promoter strong")
	textNodes, _ := s.Query(ctx, ByXPath, "//text()[contains(., 'Acme')]")
	if len(strongs) != 1 || len(textNodes) != 1 {
		t.Fatalf("查询结果数量 = %d, %d", len(strongs), len(textNodes))
	}
	if diff := cmp.Diff([]string{"", ""}, texts(t, ctx, []Element{strongs[0], textNodes[0]})); diff != "" {
		t.Errorf("隐藏区域不应有可见文本 (-want +got):\n%s", diff)
	}

	tabs, _ := s.Query(ctx, ByCSS, "a.nav-link")
	if err := tabs[0].Click(ctx); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Acme", "Acme"}, texts(t, ctx, []Element{strongs[0], textNodes[0]})); diff != "" {
		t.Errorf("显示后文本不匹配 (-want +got):\n%s", diff)
	}
}

func TestSnapshot_ClickNavigatesAndBack(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/list")

	links, _ := s.Query(ctx, ByCSS, "a.btn.btn-primary")
	if len(links) != 2 {
		t.Fatalf("入口数量 = %d, want 2", len(links))
	}

	if err := links[0].Click(ctx); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if s.CurrentPath() != "/projects/1" {
		t.Errorf("CurrentPath() = %q", s.CurrentPath())
	}

	// 跳转后旧元素失效
	if _, err := links[1].Text(ctx); !errors.Is(err, models.ErrStaleElement) {
		t.Errorf("旧元素应失效, error = %v", err)
	}

	if err := s.Back(ctx); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if s.CurrentPath() != "/list" || s.Visits("/list") != 2 {
		t.Errorf("后退后状态错误: path=%q visits=%d", s.CurrentPath(), s.Visits("/list"))
	}

	if err := s.Back(ctx); !errors.Is(err, models.ErrNoHistory) {
		t.Errorf("没有历史时应返回 ErrNoHistory, error = %v", err)
	}
}

func TestSnapshot_InterceptedClick(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/list")

	links, _ := s.Query(ctx, ByCSS, "a.btn.btn-primary")
	if err := links[1].Click(ctx); err == nil {
		t.Fatal("被遮挡的元素普通点击应失败")
	}
	if s.CurrentPath() != "/list" {
		t.Errorf("点击失败后不应跳转: %q", s.CurrentPath())
	}
	if err := links[1].ForceClick(ctx); err != nil {
		t.Fatalf("ForceClick() error = %v", err)
	}
	if s.CurrentPath() != "/projects/2" {
		t.Errorf("脚本点击后应跳转: %q", s.CurrentPath())
	}
}

func TestSnapshot_TabRevealAndPushHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/list")
	_ = s.Navigate(ctx, "/projects/1")

	pane, _ := s.Query(ctx, ByCSS, "#promoter strong")
	if ok, _ := pane[0].Visible(ctx); ok {
		t.Fatal("标签内容初始应隐藏")
	}

	tabs, _ := s.Query(ctx, ByCSS, "a.nav-link")
	if err := tabs[0].Click(ctx); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if ok, err := pane[0].Visible(ctx); err != nil || !ok {
		t.Errorf("点击标签后内容应可见: ok=%v err=%v", ok, err)
	}
	if s.HistoryLen() != 3 {
		t.Errorf("HistoryLen() = %d, want 3", s.HistoryLen())
	}

	// 第一次后退只弹出标签产生的历史记录
	_ = s.Back(ctx)
	if s.CurrentPath() != "/projects/1" {
		t.Errorf("第一次后退后应仍在详情页: %q", s.CurrentPath())
	}
	_ = s.Back(ctx)
	if s.CurrentPath() != "/list" {
		t.Errorf("第二次后退后应回到列表: %q", s.CurrentPath())
	}
}

func TestSnapshot_EnabledAndAttribute(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Navigate(ctx, "/projects/1")

	btns, _ := s.Query(ctx, ByCSS, "button")
	if ok, _ := btns[0].Enabled(ctx); ok {
		t.Error("disabled 按钮应不可用")
	}

	links, _ := s.Query(ctx, ByCSS, "a.nav-link")
	href, ok, err := links[0].Attribute(ctx, "href")
	if err != nil || !ok || href != "#promoter" {
		t.Errorf("Attribute(href) = %q, %v, %v", href, ok, err)
	}
	if _, ok, _ := links[0].Attribute(ctx, "title"); ok {
		t.Error("不存在的属性 ok 应为 false")
	}
}

func TestSnapshot_VersionsAndReadyStates(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot().AddPage("/p", "<p>v1</p>", "<p>v2</p>")
	s.SetReadyStates("loading", "interactive")

	for _, want := range []string{"v1", "v2", "v2"} {
		_ = s.Navigate(ctx, "/p")
		els, _ := s.Query(ctx, ByTag, "p")
		if got := texts(t, ctx, els); len(got) != 1 || got[0] != want {
			t.Errorf("版本 = %v, want %s", got, want)
		}
	}

	var states []string
	for i := 0; i < 3; i++ {
		st, _ := s.ReadyState(ctx)
		states = append(states, st)
	}
	if diff := cmp.Diff([]string{"loading", "interactive", "complete"}, states); diff != "" {
		t.Errorf("就绪状态不匹配 (-want +got):\n%s", diff)
	}
}

func TestSnapshot_ClosedSession(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	_ = s.Close()
	if err := s.Navigate(ctx, "/list"); err == nil {
		t.Error("关闭后 Navigate 应失败")
	}
}

func TestLoadSnapshotDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "projects"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html":                 "<p>home</p>",
		"projects/project-list.html": listPage,
		"notes.txt":                  "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := LoadSnapshotDir(dir)
	if err != nil {
		t.Fatalf("LoadSnapshotDir() error = %v", err)
	}

	ctx := context.Background()
	_ = s.Navigate(ctx, models.DefaultListURL)
	info, _ := s.Info(ctx)
	if info.Title != "Project List" {
		t.Errorf("Title = %q, want Project List", info.Title)
	}

	if _, err := LoadSnapshotDir(t.TempDir()); err == nil {
		t.Error("空目录应返回错误")
	}
}
