package crawlers

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
)

func newSite(listVersions ...string) *browser.Snapshot {
	if len(listVersions) == 0 {
		listVersions = []string{listHTML}
	}
	return browser.NewSnapshot().
		AddPage("/projects/project-list", listVersions...).
		AddPage("/projects/1", detailHTML).
		AddPage("/projects/2", detailNoTabHTML).
		AddPage("/projects/3", detailHTML)
}

func startedNavigator(t *testing.T, snap *browser.Snapshot) (*Navigator, *utils.FakeClock) {
	t.Helper()
	s, clock := newTestSession(t, snap)
	nav := NewNavigator(s, testConfig())
	if _, err := nav.Start(t.Context(), testListURL); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return nav, clock
}

func TestNavigator_Start(t *testing.T) {
	snap := newSite()
	s, _ := newTestSession(t, snap)
	nav := NewNavigator(s, testConfig())

	n, err := nav.Start(t.Context(), testListURL)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n != 3 || nav.View() != models.ViewList {
		t.Errorf("Start() = %d, view %s; want 3, List", n, nav.View())
	}
}

func TestNavigator_StartNoEntries(t *testing.T) {
	snap := newSite(emptyListHTML)
	s, _ := newTestSession(t, snap)
	nav := NewNavigator(s, testConfig())

	if _, err := nav.Start(t.Context(), testListURL); !errors.Is(err, models.ErrNoEntries) {
		t.Errorf("Start() error = %v, want ErrNoEntries", err)
	}
}

func TestNavigator_StartWaitsForReadyState(t *testing.T) {
	snap := newSite()
	snap.SetReadyStates("loading", "interactive")
	s, clock := newTestSession(t, snap)

	if _, err := NewNavigator(s, testConfig()).Start(t.Context(), testListURL); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	want := []time.Duration{s.Timing.ReadyPollInterval, s.Timing.ReadyPollInterval, s.Timing.SettleDelay}
	if got := clock.Sleeps(); !slices.Equal(got, want) {
		t.Errorf("Sleeps() = %v, want %v", got, want)
	}
}

func TestNavigator_OpenDetail(t *testing.T) {
	snap := newSite()
	nav, clock := startedNavigator(t, snap)
	ctx := t.Context()

	view, err := nav.OpenDetail(ctx, 0)
	if err != nil {
		t.Fatalf("OpenDetail() error = %v", err)
	}
	if view != models.ViewDetail || snap.CurrentPath() != "/projects/1" {
		t.Errorf("OpenDetail() view = %s, path = %s", view, snap.CurrentPath())
	}
	sleeps := clock.Sleeps()
	for _, d := range []time.Duration{nav.s.Timing.PreClickDelay, nav.s.Timing.PostDetailDelay} {
		if !slices.Contains(sleeps, d) {
			t.Errorf("缺少等待 %s: %v", d, sleeps)
		}
	}

	// 不在列表页时不能再次进入详情
	if _, err := nav.OpenDetail(ctx, 1); !errors.Is(err, models.ErrUnexpectedView) {
		t.Errorf("OpenDetail() error = %v, want ErrUnexpectedView", err)
	}
}

func TestNavigator_OpenDetailOutOfRange(t *testing.T) {
	snap := newSite()
	nav, _ := startedNavigator(t, snap)

	view, err := nav.OpenDetail(t.Context(), 5)
	var idxErr *models.IndexError
	if !errors.As(err, &idxErr) || !errors.Is(err, models.ErrIndexOutOfRange) {
		t.Fatalf("OpenDetail() error = %v, want IndexError", err)
	}
	if idxErr.Available != 3 {
		t.Errorf("Available = %d, want 3", idxErr.Available)
	}
	if view != models.ViewList || snap.CurrentPath() != "/projects/project-list" {
		t.Errorf("越界时不应切换页面: view = %s, path = %s", view, snap.CurrentPath())
	}
}

func TestNavigator_OpenDetailInterceptedClick(t *testing.T) {
	intercepted := `<html><body>
<div class="overlay" data-intercept="1"><a class="btn btn-primary" href="/projects/1">View Details</a></div>
</body></html>`
	snap := newSite(intercepted)
	nav, _ := startedNavigator(t, snap)

	if _, err := nav.OpenDetail(t.Context(), 0); err != nil {
		t.Fatalf("OpenDetail() error = %v", err)
	}
	if snap.CurrentPath() != "/projects/1" {
		t.Errorf("脚本点击后应进入详情页: %s", snap.CurrentPath())
	}
}

func TestNavigator_PromoterTabAndBack(t *testing.T) {
	snap := newSite()
	nav, _ := startedNavigator(t, snap)
	ctx := t.Context()

	if _, err := nav.OpenDetail(ctx, 0); err != nil {
		t.Fatalf("OpenDetail() error = %v", err)
	}
	if v := nav.Extractor().Extract(ctx, "Company Name"); v.Usable() {
		t.Errorf("点击标签前不应读到开发商字段: %s", v)
	}
	view, clicked := nav.OpenPromoterTab(ctx)
	if !clicked || view != models.ViewPromoterTab {
		t.Fatalf("OpenPromoterTab() = %s, %v; want PromoterTab, true", view, clicked)
	}
	if v := nav.Extractor().Extract(ctx, "Company Name"); v.String() != "Acme Builders" {
		t.Errorf("点击标签后 Company Name = %q", v.String())
	}
	if snap.HistoryLen() != 3 {
		t.Errorf("HistoryLen() = %d, want 3", snap.HistoryLen())
	}

	// 标签产生了一条历史记录,需要后退两次
	if !nav.ReturnToList(ctx) {
		t.Fatal("ReturnToList() = false")
	}
	if nav.View() != models.ViewList || snap.CurrentPath() != "/projects/project-list" {
		t.Errorf("view = %s, path = %s", nav.View(), snap.CurrentPath())
	}
}

func TestNavigator_NoPromoterTab(t *testing.T) {
	snap := newSite()
	nav, _ := startedNavigator(t, snap)
	ctx := t.Context()

	if _, err := nav.OpenDetail(ctx, 1); err != nil {
		t.Fatalf("OpenDetail() error = %v", err)
	}
	view, clicked := nav.OpenPromoterTab(ctx)
	if clicked || view != models.ViewDetail {
		t.Errorf("OpenPromoterTab() = %s, %v; want Detail, false", view, clicked)
	}

	if !nav.ReturnToList(ctx) {
		t.Fatal("ReturnToList() = false")
	}
	if snap.Visits("/projects/project-list") != 2 {
		t.Errorf("列表页访问次数 = %d, want 2", snap.Visits("/projects/project-list"))
	}
}

func TestNavigator_PromoterProbeBudget(t *testing.T) {
	// 标签存在但内容始终为空,探测次数用完后照常继续
	body := `<html><body>
<div class="details-project"><label>Project Name</label><strong>X</strong></div>
<a class="nav-link" href="#promoter">Promoter</a>
<div id="promoter" hidden></div>
</body></html>`
	snap := browser.NewSnapshot().
		AddPage("/projects/project-list", listHTML).
		AddPage("/projects/1", body)
	nav, clock := startedNavigator(t, snap)
	ctx := t.Context()

	_, _ = nav.OpenDetail(ctx, 0)
	before := len(clock.Sleeps())

	view, clicked := nav.OpenPromoterTab(ctx)
	if !clicked || view != models.ViewPromoterTab {
		t.Fatalf("OpenPromoterTab() = %s, %v", view, clicked)
	}

	timing := nav.s.Timing
	probes := len(models.DefaultPromoterProbes)
	// 标签前等待 + 点击前等待 + 每轮(间隔 + 每个探测的提取等待)
	want := 2 + timing.PromoterPollAttempts*(1+probes)
	if got := len(clock.Sleeps()) - before; got != want {
		t.Errorf("等待次数 = %d, want %d", got, want)
	}
}

func TestNavigator_ReturnToListFails(t *testing.T) {
	// 第二次访问列表页时没有入口
	snap := newSite(listHTML, emptyListHTML)
	nav, _ := startedNavigator(t, snap)
	ctx := t.Context()

	if _, err := nav.OpenDetail(ctx, 1); err != nil {
		t.Fatalf("OpenDetail() error = %v", err)
	}
	if nav.ReturnToList(ctx) {
		t.Fatal("ReturnToList() = true, want false")
	}
	if nav.View() != models.ViewUnknown {
		t.Errorf("View() = %s, want Unknown", nav.View())
	}
	if _, err := nav.OpenDetail(ctx, 0); !errors.Is(err, models.ErrUnexpectedView) {
		t.Errorf("未知视图下 OpenDetail() error = %v", err)
	}
}

func TestNavigator_ReturnToListAlreadyOnList(t *testing.T) {
	snap := newSite()
	nav, _ := startedNavigator(t, snap)

	if !nav.ReturnToList(t.Context()) {
		t.Error("已在列表页时 ReturnToList() 应为 true")
	}
	if snap.HistoryLen() != 1 {
		t.Errorf("已在列表页时不应后退, HistoryLen() = %d", snap.HistoryLen())
	}
}
