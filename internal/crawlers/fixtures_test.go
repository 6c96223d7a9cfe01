package crawlers

import (
	"testing"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
)

const testListURL = browser.SnapshotOrigin + "/projects/project-list"

const listHTML = `<html><head><title>Projects</title></head><body>
<div class="project-card"><a class="btn btn-primary" href="/projects/1">View Details</a></div>
<div class="project-card"><a class="btn btn-primary" href="/projects/2">View Details</a></div>
<div class="project-card"><a class="btn btn-primary" href="/projects/3">View Details</a></div>
</body></html>`

const emptyListHTML = `<html><body><p>Loading...</p></body></html>`

const detailHTML = `<html><body>
<div class="container">
  <div class="details-project"><label>RERA Regd. No</label><strong>RP/01/2023/00123</strong></div>
  <div class="details-project"><label>Project Name</label><strong>Green Valley</strong></div>
  <div class="details-project"><label>Project Type</label><strong>Residential</strong></div>
  <div class="details-project"><label>Project Status</label>: Ongoing</div>
  <ul class="nav nav-tabs">
    <li><a class="nav-link" href="#summary">Summary</a></li>
    <li><a class="nav-link" href="#promoter" data-push-history="1">Promoter</a></li>
  </ul>
  <div id="promoter" style="display: none">
    <div class="details-project"><label>Company Name</label><strong>Acme Builders</strong></div>
    <div class="details-project"><label>Registered Office Address</label><strong>Plot 12, Bhubaneswar</strong></div>
    <div class="details-project"><label>GST No</label><a href="/download?fileId=GST123&amp;type=pdf">Download</a></div>
  </div>
</div>
</body></html>`

// 没有开发商标签和开发商字段的详情页
const detailNoTabHTML = `<html><body>
<div class="container">
  <div class="details-project"><label>RERA Regd. No</label><strong>RP/02/2024/00007</strong></div>
  <div class="details-project"><label>Project Name</label><strong>Lake View</strong></div>
  <div class="details-project"><label>Project Type</label><strong>Commercial</strong></div>
  <div class="details-project"><label>Project Status</label><strong>Completed</strong></div>
</div>
</body></html>`

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, snap *browser.Snapshot) (*Session, *utils.FakeClock) {
	t.Helper()
	clock := utils.NewFakeClock(testStart)
	return NewSession(snap, clock, models.DefaultTiming()), clock
}

func testConfig() models.ScrapeConfig {
	cfg := models.DefaultScrapeConfig()
	cfg.ListURL = testListURL
	return cfg
}

// singlePage 只有一个页面的会话,已打开该页面
func singlePage(t *testing.T, body string) (*Session, *browser.Snapshot) {
	t.Helper()
	snap := browser.NewSnapshot().AddPage("/p", body)
	s, _ := newTestSession(t, snap)
	if err := snap.Navigate(t.Context(), "/p"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	return s, snap
}
