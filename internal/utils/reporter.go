package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/xuri/excelize/v2"
)

// 输出文件名
const (
	ExcelNameLayout = "rera_projects_20060102_150405.xlsx"
	ReportFileName  = "run_report.json"
	SheetName       = "Projects"
)

// Reporter 采集结果输出
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// DefaultExcelName 按时间生成的表格文件名
func DefaultExcelName(now time.Time) string {
	return now.Format(ExcelNameLayout)
}

// SaveExcel 保存记录到xlsx,列顺序与 models.RecordKeys 一致
// 返回写入的文件路径
func (r *Reporter) SaveExcel(records []*models.Record, filename string) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("没有可保存的记录")
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return "", fmt.Errorf("设置工作表名称失败: %w", err)
	}

	header := models.RecordKeys()
	if err := writeRow(f, 1, header); err != nil {
		return "", err
	}
	for i, rec := range records {
		if err := writeRow(f, i+2, rec.Row()); err != nil {
			return "", err
		}
	}

	// 列宽按内容估算
	for col := range header {
		width := float64(len(header[col]) + 2)
		for _, rec := range records {
			if w := float64(len(rec.Row()[col]) + 2); w > width {
				width = w
			}
		}
		if width > 60 {
			width = 60
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return "", fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	path := filepath.Join(r.outputDir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("写入表格文件失败: %w", err)
	}

	Infof("✅ 已保存 %d 条记录: %s", len(records), path)
	return path, nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("写入第%d行失败: %w", row, err)
	}
	return nil
}

// SaveJSON 保存运行报告
func (r *Reporter) SaveJSON(result *models.RunResult, filename string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := result.ToJSON()
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}

	path := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return path, nil
}

// PrintRecords 在控制台输出记录
func PrintRecords(w io.Writer, records []*models.Record) {
	sep := strings.Repeat("=", 80)
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "📋 采集结果 (%d 条)\n", len(records))
	fmt.Fprintln(w, sep)

	keys := models.RecordKeys()
	for _, rec := range records {
		fmt.Fprintf(w, "\n项目 #%d\n", rec.Index()+1)
		fmt.Fprintln(w, strings.Repeat("-", 40))
		row := rec.Row()
		for i, k := range keys {
			fmt.Fprintf(w, "%-18s: %s\n", k, row[i])
		}
	}
	fmt.Fprintln(w, sep)
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
