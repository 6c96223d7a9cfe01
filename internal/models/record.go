package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record 单个项目的提取记录,构造后不可修改
type Record struct {
	index     int
	values    map[string]ExtractedValue
	scrapedAt time.Time
}

// NewRecord 创建记录
// 未提供的规范字段记为缺失,非规范字段返回错误
func NewRecord(index int, values map[string]ExtractedValue, scrapedAt time.Time) (*Record, error) {
	known := make(map[string]bool)
	for _, k := range RecordKeys() {
		known[k] = true
	}

	copied := make(map[string]ExtractedValue, len(known))
	for k, v := range values {
		if !known[k] || k == KeyScrapedAt {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
		copied[k] = v
	}
	for _, spec := range append(append([]FieldSpec{}, BaseFields...), PromoterFields...) {
		if _, ok := copied[spec.Name]; !ok {
			copied[spec.Name] = Absent()
		}
	}

	return &Record{index: index, values: copied, scrapedAt: scrapedAt}, nil
}

// Index 列表中的序号(从0开始)
func (r *Record) Index() int {
	return r.index
}

// ScrapedAt 采集时间
func (r *Record) ScrapedAt() time.Time {
	return r.scrapedAt
}

// Value 获取字段值
func (r *Record) Value(field string) (ExtractedValue, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Keys 记录的全部列名(有序)
func (r *Record) Keys() []string {
	return RecordKeys()
}

// Row 按列顺序渲染为字符串
func (r *Record) Row() []string {
	keys := RecordKeys()
	row := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == KeyScrapedAt {
			row = append(row, r.scrapedAt.Format(ScrapedAtLayout))
			continue
		}
		row = append(row, r.values[k].String())
	}
	return row
}

// Map 渲染为列名到文本的映射
func (r *Record) Map() map[string]string {
	keys := RecordKeys()
	row := r.Row()
	m := make(map[string]string, len(keys))
	for i, k := range keys {
		m[k] = row[i]
	}
	return m
}

// MarshalJSON 序列化为JSON
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int               `json:"index"`
		Fields map[string]string `json:"fields"`
	}{
		Index:  r.index,
		Fields: r.Map(),
	})
}
