package models

// 记录中的规范字段名
const (
	FieldReraRegdNo      = "RERA Regd. No"
	FieldProjectName     = "Project Name"
	FieldProjectType     = "Project Type"
	FieldProjectStatus   = "Project Status"
	FieldPromoterName    = "Promoter Name"
	FieldPromoterAddress = "Promoter Address"
	FieldGSTNo           = "GST No"

	// KeyScrapedAt 采集时间列
	KeyScrapedAt = "Scraped At"
)

// ScrapedAtLayout 采集时间格式
const ScrapedAtLayout = "2006-01-02 15:04:05"

// FieldSpec 规范字段及其候选标签
// 候选标签按顺序尝试,第一个得到可用值的生效
type FieldSpec struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// Single 单一标签的字段
func Single(name string) FieldSpec {
	return FieldSpec{Name: name, Aliases: []string{name}}
}

// BaseFields 详情页基础字段
var BaseFields = []FieldSpec{
	Single(FieldReraRegdNo),
	Single(FieldProjectName),
	Single(FieldProjectType),
	Single(FieldProjectStatus),
}

// PromoterFields 开发商标签字段
var PromoterFields = []FieldSpec{
	{Name: FieldPromoterName, Aliases: []string{"Company Name", "Promoter Name", "Developer Name", "Builder Name"}},
	{Name: FieldPromoterAddress, Aliases: []string{"Registered Office Address", "Address", "Office Address", "Registered Address"}},
	{Name: FieldGSTNo, Aliases: []string{"GST No", "GST", "GST Number", "GSTIN"}},
}

// DefaultPromoterProbes 判断开发商标签内容是否已加载的探测标签
var DefaultPromoterProbes = []string{"Company Name", "Promoter Name", "GST", "Address"}

// RecordKeys 记录的列顺序
func RecordKeys() []string {
	keys := make([]string, 0, len(BaseFields)+len(PromoterFields)+1)
	for _, f := range BaseFields {
		keys = append(keys, f.Name)
	}
	for _, f := range PromoterFields {
		keys = append(keys, f.Name)
	}
	return append(keys, KeyScrapedAt)
}
