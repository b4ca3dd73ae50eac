package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

func BuildIndexMapping() *mapping.IndexMappingImpl {
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = standard.Name
	idx.TypeField = "type"

	// 文本
	text := mapping.NewTextFieldMapping()
	text.Store = true
	text.Index = true
	text.Analyzer = standard.Name
	text.IncludeInAll = true
	text.IncludeTermVectors = true // 高亮更精准

	// 关键词
	kw := mapping.NewTextFieldMapping()
	kw.Store = true
	kw.Index = true
	kw.Analyzer = keyword.Name

	// 数值/时间
	num := mapping.NewNumericFieldMapping()
	num.Store = true
	num.Index = true
	dt := mapping.NewDateTimeFieldMapping()
	dt.Store = true
	dt.Index = true

	alert := mapping.NewDocumentMapping()
	alert.Dynamic = false
	alert.AddFieldMappingsAt("message", text)
	alert.AddFieldMappingsAt("address", text)
	alert.AddFieldMappingsAt("category", kw)
	alert.AddFieldMappingsAt("status", kw)
	alert.AddFieldMappingsAt("user_id", num)
	alert.AddFieldMappingsAt("created_at", dt)
	idx.AddDocumentMapping("alert", alert)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}
