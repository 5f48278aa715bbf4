package core

import (
	"encoding/json"
	"slices"
	"strings"
)

// MaxPosition is the position of a record without path prefixes; every
// prefix character moves a record further to the front.
const MaxPosition = 1000

// Record 错误页配置
type Record struct {
	MatchingStatusCodes []int          `yaml:"matching_status_codes" json:"matching_status_codes"`
	Dimensions          DimensionPoint `yaml:"dimensions" json:"dimensions"`
	DimensionSegment    string         `yaml:"dimension_path_segment,omitempty" json:"dimension_path_segment,omitempty"`
	Source              string         `yaml:"source" json:"source"`           // 渲染错误页的节点，格式为 #<identifier>
	Destination         string         `yaml:"destination" json:"destination"` // 目标路径模板
	PathPrefixes        []string       `yaml:"path_prefixes,omitempty" json:"path_prefixes,omitempty"`
	Position            int            `yaml:"position" json:"position"`
}

// Position computes the specificity of a prefix set.
func Position(prefixes []string) int {
	position := MaxPosition
	for _, prefix := range prefixes {
		position -= len(prefix)
	}
	return position
}

func (r *Record) MatchesStatus(code int) bool {
	return slices.Contains(r.MatchingStatusCodes, code)
}

// MatchesPath reports whether the slash-stripped request path starts with
// one of the slash-stripped prefixes.
func (r *Record) MatchesPath(requestPath string) bool {
	requestPath = strings.TrimLeft(requestPath, "/")
	for _, prefix := range r.PathPrefixes {
		if strings.HasPrefix(requestPath, strings.TrimLeft(prefix, "/")) {
			return true
		}
	}
	return false
}

// NodeReference returns the identifier part of Source.
func (r *Record) NodeReference() (string, bool) {
	id, ok := strings.CutPrefix(r.Source, "#")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// PathSegment is the value bound to `dimensions` in destination templates.
func (r *Record) PathSegment() string {
	if r.DimensionSegment != "" {
		return r.DimensionSegment
	}
	return r.Dimensions.Segment()
}

// Key is the structural identity of the record.
func (r *Record) Key() string {
	record := *r
	if record.Dimensions == nil {
		record.Dimensions = DimensionPoint{}
	}
	marshal, _ := json.Marshal(&record)
	return string(marshal)
}

func (r *Record) String() string {
	return strings.ReplaceAll(r.Key(), "\"", "'")
}

// Dedupe keeps the first of structurally identical records.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	result := make([]Record, 0, len(records))
	for _, record := range records {
		key := record.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, record)
	}
	return result
}

// SiteConfigurations 站点名称到有序配置列表
type SiteConfigurations map[string][]Record

func (s SiteConfigurations) Sites() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
