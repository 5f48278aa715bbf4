package core

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// DimensionPoint 维度坐标，每个维度仅有一个取值
type DimensionPoint map[string]string

func (p DimensionPoint) Equal(other DimensionPoint) bool {
	return maps.Equal(p, other)
}

// Key returns the canonical sorted form, `axis=value&axis=value`.
func (p DimensionPoint) Key() string {
	keys := slices.Sorted(maps.Keys(p))
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(p[k])
	}
	return sb.String()
}

func (p DimensionPoint) Hash() string {
	return strconv.FormatUint(xxhash.Sum64String(p.Key()), 16)
}

// Covers reports whether every axis fixed by p has the same value in point.
// An empty point covers everything.
func (p DimensionPoint) Covers(point DimensionPoint) bool {
	for axis, value := range p {
		if point[axis] != value {
			return false
		}
	}
	return true
}

// Segment joins the values with "-". Axis order follows axes when given,
// otherwise axis names are sorted.
func (p DimensionPoint) Segment(axes ...Axis) string {
	names := make([]string, 0, len(p))
	if len(axes) > 0 {
		for _, axis := range axes {
			if _, ok := p[axis.Name]; ok {
				names = append(names, axis.Name)
			}
		}
	} else {
		names = slices.Sorted(maps.Keys(p))
	}
	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, p[name])
	}
	return strings.Join(values, "-")
}

type AxisValue struct {
	Value   string `yaml:"value" json:"value"`
	Segment string `yaml:"segment,omitempty" json:"segment,omitempty"` // URL 路径片段，默认为 Value
}

func (v AxisValue) URISegment() string {
	if v.Segment != "" {
		return v.Segment
	}
	return v.Value
}

// Axis 内容维度
type Axis struct {
	Name    string      `yaml:"name" json:"name"`
	Default string      `yaml:"default,omitempty" json:"default,omitempty"`
	Values  []AxisValue `yaml:"values" json:"values"`
}

func (a Axis) DefaultValue() string {
	if a.Default != "" {
		return a.Default
	}
	if len(a.Values) > 0 {
		return a.Values[0].Value
	}
	return ""
}

type Axes []Axis

func (a Axes) Defaults() DimensionPoint {
	point := make(DimensionPoint, len(a))
	for _, axis := range a {
		point[axis.Name] = axis.DefaultValue()
	}
	return point
}

// Enumerate crosses every axis with every other axis (itself included) and
// fills the remaining axes with their defaults. Combinations varying in more
// than two axes at once are not produced.
func (a Axes) Enumerate() []DimensionPoint {
	if len(a) == 0 {
		return []DimensionPoint{{}}
	}
	defaults := a.Defaults()
	seen := make(map[string]DimensionPoint)
	for i, left := range a {
		for _, right := range a[i:] {
			for _, lv := range left.Values {
				for _, rv := range right.Values {
					if left.Name == right.Name && lv.Value != rv.Value {
						continue
					}
					point := maps.Clone(defaults)
					point[left.Name] = lv.Value
					point[right.Name] = rv.Value
					seen[point.Hash()] = point
				}
			}
		}
	}
	result := slices.Collect(maps.Values(seen))
	slices.SortFunc(result, func(x, y DimensionPoint) int {
		return strings.Compare(x.Key(), y.Key())
	})
	return result
}

// ResolvePath derives a coordinate from the first segment of a request path,
// where per-axis URI segments are joined by "_" in axis order. With
// allowEmpty a missing or unknown segment resolves to the defaults.
func (a Axes) ResolvePath(requestPath string, allowEmpty bool) (DimensionPoint, error) {
	if len(a) == 0 {
		return DimensionPoint{}, nil
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(requestPath, "/"), "/")
	if first == "" {
		if allowEmpty {
			return a.Defaults(), nil
		}
		return nil, errors.Wrap(ErrDimensionResolution, "empty dimension segment")
	}
	parts := strings.Split(first, "_")
	if len(parts) == len(a) {
		point := make(DimensionPoint, len(a))
		for i, axis := range a {
			for _, value := range axis.Values {
				if value.URISegment() == parts[i] {
					point[axis.Name] = value.Value
					break
				}
			}
			if _, ok := point[axis.Name]; !ok {
				break
			}
		}
		if len(point) == len(a) {
			return point, nil
		}
	}
	if allowEmpty {
		return a.Defaults(), nil
	}
	return nil, errors.Wrapf(ErrDimensionResolution, "unknown dimension segment %q", first)
}

// URIPrefix builds the leading path segment for a point, the inverse of ResolvePath.
func (a Axes) URIPrefix(point DimensionPoint) string {
	parts := make([]string, 0, len(a))
	for _, axis := range a {
		value, ok := point[axis.Name]
		if !ok {
			value = axis.DefaultValue()
		}
		segment := value
		for _, v := range axis.Values {
			if v.Value == value {
				segment = v.URISegment()
				break
			}
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "_")
}
