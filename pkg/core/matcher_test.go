package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPrefixBeatsUnbound(t *testing.T) {
	records := []Record{
		{MatchingStatusCodes: []int{404}, Source: "#shop", PathPrefixes: []string{"/shop"}, Position: 995},
		{MatchingStatusCodes: []int{404}, Source: "#any", Position: 1000},
	}
	match := Match(records, nil, 404, "/shop/cart")
	require.NotNil(t, match)
	assert.Equal(t, "#shop", match.Source)

	match = Match(records, nil, 404, "/blog")
	require.NotNil(t, match)
	assert.Equal(t, "#any", match.Source)

	// 顺序不影响前缀优先
	match = Match([]Record{records[1], records[0]}, nil, 404, "/shop/cart")
	require.NotNil(t, match)
	assert.Equal(t, "#shop", match.Source)
}

func TestMatchNoStatus(t *testing.T) {
	records := []Record{{MatchingStatusCodes: []int{404}, Source: "#a"}}
	assert.Nil(t, Match(records, nil, 500, "/"))
	assert.Nil(t, Match(nil, nil, 404, "/"))
}

func TestMatchDimension(t *testing.T) {
	records := []Record{
		{MatchingStatusCodes: []int{404}, Source: "#en", Dimensions: DimensionPoint{"language": "en"}},
		{MatchingStatusCodes: []int{404}, Source: "#de", Dimensions: DimensionPoint{"language": "de"}},
	}
	match := Match(records, DimensionPoint{"language": "de"}, 404, "/")
	require.NotNil(t, match)
	assert.Equal(t, "#de", match.Source)

	// 没有完全匹配的维度时使用状态码匹配结果
	match = Match(records, DimensionPoint{"language": "fr"}, 404, "/")
	require.NotNil(t, match)
	assert.Equal(t, "#en", match.Source)

	match = Match(records, nil, 404, "/")
	require.NotNil(t, match)
	assert.Equal(t, "#en", match.Source)
}

func TestMatchFallsBackToStatusSurvivor(t *testing.T) {
	records := []Record{
		{MatchingStatusCodes: []int{404}, Source: "#shop", PathPrefixes: []string{"/shop"}},
		{MatchingStatusCodes: []int{404}, Source: "#blog", PathPrefixes: []string{"/blog"}},
	}
	match := Match(records, nil, 404, "/other")
	require.NotNil(t, match)
	assert.Equal(t, "#shop", match.Source)
}

func TestMatchPathWithinDimension(t *testing.T) {
	records := []Record{
		{MatchingStatusCodes: []int{404}, Source: "#en-shop", Dimensions: DimensionPoint{"language": "en"}, PathPrefixes: []string{"/en/shop"}},
		{MatchingStatusCodes: []int{404}, Source: "#de-shop", Dimensions: DimensionPoint{"language": "de"}, PathPrefixes: []string{"/de/shop"}},
		{MatchingStatusCodes: []int{404}, Source: "#de", Dimensions: DimensionPoint{"language": "de"}},
	}
	match := Match(records, DimensionPoint{"language": "de"}, 404, "/de/shop/cart")
	require.NotNil(t, match)
	assert.Equal(t, "#de-shop", match.Source)

	match = Match(records, DimensionPoint{"language": "de"}, 404, "/de/blog")
	require.NotNil(t, match)
	assert.Equal(t, "#de", match.Source)
}

func TestFindConfigurationForSite(t *testing.T) {
	configurations := SiteConfigurations{
		"main": {{MatchingStatusCodes: []int{404}, Source: "#main"}},
	}
	match := FindConfigurationForSite(configurations, "main", nil, 404, "/")
	require.NotNil(t, match)
	assert.Equal(t, "#main", match.Source)
	assert.Nil(t, FindConfigurationForSite(configurations, "other", nil, 404, "/"))
}
