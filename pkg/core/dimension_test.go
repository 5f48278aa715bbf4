package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func languageCountry() Axes {
	return Axes{
		{Name: "language", Default: "en", Values: []AxisValue{{Value: "en"}, {Value: "de"}}},
		{Name: "country", Default: "us", Values: []AxisValue{{Value: "us"}, {Value: "eu", Segment: "europe"}}},
	}
}

func TestEnumeratePairwise(t *testing.T) {
	points := languageCountry().Enumerate()
	assert.Len(t, points, 4)
	assert.Contains(t, points, DimensionPoint{"language": "en", "country": "us"})
	assert.Contains(t, points, DimensionPoint{"language": "de", "country": "eu"})
	assert.Contains(t, points, DimensionPoint{"language": "de", "country": "us"})
	assert.Contains(t, points, DimensionPoint{"language": "en", "country": "eu"})
	for _, point := range points {
		assert.Len(t, point, 2)
	}
}

func TestEnumerateSingleAxis(t *testing.T) {
	axes := Axes{{Name: "language", Values: []AxisValue{{Value: "en"}, {Value: "de"}, {Value: "fr"}}}}
	points := axes.Enumerate()
	assert.Equal(t, []DimensionPoint{
		{"language": "de"},
		{"language": "en"},
		{"language": "fr"},
	}, points)
}

func TestEnumerateWithoutAxes(t *testing.T) {
	assert.Equal(t, []DimensionPoint{{}}, Axes{}.Enumerate())
}

func TestEnumerateVariesAtMostTwoAxes(t *testing.T) {
	values := []AxisValue{{Value: "1"}, {Value: "2"}}
	axes := Axes{{Name: "a", Values: values}, {Name: "b", Values: values}, {Name: "c", Values: values}}
	points := axes.Enumerate()
	assert.Len(t, points, 7)
	assert.NotContains(t, points, DimensionPoint{"a": "2", "b": "2", "c": "2"})
}

func TestDimensionPointKey(t *testing.T) {
	point := DimensionPoint{"language": "en", "country": "us"}
	assert.Equal(t, "country=us&language=en", point.Key())
	assert.Equal(t, point.Hash(), DimensionPoint{"country": "us", "language": "en"}.Hash())
	assert.NotEqual(t, point.Hash(), DimensionPoint{"country": "eu", "language": "en"}.Hash())
	assert.Equal(t, "", DimensionPoint{}.Key())
}

func TestDimensionPointSegment(t *testing.T) {
	point := DimensionPoint{"language": "en", "country": "us"}
	assert.Equal(t, "en-us", point.Segment(languageCountry()...))
	assert.Equal(t, "us-en", point.Segment())
	assert.Equal(t, "en", DimensionPoint{"language": "en"}.Segment())
	assert.Equal(t, "", DimensionPoint{}.Segment())
}

func TestDimensionPointCovers(t *testing.T) {
	full := DimensionPoint{"language": "en", "country": "us"}
	assert.True(t, DimensionPoint{}.Covers(full))
	assert.True(t, DimensionPoint{"language": "en"}.Covers(full))
	assert.False(t, DimensionPoint{"language": "de"}.Covers(full))
	assert.False(t, full.Covers(DimensionPoint{"language": "en"}))
}

func TestResolvePath(t *testing.T) {
	axes := languageCountry()

	point, err := axes.ResolvePath("/de_europe/shop/cart", false)
	require.NoError(t, err)
	assert.Equal(t, DimensionPoint{"language": "de", "country": "eu"}, point)

	point, err = axes.ResolvePath("en_us", false)
	require.NoError(t, err)
	assert.Equal(t, DimensionPoint{"language": "en", "country": "us"}, point)

	point, err = axes.ResolvePath("/", true)
	require.NoError(t, err)
	assert.Equal(t, axes.Defaults(), point)

	_, err = axes.ResolvePath("/", false)
	assert.ErrorIs(t, err, ErrDimensionResolution)

	_, err = axes.ResolvePath("/xx_us/", false)
	assert.ErrorIs(t, err, ErrDimensionResolution)

	point, err = axes.ResolvePath("/shop", true)
	require.NoError(t, err)
	assert.Equal(t, axes.Defaults(), point)

	point, err = Axes{}.ResolvePath("/anything", false)
	require.NoError(t, err)
	assert.Empty(t, point)
}

func TestURIPrefix(t *testing.T) {
	axes := languageCountry()
	assert.Equal(t, "de_europe", axes.URIPrefix(DimensionPoint{"language": "de", "country": "eu"}))
	assert.Equal(t, "en_us", axes.URIPrefix(DimensionPoint{}))
	point, err := axes.ResolvePath("/"+axes.URIPrefix(DimensionPoint{"language": "de", "country": "eu"}), false)
	require.NoError(t, err)
	assert.Equal(t, DimensionPoint{"language": "de", "country": "eu"}, point)
}
