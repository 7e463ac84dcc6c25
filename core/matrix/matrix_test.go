package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/model"
)

func TestBuildSymmetric(t *testing.T) {
	d := Build([]string{"b2", "A1", "c3", "a1"}, []model.Route{
		{Origin: "A1", Destination: "B2", DrivingMinutes: 12},
		{Origin: "C3", Destination: "a1", DrivingMinutes: 7},
		{Origin: "ZZ", Destination: "A1", DrivingMinutes: 1},
	})
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"A1", "B2", "C3"}, d.Postcodes())

	m, err := d.Minutes("b2", "a1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, m)
	m, _ = d.Minutes("A1", "C3")
	assert.Equal(t, 7.0, m)
	m, _ = d.Minutes("B2", "C3")
	assert.True(t, math.IsInf(m, 1))
	m, _ = d.Minutes("C3", "C3")
	assert.Zero(t, m)

	_, err = d.Minutes("A1", "ZZ")
	assert.ErrorIs(t, err, ErrUnknownPostcode)
}

func TestBuildEmpty(t *testing.T) {
	d := Build(nil, nil)
	assert.Zero(t, d.Len())
}

func TestPercentile(t *testing.T) {
	vals := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, Percentile(vals, 0))
	assert.Equal(t, 3.0, Percentile(vals, 50))
	assert.InDelta(t, 1.4, Percentile(vals, 10), 1e-9)
	assert.True(t, math.IsNaN(Percentile(nil, 10)))
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{2, 4, 6})
	assert.InDelta(t, 4, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(8.0/3), s.StdDev, 1e-9)
	assert.InDelta(t, 3, s.BalanceRatio, 1e-9)
	assert.Equal(t, 12.0, s.Total)
	assert.True(t, math.IsInf(Describe([]float64{0, 3}).BalanceRatio, 1))
}
