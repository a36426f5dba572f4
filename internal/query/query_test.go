package query

import (
	"math"
	"testing"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBound(t *testing.T) {
	ts, err := ParseBound("start", "2024-03-01T10:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *ts)

	// Naive timestamps are read as UTC
	ts, err = ParseBound("start", "2024-03-01T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *ts)

	ts, err = ParseBound("start", "")
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestParseBound_MalformedIsValidationError(t *testing.T) {
	_, err := ParseBound("end_time", "yesterday")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "end_time", errors.AsAPIError(err).Field())
}

func TestTimeRange_IsInclusive(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	tr := TimeRange{Start: &start, End: &end}

	assert.True(t, tr.Contains(start))
	assert.True(t, tr.Contains(end))
	assert.False(t, tr.Contains(end.Add(time.Nanosecond)))
	assert.False(t, tr.Contains(start.Add(-time.Nanosecond)))

	onlyStart := TimeRange{Start: &start}
	assert.True(t, onlyStart.Contains(end.Add(24*time.Hour)))
	onlyEnd := TimeRange{End: &end}
	assert.True(t, onlyEnd.Contains(start.Add(-24*time.Hour)))
}

func TestFilter_Matches(t *testing.T) {
	threshold := 10.0
	f := Filter{SensorType: models.Temperature, ValueAbove: &threshold}

	assert.True(t, f.Matches(models.Reading{SensorType: models.Temperature, Value: 10.5}))
	assert.False(t, f.Matches(models.Reading{SensorType: models.Temperature, Value: 10}))
	assert.False(t, f.Matches(models.Reading{SensorType: models.Humidity, Value: 50}))

	f = Filter{DeviceID: "dev001", SensorID: "temp001"}
	assert.True(t, f.Matches(models.Reading{DeviceID: "dev001", SensorID: "temp001"}))
	assert.False(t, f.Matches(models.Reading{DeviceID: "dev002", SensorID: "temp001"}))
}

func TestPagination(t *testing.T) {
	p, err := NewPagination(3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Skip())
	assert.Equal(t, 3, p.TotalPages(23))
	assert.Equal(t, Window{Skip: 20, Limit: 10}, p.Window())

	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
}

func TestPagination_RejectsNonPositivePerPage(t *testing.T) {
	for _, perPage := range []int{0, -5} {
		_, err := NewPagination(1, perPage)
		require.Error(t, err)
		assert.Equal(t, "per_page", errors.AsAPIError(err).Field())
	}
	_, err := NewPagination(0, 10)
	assert.True(t, errors.IsValidation(err))
}

func TestNewLimitWindow(t *testing.T) {
	w, err := NewLimitWindow(100)
	require.NoError(t, err)
	assert.Equal(t, Window{Limit: 100}, w)

	_, err = NewLimitWindow(0)
	assert.True(t, errors.IsValidation(err))
}

func TestParseNumbers(t *testing.T) {
	v, err := ParseInt("page", "", DefaultPage)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = ParseInt("page", "two", DefaultPage)
	assert.Equal(t, "page", errors.AsAPIError(err).Field())

	f, err := ParseFloat("threshold", "27.5")
	require.NoError(t, err)
	assert.Equal(t, 27.5, *f)

	f, err = ParseFloat("threshold", "")
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = ParseFloat("threshold", "hot")
	assert.Equal(t, "threshold", errors.AsAPIError(err).Field())
}

func TestPagination_RejectsOverflowingPage(t *testing.T) {
	_, err := NewPagination(math.MaxInt64/5, 10)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "page", errors.AsAPIError(err).Field())

	p, err := NewPagination(math.MaxInt/10+1, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Skip(), 0)
}

func TestParseFloat_RejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity"} {
		f, err := ParseFloat("threshold", raw)
		require.Error(t, err, raw)
		assert.Nil(t, f)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, "threshold", errors.AsAPIError(err).Field())
	}
}
