package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChartInterval(t *testing.T) {
	interval, ok := GetChartInterval("last7Days")
	require.True(t, ok)
	assert.Equal(t, 7, interval.Days)
	assert.Equal(t, BucketDay, interval.Granularity)

	interval, ok = GetChartInterval("last365Days")
	require.True(t, ok)
	assert.Equal(t, BucketMonth, interval.Granularity)

	_, ok = GetChartInterval("lastCentury")
	assert.False(t, ok)
}

func TestBucketKeyTimezoneBoundary(t *testing.T) {
	interval, _ := GetChartInterval("last7Days")

	// 23:30 UTC on Jan 1 is already Jan 2 east of Greenwich and still
	// Jan 1 to the west.
	visit := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	east := time.FixedZone("UTC+1", 3600)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), interval.BucketKey(visit, east))

	west := time.FixedZone("UTC-1", -3600)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), interval.BucketKey(visit, west))

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), interval.BucketKey(visit, time.UTC))
}

func TestBucketKeyMonthBoundary(t *testing.T) {
	interval, _ := GetChartInterval("last365Days")

	visit := time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC)
	east := time.FixedZone("UTC+1", 3600)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), interval.BucketKey(visit, east))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), interval.BucketKey(visit, time.UTC))
}

func TestSeriesDailyNoGaps(t *testing.T) {
	interval, _ := GetChartInterval("last7Days")
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	series := interval.Series(now, time.UTC)
	require.Len(t, series, 8) // window start through today, inclusive

	for i := 1; i < len(series); i++ {
		assert.Equal(t, series[i-1].AddDate(0, 0, 1), series[i])
	}
	assert.Equal(t, interval.BucketKey(now, time.UTC), series[len(series)-1])
}

func TestSeriesMonthly(t *testing.T) {
	interval, _ := GetChartInterval("last365Days")
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	series := interval.Series(now, time.UTC)
	require.Len(t, series, 13)

	for i := 1; i < len(series); i++ {
		assert.Equal(t, series[i-1].AddDate(0, 1, 0), series[i])
	}
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), series[len(series)-1])
}

func TestSeriesCrossesLocalMidnight(t *testing.T) {
	interval, _ := GetChartInterval("last7Days")

	// 23:30 UTC: the viewer one hour east is already on the next day,
	// so their series must end on that day.
	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	east := time.FixedZone("UTC+1", 3600)

	series := interval.Series(now, east)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), series[len(series)-1])
}

func TestStartDate(t *testing.T) {
	interval, _ := GetChartInterval("last7Days")
	east := time.FixedZone("UTC+1", 3600)

	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC) // Mar 16 00:30 east
	start := interval.StartDate(now, east)

	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, east), start)
}

func TestSeriesStart(t *testing.T) {
	day, _ := GetChartInterval("last7Days")
	month, _ := GetChartInterval("last365Days")
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	// Daily charts open at the window start.
	assert.Equal(t, day.StartDate(now, time.UTC), day.SeriesStart(now, time.UTC))

	// Monthly charts open at the first of the month containing the
	// window start, so the first bucket is not trimmed mid-month.
	assert.Equal(t, time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC), month.StartDate(now, time.UTC))
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), month.SeriesStart(now, time.UTC))

	// The series start is the first series bucket's opening instant.
	series := month.Series(now, time.UTC)
	assert.Equal(t, month.BucketKey(month.SeriesStart(now, time.UTC), time.UTC), series[0])
}

func TestFormatBucket(t *testing.T) {
	day, _ := GetChartInterval("last7Days")
	month, _ := GetChartInterval("last365Days")
	key := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "3/5/24", day.FormatBucket(key))
	assert.Equal(t, "Mar 24", month.FormatBucket(key))
}

func TestLoadTimezone(t *testing.T) {
	loc, err := LoadTimezone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadTimezone("Not/AZone")
	assert.Error(t, err)
}
