package types

import (
	"time"
)

// BucketGranularity is the calendar unit a chart interval groups views by.
type BucketGranularity string

const (
	BucketDay   BucketGranularity = "day"
	BucketMonth BucketGranularity = "month"
)

// ChartIntervalKey identifies one of the fixed dashboard lookback windows.
type ChartIntervalKey string

const (
	IntervalLast7Days   ChartIntervalKey = "last7Days"
	IntervalLast30Days  ChartIntervalKey = "last30Days"
	IntervalLast365Days ChartIntervalKey = "last365Days"
)

// ChartInterval describes a lookback window: how far back it starts, the
// bucket granularity views are grouped by, and how buckets are displayed.
//
// The zero-fill series (Series) and the aggregation grouping (BucketKey)
// must bucket identically or per-bucket counts will not line up with the
// series rows; both are therefore derived from the single BucketKey
// function here and nowhere else.
type ChartInterval struct {
	Key         ChartIntervalKey  `json:"key"`
	Label       string            `json:"label"`
	Days        int               `json:"days"`
	Granularity BucketGranularity `json:"granularity"`
}

var chartIntervals = map[ChartIntervalKey]ChartInterval{
	IntervalLast7Days:   {Key: IntervalLast7Days, Label: "Last 7 Days", Days: 7, Granularity: BucketDay},
	IntervalLast30Days:  {Key: IntervalLast30Days, Label: "Last 30 Days", Days: 30, Granularity: BucketDay},
	IntervalLast365Days: {Key: IntervalLast365Days, Label: "Last 365 Days", Days: 365, Granularity: BucketMonth},
}

// GetChartInterval looks up an interval by its wire key.
func GetChartInterval(key string) (ChartInterval, bool) {
	interval, ok := chartIntervals[ChartIntervalKey(key)]
	return interval, ok
}

// ChartIntervalList returns the intervals in lookback order.
func ChartIntervalList() []ChartInterval {
	return []ChartInterval{
		chartIntervals[IntervalLast7Days],
		chartIntervals[IntervalLast30Days],
		chartIntervals[IntervalLast365Days],
	}
}

// StartDate returns the start of the lookback window: the beginning of the
// civil day, Days ago, in the viewer's timezone. Returned in loc so SQL
// comparisons against timezone-shifted timestamps line up.
func (i ChartInterval) StartDate(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc).AddDate(0, 0, -i.Days)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SeriesStart returns the instant the first series bucket opens, in the
// viewer's timezone. For month granularity this reaches back to the
// first of the month containing the window start, so the first chart
// bucket counts its whole month instead of being trimmed at day -Days.
func (i ChartInterval) SeriesStart(now time.Time, loc *time.Location) time.Time {
	start := i.StartDate(now, loc)
	if i.Granularity == BucketMonth {
		return time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	}
	return start
}

// BucketKey snaps a UTC timestamp to its calendar bucket as seen from the
// viewer's timezone. The timezone conversion happens BEFORE truncation;
// truncating the stored UTC instant would misattribute visits near local
// midnight. Keys are normalized to UTC midnight so they compare and map
// consistently regardless of loc.
func (i ChartInterval) BucketKey(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	switch i.Granularity {
	case BucketMonth:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Series returns every bucket key from the start of the window through
// "today" inclusive, in chronological order: no gaps, no duplicates. A
// left-merge of aggregated counts onto this series yields one row per
// bucket with zero for empty buckets.
func (i ChartInterval) Series(now time.Time, loc *time.Location) []time.Time {
	start := i.BucketKey(now.AddDate(0, 0, -i.Days), loc)
	end := i.BucketKey(now, loc)

	var series []time.Time
	for cur := start; !cur.After(end); {
		series = append(series, cur)
		if i.Granularity == BucketMonth {
			cur = cur.AddDate(0, 1, 0)
		} else {
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return series
}

// FormatBucket renders a bucket key for display. Presentation only; the
// underlying key stays the comparable value.
func (i ChartInterval) FormatBucket(key time.Time) string {
	if i.Granularity == BucketMonth {
		return key.Format("Jan 06")
	}
	return key.Format("1/2/06")
}
