package metrics

import "time"

// CounterPoint is one minute bucket's count in a GetCounterStats range.
type CounterPoint struct {
	Time  time.Time
	Count int64
}

// CounterStats is GetCounterStats's result.
type CounterStats struct {
	Points []CounterPoint
	Sum    int64
}

// GaugePoint is one minute bucket's max/last reading in a GetGaugeStats
// range.
type GaugePoint struct {
	Time time.Time
	Max  float64
	Last float64
}

// GaugeStats is GetGaugeStats's result.
type GaugeStats struct {
	Points []GaugePoint
	// Max is the maximum across every bucket in the range.
	Max float64
	// Last is the most recent non-empty value in the range.
	Last float64
}

// TimerPoint is one minute bucket's timing aggregates in a GetTimerStats
// range.
type TimerPoint struct {
	Time  time.Time
	Count int64
	Total float64
	Min   float64
	Max   float64
}

// TimerStats is GetTimerStats's result.
type TimerStats struct {
	Points  []TimerPoint
	Count   int64
	Sum     float64
	Min     float64
	Max     float64
	Average float64
}

// enumerateBuckets lists every minute bucket from floor(start,1min) to
// floor(end,1min) inclusive.
func enumerateBuckets(start, end time.Time) []int64 {
	from := minuteBucket(start)
	to := minuteBucket(end)
	if to < from {
		from, to = to, from
	}
	buckets := make([]int64, 0, to-from+1)
	for b := from; b <= to; b++ {
		buckets = append(buckets, b)
	}
	return buckets
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetCounterStats enumerates minute buckets in [start,end], multi-gets
// them, and returns per-bucket counts plus the range sum.
func (a *Aggregator) GetCounterStats(name string, start, end time.Time) CounterStats {
	buckets := enumerateBuckets(start, end)
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = bucketKey(a.prefix, kindCounter, name, b, "")
	}
	results := a.backend.GetAll(keys)

	stats := CounterStats{Points: make([]CounterPoint, len(buckets))}
	for i, b := range buckets {
		n, _ := asInt64(results[keys[i]].Value)
		stats.Points[i] = CounterPoint{Time: bucketTime(b), Count: n}
		stats.Sum += n
	}
	return stats
}

// GetGaugeStats enumerates minute buckets in [start,end], fetching max
// and last readings for each, and summarizes the range's overall max and
// most recent non-empty value.
func (a *Aggregator) GetGaugeStats(name string, start, end time.Time) GaugeStats {
	buckets := enumerateBuckets(start, end)
	keys := make([]string, 0, len(buckets)*2)
	for _, b := range buckets {
		keys = append(keys,
			bucketKey(a.prefix, kindGauge, name, b, "max"),
			bucketKey(a.prefix, kindGauge, name, b, "last"),
		)
	}
	results := a.backend.GetAll(keys)

	stats := GaugeStats{Points: make([]GaugePoint, len(buckets))}
	for i, b := range buckets {
		maxV, maxOK := asFloat64(results[keys[2*i]].Value)
		lastV, lastOK := asFloat64(results[keys[2*i+1]].Value)
		stats.Points[i] = GaugePoint{Time: bucketTime(b), Max: maxV, Last: lastV}
		if maxOK && maxV > stats.Max {
			stats.Max = maxV
		}
		if lastOK {
			stats.Last = lastV
		}
	}
	return stats
}

// GetTimerStats enumerates minute buckets in [start,end], fetching
// count/total/min/max for each, and summarizes the range.
func (a *Aggregator) GetTimerStats(name string, start, end time.Time) TimerStats {
	buckets := enumerateBuckets(start, end)
	keys := make([]string, 0, len(buckets)*4)
	for _, b := range buckets {
		keys = append(keys,
			bucketKey(a.prefix, kindTiming, name, b, "cnt"),
			bucketKey(a.prefix, kindTiming, name, b, "tot"),
			bucketKey(a.prefix, kindTiming, name, b, "min"),
			bucketKey(a.prefix, kindTiming, name, b, "max"),
		)
	}
	results := a.backend.GetAll(keys)

	stats := TimerStats{Points: make([]TimerPoint, len(buckets))}
	for i, b := range buckets {
		cnt, _ := asInt64(results[keys[4*i]].Value)
		tot, _ := asFloat64(results[keys[4*i+1]].Value)
		min, minOK := asFloat64(results[keys[4*i+2]].Value)
		max, maxOK := asFloat64(results[keys[4*i+3]].Value)

		stats.Points[i] = TimerPoint{Time: bucketTime(b), Count: cnt, Total: tot, Min: min, Max: max}
		stats.Count += cnt
		stats.Sum += tot
		if minOK && (stats.Min == 0 || min < stats.Min) {
			stats.Min = min
		}
		if maxOK && max > stats.Max {
			stats.Max = max
		}
	}
	if stats.Count > 0 {
		stats.Average = stats.Sum / float64(stats.Count)
	}
	return stats
}
