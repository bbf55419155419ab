package metrics

import "math"

type groupKey struct {
	kind   kind
	name   string
	bucket int64
}

// Flush drains every pending record enqueued no later than the moment
// Flush started, groups them by (minuteBucket, name) per kind, and writes
// each group into the cache backend. Concurrent Flush calls are
// suppressed by a single-flight guard; records enqueued after the cut
// survive to the next flush.
func (a *Aggregator) Flush() {
	if !a.flushing.TryLock() {
		return
	}
	defer a.flushing.Unlock()

	flushStart := a.clock.Now()

	a.mu.Lock()
	var due []entry
	var remaining []entry
	for _, e := range a.pending {
		if !e.enqueuedAt.After(flushStart) {
			due = append(due, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	a.pending = remaining
	a.mu.Unlock()

	if len(due) == 0 {
		return
	}

	groups := make(map[groupKey][]entry, len(due))
	names := make(map[string]struct{}, len(due))
	for _, e := range due {
		gk := groupKey{kind: e.kind, name: e.name, bucket: minuteBucket(e.enqueuedAt)}
		groups[gk] = append(groups[gk], e)
		names[e.name] = struct{}{}
	}

	for gk, entries := range groups {
		a.writeGroup(gk.kind, gk.name, gk.bucket, entries)
	}
	for name := range names {
		a.notifyWaiters(name)
	}
}

// writeGroup applies one (kind, name, bucket) group's entries to the
// cache backend using its atomic numeric operations, per kind: counters
// sum into an Increment, gauges track last/max, timers track
// count/total/min/max.
func (a *Aggregator) writeGroup(k kind, name string, bucket int64, entries []entry) {
	switch k {
	case kindCounter:
		a.writeCounter(name, bucket, entries)
	case kindGauge:
		a.writeGauge(name, bucket, entries)
	case kindTiming:
		a.writeTiming(name, bucket, entries)
	}
}

func (a *Aggregator) writeCounter(name string, bucket int64, entries []entry) {
	var sum float64
	for _, e := range entries {
		sum += e.value
	}
	key := bucketKey(a.prefix, kindCounter, name, bucket, "")
	_, _ = a.backend.Increment(key, int64(math.Round(sum)), defaultBucketTTL)
}

func (a *Aggregator) writeGauge(name string, bucket int64, entries []entry) {
	last := entries[len(entries)-1].value
	max := entries[0].value
	for _, e := range entries {
		if e.value > max {
			max = e.value
		}
	}
	lastKey := bucketKey(a.prefix, kindGauge, name, bucket, "last")
	maxKey := bucketKey(a.prefix, kindGauge, name, bucket, "max")
	a.backend.Set(lastKey, last, defaultBucketTTL)
	a.backend.SetIfHigher(maxKey, max, defaultBucketTTL)
}

func (a *Aggregator) writeTiming(name string, bucket int64, entries []entry) {
	var total float64
	min := entries[0].value
	max := entries[0].value
	for _, e := range entries {
		total += e.value
		if e.value < min {
			min = e.value
		}
		if e.value > max {
			max = e.value
		}
	}

	cntKey := bucketKey(a.prefix, kindTiming, name, bucket, "cnt")
	totKey := bucketKey(a.prefix, kindTiming, name, bucket, "tot")
	maxKey := bucketKey(a.prefix, kindTiming, name, bucket, "max")
	minKey := bucketKey(a.prefix, kindTiming, name, bucket, "min")

	_, _ = a.backend.Increment(cntKey, int64(len(entries)), defaultBucketTTL)
	_, _ = a.backend.Increment(totKey, int64(math.Round(total)), defaultBucketTTL)
	a.backend.SetIfHigher(maxKey, max, defaultBucketTTL)
	a.backend.SetIfLower(minKey, min, defaultBucketTTL)
}
