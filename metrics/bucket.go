// Package metrics implements a buffered metric aggregator: Counter/Gauge/
// Timer submission into an in-process FIFO, a single-flight periodic
// flush into a cache.Client backend using its atomic numeric operations,
// and time-series readback over minute-resolution buckets. Grounded on
// the teacher's capacitor/multilayer.go for the "submit fast, flush slow
// into a shared store" shape, adapted from capacitor's layered-read model
// to this package's submit/flush/read split.
package metrics

import (
	"strconv"
	"time"
)

// epoch2015 anchors the bucket-key minute index.
var epoch2015 = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

const minuteTicks = int64(time.Minute)

// kind tags a metric entry with the bucket-key grammar's single-letter
// kind: "c" | "g" | "t".
type kind byte

const (
	kindCounter kind = 'c'
	kindGauge   kind = 'g'
	kindTiming  kind = 't'
)

// minuteBucket returns the integer minute index since epoch2015 for t.
func minuteBucket(t time.Time) int64 {
	return (t.UTC().UnixNano() - epoch2015.UnixNano()) / minuteTicks
}

// bucketTime is minuteBucket's inverse, used by the reader to label a
// bucket with its minute boundary.
func bucketTime(bucket int64) time.Time {
	return epoch2015.Add(time.Duration(bucket) * time.Minute)
}

// bucketKey builds a key of the form
// <prefix>m:<kind>:<name>:<intervalMinutes>:<bucket>[:<suffix>].
func bucketKey(prefix string, k kind, name string, bucket int64, suffix string) string {
	key := prefix + "m:" + string(k) + ":" + name + ":1:" + strconv.FormatInt(bucket, 10)
	if suffix != "" {
		key += ":" + suffix
	}
	return key
}
