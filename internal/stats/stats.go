// Package stats reduces dispatch samples to aggregate run reports.
package stats

import (
	"sort"
	"time"

	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// Report is the aggregate view of one completed run. Every field is derived
// from the sample set alone; an empty run yields a zero-counted Report.
type Report struct {
	Total      int
	Successful int // calls that returned a 2xx status
	Failed     int // completed calls with any other status

	TotalLatency   time.Duration
	AverageLatency time.Duration
	MinLatency     time.Duration
	MaxLatency     time.Duration

	MedianLatency time.Duration
	P75Latency    time.Duration
	P95Latency    time.Duration
	P99Latency    time.Duration

	// Throughput is requests per second over the summed request latencies,
	// the serial rate a single caller would have seen. WallThroughput uses
	// the wall-clock span of the run instead, recovered from the earliest
	// request start and the latest completion in the sample set.
	Throughput     float64
	WallThroughput float64
	WallDuration   time.Duration

	// StatusCodes counts completed calls per status code. Always non-nil.
	StatusCodes map[int]int

	// Latency figures over successful calls only; zero when none succeeded.
	SuccessMinLatency time.Duration
	SuccessMaxLatency time.Duration
	SuccessAvgLatency time.Duration
}

// Aggregate reduces a sample set to a Report. The input is never mutated;
// percentiles are taken from a sorted copy of the latencies.
func Aggregate(samples []types.Sample) Report {
	rep := Report{
		Total:       len(samples),
		StatusCodes: make(map[int]int),
	}
	if rep.Total == 0 {
		return rep
	}

	var successTotal time.Duration
	var successMin, successMax time.Duration

	rep.MinLatency = samples[0].Latency
	rep.MaxLatency = samples[0].Latency
	earliestStart := samples[0].Timestamp.Add(-samples[0].Latency)
	latestEnd := samples[0].Timestamp

	for _, s := range samples {
		rep.TotalLatency += s.Latency
		rep.StatusCodes[s.Status]++

		if s.Latency < rep.MinLatency {
			rep.MinLatency = s.Latency
		}
		if s.Latency > rep.MaxLatency {
			rep.MaxLatency = s.Latency
		}

		if start := s.Timestamp.Add(-s.Latency); start.Before(earliestStart) {
			earliestStart = start
		}
		if s.Timestamp.After(latestEnd) {
			latestEnd = s.Timestamp
		}

		if isSuccess(s.Status) {
			rep.Successful++
			successTotal += s.Latency
			if rep.Successful == 1 || s.Latency < successMin {
				successMin = s.Latency
			}
			if s.Latency > successMax {
				successMax = s.Latency
			}
		}
	}

	rep.Failed = rep.Total - rep.Successful
	rep.AverageLatency = rep.TotalLatency / time.Duration(rep.Total)
	rep.WallDuration = latestEnd.Sub(earliestStart)

	if rep.Successful > 0 {
		rep.SuccessMinLatency = successMin
		rep.SuccessMaxLatency = successMax
		rep.SuccessAvgLatency = successTotal / time.Duration(rep.Successful)
	}

	sorted := make([]time.Duration, len(samples))
	for i, s := range samples {
		sorted[i] = s.Latency
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	rep.MedianLatency = percentile(sorted, 50)
	rep.P75Latency = percentile(sorted, 75)
	rep.P95Latency = percentile(sorted, 95)
	rep.P99Latency = percentile(sorted, 99)

	if secs := rep.TotalLatency.Seconds(); secs > 0 {
		rep.Throughput = float64(rep.Total) / secs
	}
	if secs := rep.WallDuration.Seconds(); secs > 0 {
		rep.WallThroughput = float64(rep.Total) / secs
	}

	return rep
}

// StatusPercent returns the share of calls that returned code, in percent.
func (r Report) StatusPercent(code int) float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.StatusCodes[code]) / float64(r.Total) * 100
}

// SuccessRate returns the share of calls with a 2xx status, in percent.
func (r Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.Total) * 100
}

// percentile returns the value at index floor(k*n/100) of the ascending
// sort, clamped to the final element. Values are never interpolated.
func percentile(sorted []time.Duration, k int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * k / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// isSuccess reports whether status is in the 2xx class.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
