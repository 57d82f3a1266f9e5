package batch

import (
	"math"
	"slices"

	"github.com/vovakirdan/stratometer/internal/match"
)

// Scored is a finished match as seen by the statistics. It is satisfied by
// match.Result and by stored match records.
type Scored interface {
	FinalScore() float64
	PhasePoints(p match.Phase) float64
	Failed() bool
}

// Summary holds score statistics over a set of matches. Failed matches are
// counted but excluded from every score statistic.
type Summary struct {
	Runs       int
	Failed     int
	Mean       float64
	StdDev     float64 // sample standard deviation
	Min        float64
	Max        float64
	Median     float64
	P10        float64
	P90        float64
	PhaseMeans map[match.Phase]float64
}

// Completed returns the number of matches that contribute to the statistics.
func (s Summary) Completed() int {
	return s.Runs - s.Failed
}

// Summarize computes score statistics.
func Summarize[T Scored](results []T) Summary {
	sum := Summary{
		Runs:       len(results),
		PhaseMeans: make(map[match.Phase]float64, len(match.Phases)),
	}

	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			sum.Failed++
			continue
		}
		scores = append(scores, r.FinalScore())
		for _, p := range match.Phases {
			sum.PhaseMeans[p] += r.PhasePoints(p)
		}
	}
	if len(scores) == 0 {
		return sum
	}

	n := float64(len(scores))
	for _, p := range match.Phases {
		sum.PhaseMeans[p] /= n
	}

	total := 0.0
	for _, v := range scores {
		total += v
	}
	sum.Mean = total / n

	if len(scores) > 1 {
		ss := 0.0
		for _, v := range scores {
			d := v - sum.Mean
			ss += d * d
		}
		sum.StdDev = math.Sqrt(ss / (n - 1))
	}

	slices.Sort(scores)
	sum.Min = scores[0]
	sum.Max = scores[len(scores)-1]
	sum.Median = percentile(scores, 0.5)
	sum.P10 = percentile(scores, 0.1)
	sum.P90 = percentile(scores, 0.9)
	return sum
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Bin is one histogram bucket covering [Lo, Hi). The last bin also
// includes Hi.
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram buckets the scores of completed matches into equal-width bins.
// It returns nil when there is nothing to bucket.
func Histogram[T Scored](results []T, bins int) []Bin {
	var scores []float64
	for _, r := range results {
		if !r.Failed() {
			scores = append(scores, r.FinalScore())
		}
	}
	if len(scores) == 0 || bins < 1 {
		return nil
	}

	lo, hi := slices.Min(scores), slices.Max(scores)
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(scores)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi

	for _, v := range scores {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
