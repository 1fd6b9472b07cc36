package histogram

import "math"

// NumBuckets is the fixed number of sentiment buckets spanning [-1, 1].
const NumBuckets = 11

// Labels names each bucket by the left-inclusive lower bound of its
// 0.2-wide score interval. The same labels are used as column names by
// both store backends and as keys in display responses.
var Labels = [NumBuckets]string{
	"-1.0", "-0.8", "-0.6", "-0.4", "-0.2",
	"0.0",
	"+0.2", "+0.4", "+0.6", "+0.8", "+1.0",
}

// Bin maps a polarity score to a bucket index. Scores are remapped
// linearly from [-1, 1] onto the 11 buckets and rounded half away from
// zero, so 0.0 lands in the center bucket. Out-of-range scores are
// clamped rather than rejected so a misbehaving scorer can never abort
// an ingestion run.
func Bin(score float64) int {
	idx := int(math.Round((score + 1) * 5))
	if idx < 0 {
		return 0
	}
	if idx > NumBuckets-1 {
		return NumBuckets - 1
	}
	return idx
}

// Counts accumulates per-bucket row counts for a single ingestion run.
// A Counts value is owned by exactly one run and is never shared while
// being written.
type Counts [NumBuckets]int64

// Add bins one score and increments its bucket.
func (c *Counts) Add(score float64) {
	c[Bin(score)]++
}

// Total returns the number of rows accumulated so far.
func (c Counts) Total() int64 {
	var sum int64
	for _, n := range c {
		sum += n
	}
	return sum
}
