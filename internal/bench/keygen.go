package bench

import (
	"fmt"
	"strconv"
)

// GenConfig parameterizes the deterministic record generator used by the
// database benchmarks.
type GenConfig struct {
	// N is the size of the pre-inserted data set.
	N int
	// Prime spreads indices over the value classes.
	Prime int
	// Modulus bounds the hex prefix of identifiers.
	Modulus int
	// ClassModulus is the number of distinct integer values.
	ClassModulus int
	// FloatFactor turns the signed value into the float field.
	FloatFactor float64
	// GetDivider divides N for unindexed lookups, which scan the table.
	GetDivider int
}

// DefaultGenConfig returns the generator used by the catalog: 4096 records
// in 512 value classes.
func DefaultGenConfig() GenConfig {
	const n = 1 << 12
	return GenConfig{
		N:            n,
		Prime:        11971,
		Modulus:      256,
		ClassModulus: n >> 3,
		FloatFactor:  3.1415926,
		GetDivider:   n >> 8,
	}
}

// ClassLimit is half the class modulus; signed values lie in
// [-ClassLimit, ClassLimit).
func (g GenConfig) ClassLimit() int { return g.ClassModulus >> 1 }

// Identifier returns the string field of record i. The hex prefix scatters
// records across the key space.
func (g GenConfig) Identifier(i int) string {
	return fmt.Sprintf("%x-benchmark-%d", i*g.Prime%g.Modulus, i)
}

// Signed returns the sint field of record i.
func (g GenConfig) Signed(i int) int64 {
	return int64(i*g.Prime%g.ClassModulus - g.ClassLimit())
}

// Unsigned returns the uint field of record i.
func (g GenConfig) Unsigned(i int) uint64 {
	return uint64(i * g.Prime % g.ClassModulus)
}

// Float returns the float field of record i.
func (g GenConfig) Float(i int) float64 {
	return float64(g.Signed(i)) * g.FloatFactor
}

// UpdatedSigned returns the sint value an update writes to record i.
func (g GenConfig) UpdatedSigned(i int) int64 {
	return int64((i+g.Prime)*g.Prime%g.ClassModulus - g.ClassLimit())
}

// RangeBounds returns the inclusive sint bounds of the i-th range query.
// Consecutive i partition the signed value space into GetDivider slices.
func (g GenConfig) RangeBounds(i int) (lo, hi int64) {
	width := g.ClassModulus / g.GetDivider
	lo = int64(i*width - g.ClassLimit())
	hi = int64((i+1)*width - (g.ClassLimit() + 1))
	return lo, hi
}

// Lookups returns how many point lookups a pass performs. Without an index
// every lookup scans the table, so the count is divided.
func (g GenConfig) Lookups(indexed bool) int {
	if indexed {
		return g.N
	}
	return g.N / g.GetDivider
}

// KeyName returns the name of the i-th key, object or item.
func KeyName(i int) string {
	return "benchmark-" + strconv.Itoa(i)
}
