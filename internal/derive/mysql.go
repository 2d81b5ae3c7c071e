// Package derive computes metrics that are calculated from already-collected
// base metrics rather than queried directly. Kept out of the collector
// packages so the math is engine-agnostic at the call site and
// independently testable.
package derive

import "strconv"

// BufferMissRatio is InnoDB's buffer pool miss ratio as a percentage: the
// reads/requests quotient rounded to 4 decimals, then scaled by 100.
// Returns 0 when there have been no read requests yet.
func BufferMissRatio(globalStatus map[string]string) float64 {
	reads := parseIntOr0(globalStatus["innodb_buffer_pool_reads"])
	requests := parseIntOr0(globalStatus["innodb_buffer_pool_read_requests"])
	if requests == 0 {
		return 0.0
	}
	ratio := round4(float64(reads)/float64(requests)) * 100
	return ratio
}

// ReadWriteRatio divides SELECT counts by the sum of INSERT/UPDATE/DELETE/
// REPLACE counts. Both sides are floored at 1 so a quiet instance reports a
// ratio of 1 rather than a division by zero.
func ReadWriteRatio(globalStatus map[string]string) float64 {
	reads := parseIntOr0(globalStatus["com_select"])
	writes := parseIntOr0(globalStatus["com_insert"]) +
		parseIntOr0(globalStatus["com_update"]) +
		parseIntOr0(globalStatus["com_delete"]) +
		parseIntOr0(globalStatus["com_replace"])

	if reads == 0 {
		reads = 1
	}
	if writes == 0 {
		writes = 1
	}
	return round4(float64(reads) / float64(writes))
}

func round4(v float64) float64 {
	const scale = 10000.0
	return float64(int64(v*scale+sign(v)*0.5)) / scale
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func parseIntOr0(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
