package catalog

import "time"

// NewBatchID mints the monotonic timestamp fingerprint assigned once per
// new unit of work (a new landed object, or a new API call result) and
// carried unchanged through silver and gold: YYYYMMDDhhmmssffffff
// (microseconds) with the trailing digit trimmed, matching
// int(datetime.now().strftime("%Y%m%d%H%M%S%f")[:-1]) in the original.
func NewBatchID(now time.Time) int64 {
	micros := now.Format("20060102150405.000000")
	// now.Format gives "YYYYMMDDhhmmss.ffffff"; strip the dot, then drop
	// the trailing digit to mirror the original's [:-1] slice.
	digits := make([]byte, 0, len(micros))

	for i := 0; i < len(micros); i++ {
		if micros[i] != '.' {
			digits = append(digits, micros[i])
		}
	}

	digits = digits[:len(digits)-1]

	var id int64
	for _, d := range digits {
		id = id*10 + int64(d-'0')
	}

	return id
}
