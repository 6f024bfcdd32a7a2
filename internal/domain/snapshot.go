package domain

import "time"

// SourceFallbackConstant marks a rate that was filled from the configured constant.
const SourceFallbackConstant = "fallback-constant"

const (
	NoticeUnavailable = "Exchange rates are unavailable. Converted amounts cannot be trusted."
	NoticeFallback    = "Live exchange rates could not be fetched. Default rates are used."
)

// RateSnapshot is an immutable record of USD-relative rates taken by one acquisition.
type RateSnapshot struct {
	Seq       uint64
	USDToRUB  float64
	USDToKGS  float64
	Status    SnapshotStatus
	RUBSource string
	KGSSource string
	// Failures holds the last failure reason per currency that fell through its whole chain.
	Failures  map[Currency]string
	FetchedAt time.Time
}

// Rate returns the amount of c per 1 USD.
func (s RateSnapshot) Rate(c Currency) float64 {
	switch c {
	case USD:
		return 1
	case KGS:
		return s.USDToKGS
	case RUB:
		return s.USDToRUB
	default:
		return 0
	}
}

func (s RateSnapshot) Valid() bool {
	return s.Status == SnapshotStatusValid
}

// UsedFallback reports whether any rate was filled from a fallback constant.
func (s RateSnapshot) UsedFallback() bool {
	return s.RUBSource == SourceFallbackConstant || s.KGSSource == SourceFallbackConstant
}

// Notice is the user-visible message for the snapshot, empty when live rates are in use.
func (s RateSnapshot) Notice() string {
	switch {
	case !s.Valid():
		return NoticeUnavailable
	case s.UsedFallback():
		return NoticeFallback
	default:
		return ""
	}
}

// StatusFor derives the snapshot status from the two rates.
func StatusFor(usdToRUB, usdToKGS float64) SnapshotStatus {
	if usdToRUB > 0 && usdToKGS > 0 {
		return SnapshotStatusValid
	}
	return SnapshotStatusDegraded
}
