// Package domain models hourly surface weather observations and the commute
// comfort heuristic built on top of them.
//
// # Data Source
//
// Observations come from the KMA (Korea Meteorological Administration) typ01
// surface observation endpoint (kma_sfctm3), queried with a tm1/tm2 time range
// and a station id. The response is plain text: a comment block ("#" lines)
// that usually contains the column header, followed by one whitespace-separated
// row per hourly reading.
//
// # KMA typ01 Conventions
//
// Column names vary between deployments and help modes; the normalizer
// resolves aliases into the canonical schema:
//
//	timestamp:     TM / YYMMDDHHMI  →  "202408290700" (KST, also seen as YYYYMMDDHH)
//	temperature:   TA / TEMP        →  degrees Celsius
//	wind speed:    WS / WIND        →  meters per second
//	precipitation: RN / RN_1 / PR1  →  millimeters over the hour
//	humidity:      HM / RH / REH    →  relative humidity percent
//
// Missing values are encoded with negative sentinels in the -9 / -99 / -999
// family, or as a bare "-" or "." token. Temperature can be legitimately
// negative, so only values at or below -900 count as absent there; humidity
// cannot, so any negative humidity reading means the sensor was absent and
// scores as the neutral 50%. Negative precipitation is a no-precipitation
// sentinel and becomes 0.0; humidity above 100 is clamped. Clamping is
// recorded on the observation as a fact, not an error.
//
// # Time Handling
//
// All civil-time logic runs in Asia/Seoul (KST, fixed UTC+9, no DST).
// Timestamps are truncated to the start of their hour so that a reading taken
// at 10:59 is reported under hour 10:00. One batch is always ordered newest
// first; duplicate timestamps keep the last-seen row.
//
// # Comfort Score
//
// The score starts at 100 and subtracts one penalty per weather factor,
// each independently capped:
//
//	temperature: 0 inside [10,25]°C, else 2.5/°C below or 1.8/°C above, cap 40
//	precipitation: 5.0 per mm, cap 35
//	wind: 0 at or below 4 m/s, else 3.0 per m/s of excess, cap 25
//	humidity: 0 inside [30,70]%, else 0.5 per point outside, cap 15
//
// A multi-observation window is reduced by taking the arithmetic mean of each
// penalty factor across the window (see reduceWindow), then the label is
// derived from fixed thresholds: ≥80 perfect, ≥60 comfortable, ≥40 moderate,
// below that uncomfortable.
package domain
