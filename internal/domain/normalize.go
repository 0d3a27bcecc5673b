package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Values at or below this are KMA missing-data sentinels (-9, -99, -999...).
const sentinelThreshold = -900.0

// neutralHumidityPct substitutes for a missing humidity reading. It sits in
// the middle of the comfort band, so an absent sensor never adds a penalty.
const neutralHumidityPct = 50.0

// Alias tables mapping provider field names onto the canonical schema.
// Canonical JSON names are included so normalized output re-normalizes to itself.
var (
	timestampKeys   = []string{"tm", "yymmddhhmi", "timestamp"}
	temperatureKeys = []string{"ta", "temp", "temperature", "temperature_c"}
	tempTenthsKeys  = []string{"ta10", "temperature_tenths"}
	windKeys        = []string{"ws", "wind", "wind_speed", "wind_speed_ms"}
	precipKeys      = []string{"rn", "rn_1", "rn_2", "pr1", "precip", "precipitation", "precipitation_mm"}
	humidityKeys    = []string{"hm", "rh", "reh", "humidity", "humidity_pct"}
)

// headerAliases collapses typ01 header token variants into canonical keys.
var headerAliases = map[string]string{
	"yymmddhhmi": "tm",
	"tm":         "tm",
	"stn":        "stn",
	"ta":         "ta",
	"hm":         "hm",
	"rh":         "hm",
	"reh":        "hm",
	"ws":         "ws",
	"wd":         "wd",
	"rn":         "rn",
}

// NormalizeTyp01 parses a KMA typ01 surface observation response into a
// canonical newest-first observation sequence. Rows without a parsable
// timestamp are skipped; if the payload has data rows but none parse, the
// format itself is unrecognized and a NormalizationError is returned.
// An empty payload is valid and yields an empty sequence ("no data").
func NormalizeTyp01(payload string) ([]Observation, error) {
	var lines []string
	for _, line := range strings.Split(payload, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	header := extractCommentHeader(lines)

	var dataLines []string
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") {
			dataLines = append(dataLines, line)
		}
	}
	if len(dataLines) == 0 {
		return nil, nil
	}

	if header == nil {
		first := strings.Fields(dataLines[0])
		if looksLikeHeader(first) {
			header = normalizeHeaderTokens(first)
			dataLines = dataLines[1:]
		} else {
			header = fallbackHeader(len(first))
		}
	}

	var observations []Observation
	for _, line := range dataLines {
		row := zipFields(header, strings.Fields(line))
		obs, ok := buildTyp01Observation(row)
		if !ok {
			continue
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, &NormalizationError{Field: "tm", Reason: "no rows with a parsable YYYYMMDDHHMM timestamp"}
	}

	return Canonicalize(observations), nil
}

// NormalizeJSON parses a generic provider payload of the form
// {"observations": [{...}, ...]} with alias field names per reading.
// Unlike the lenient typ01 path, a malformed entry fails the whole payload
// with a NormalizationError naming the offending field.
func NormalizeJSON(payload []byte) ([]Observation, error) {
	var doc struct {
		Observations []json.RawMessage `json:"observations"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, &NormalizationError{Field: "observations", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	observations := make([]Observation, 0, len(doc.Observations))
	for i, raw := range doc.Observations {
		obs, err := buildJSONObservation(raw)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		observations = append(observations, obs)
	}

	return Canonicalize(observations), nil
}

// Canonicalize enforces the canonical observation invariants: hour-aligned
// KST timestamps, clamped plausible ranges, derived precipitation type,
// last-seen de-duplication, newest-first order. Idempotent.
func Canonicalize(observations []Observation) []Observation {
	byTimestamp := make(map[time.Time]Observation, len(observations))
	order := make([]time.Time, 0, len(observations))

	for _, obs := range observations {
		obs.Timestamp = obs.Timestamp.In(KST).Truncate(time.Hour)

		if obs.PrecipitationMM < 0 {
			obs.PrecipitationMM = 0
			obs.Clamped = true
		}
		if obs.HumidityPct < 0 {
			// Missing-sensor sentinel, not a readable value.
			obs.HumidityPct = neutralHumidityPct
			obs.Clamped = true
		} else if obs.HumidityPct > 100 {
			obs.HumidityPct = 100
			obs.Clamped = true
		}
		if obs.WindSpeedMS < 0 {
			obs.WindSpeedMS = 0
			obs.Clamped = true
		}
		obs.PrecipType = derivePrecipType(obs.TemperatureC, obs.PrecipitationMM)

		if _, seen := byTimestamp[obs.Timestamp]; !seen {
			order = append(order, obs.Timestamp)
		}
		byTimestamp[obs.Timestamp] = obs // duplicate timestamps keep the last-seen row
	}

	result := make([]Observation, 0, len(order))
	for _, ts := range order {
		result = append(result, byTimestamp[ts])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}

// derivePrecipType classifies precipitation as snow at or below 2°C.
func derivePrecipType(temperatureC, precipitationMM float64) PrecipType {
	if precipitationMM <= 0 {
		return PrecipNone
	}
	if temperatureC <= snowTempThresholdC {
		return PrecipSnow
	}
	return PrecipRain
}

// --- typ01 text parsing ---

// extractCommentHeader pulls the column header out of the "#" comment block,
// identified by the YYMMDD/STN marker tokens KMA prints above the data.
func extractCommentHeader(lines []string) []string {
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") {
			continue
		}
		stripped := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if stripped == "" {
			continue
		}
		upper := strings.ToUpper(stripped)
		if !strings.Contains(upper, "YYMMDD") || !strings.Contains(upper, "STN") {
			continue
		}
		return normalizeHeaderTokens(strings.Fields(stripped))
	}
	return nil
}

func looksLikeHeader(tokens []string) bool {
	for _, token := range tokens {
		switch strings.ToLower(token) {
		case "tm", "ta", "ws", "rn", "hm", "reh", "yymmddhhmi":
			return true
		}
	}
	return false
}

// normalizeHeaderTokens lowercases and alias-resolves header tokens,
// suffixing repeats (rn, rn_1, ...) so no column name collides.
func normalizeHeaderTokens(raw []string) []string {
	counts := make(map[string]int, len(raw))
	normalized := make([]string, 0, len(raw))

	for _, token := range raw {
		key := strings.ToLower(token)
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if n, seen := counts[key]; seen {
			normalized = append(normalized, fmt.Sprintf("%s_%d", key, n))
			counts[key] = n + 1
		} else {
			normalized = append(normalized, key)
			counts[key] = 1
		}
	}
	return normalized
}

// fallbackHeader is the positional column layout used when the response
// carries no header at all (help=0 with comments stripped).
func fallbackHeader(width int) []string {
	base := []string{"stn", "stnnm", "tm", "ta", "hm", "ws", "wd", "rn"}
	if width <= len(base) {
		return base[:width]
	}
	for i := len(base); i < width; i++ {
		base = append(base, fmt.Sprintf("col%d", i))
	}
	return base
}

func zipFields(header, tokens []string) map[string]string {
	n := len(header)
	if len(tokens) < n {
		n = len(tokens)
	}
	row := make(map[string]string, n)
	for i := 0; i < n; i++ {
		row[header[i]] = tokens[i]
	}
	return row
}

// buildTyp01Observation maps one typ01 row into an Observation. Returns
// false when the row has no parsable timestamp.
func buildTyp01Observation(row map[string]string) (Observation, bool) {
	ts, ok := parseKMATimestamp(row["tm"])
	if !ok {
		return Observation{}, false
	}

	obs := Observation{Timestamp: ts, HumidityPct: neutralHumidityPct}

	if v := coerceFromRow(row, temperatureKeys); v != nil {
		obs.TemperatureC = *v
	}
	if v := coerceFromRow(row, windKeys); v != nil {
		obs.WindSpeedMS = *v
	}
	if v := coerceFromRow(row, precipKeys); v != nil {
		obs.PrecipitationMM = *v
	}
	// KMA encodes missing humidity as -9 or -99, which slips past the -900
	// sentinel check. Humidity is never legitimately negative, so any
	// negative reading means the sensor was absent.
	if v := coerceFromRow(row, humidityKeys); v != nil && *v >= 0 {
		obs.HumidityPct = *v
	}
	return obs, true
}

// parseKMATimestamp parses YYYYMMDDHHMM or YYYYMMDDHH in KST.
func parseKMATimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"200601021504", "2006010215"} {
		if ts, err := time.ParseInLocation(layout, raw, KST); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// coerceFromRow tries each alias in order and returns the first parsable,
// non-sentinel value.
func coerceFromRow(row map[string]string, keys []string) *float64 {
	for _, key := range keys {
		if v := coerceFloat(row[key]); v != nil {
			return v
		}
	}
	return nil
}

// coerceFloat parses a typ01 token, treating "-", "." and the -900 sentinel
// family as missing.
func coerceFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" || value == "." {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	if parsed <= sentinelThreshold {
		return nil
	}
	return &parsed
}

// --- generic JSON parsing ---

// buildJSONObservation validates one reading object against the canonical
// schema, resolving alias keys and accepting numbers or numeric strings.
func buildJSONObservation(raw json.RawMessage) (Observation, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var entry map[string]any
	if err := dec.Decode(&entry); err != nil {
		return Observation{}, &NormalizationError{Field: "observations", Reason: fmt.Sprintf("entry is not an object: %v", err)}
	}

	// Lowercase keys once so alias lookup is case-insensitive.
	fields := make(map[string]any, len(entry))
	for k, v := range entry {
		fields[strings.ToLower(k)] = v
	}

	ts, err := jsonTimestamp(fields)
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{Timestamp: ts}

	temp, err := jsonNumber(fields, temperatureKeys, FactorTemperature)
	if err != nil {
		// Tenths-of-degree providers encode 18.5°C as 185.
		tenths, terr := jsonNumber(fields, tempTenthsKeys, FactorTemperature)
		if terr != nil {
			return Observation{}, err
		}
		temp = tenths / 10
	}
	obs.TemperatureC = temp

	if obs.WindSpeedMS, err = jsonNumber(fields, windKeys, FactorWind); err != nil {
		return Observation{}, err
	}
	if obs.PrecipitationMM, err = jsonNumber(fields, precipKeys, FactorPrecipitation); err != nil {
		return Observation{}, err
	}
	if obs.HumidityPct, err = jsonNumber(fields, humidityKeys, FactorHumidity); err != nil {
		return Observation{}, err
	}
	// Negative humidity is always a missing-sensor sentinel, -900 family or not.
	if obs.HumidityPct < 0 {
		obs.HumidityPct = neutralHumidityPct
	}
	return obs, nil
}

// sentinelDefault is the substitute value when a provider sends a missing-data
// sentinel: no precipitation, calm wind, neutral humidity, 0°C temperature
// (matching the typ01 path).
func sentinelDefault(factor Factor) float64 {
	if factor == FactorHumidity {
		return neutralHumidityPct
	}
	return 0
}

func jsonTimestamp(fields map[string]any) (time.Time, error) {
	for _, key := range timestampKeys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return time.Time{}, &NormalizationError{Field: key, Reason: "timestamp must be a string"}
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.In(KST), nil
		}
		if ts, ok := parseKMATimestamp(s); ok {
			return ts, nil
		}
		return time.Time{}, &NormalizationError{Field: key, Reason: fmt.Sprintf("unparsable timestamp %q", s)}
	}
	return time.Time{}, &NormalizationError{Field: "timestamp", Reason: "missing"}
}

// jsonNumber resolves the first alias present and coerces it to float64.
// A sentinel value counts as absent for that alias. Missing required fields
// fail with a NormalizationError naming the canonical factor.
func jsonNumber(fields map[string]any, keys []string, factor Factor) (float64, error) {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		var parsed float64
		switch n := v.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return 0, &NormalizationError{Field: key, Reason: fmt.Sprintf("non-numeric value %q", n.String())}
			}
			parsed = f
		case string:
			s := strings.TrimSpace(n)
			if s == "-" || s == "." {
				return sentinelDefault(factor), nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, &NormalizationError{Field: key, Reason: fmt.Sprintf("non-numeric value %q", n)}
			}
			parsed = f
		default:
			return 0, &NormalizationError{Field: key, Reason: "value must be a number"}
		}
		if parsed <= sentinelThreshold {
			return sentinelDefault(factor), nil
		}
		return parsed, nil
	}
	return 0, &NormalizationError{Field: string(factor), Reason: "missing"}
}
