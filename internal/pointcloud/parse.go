package pointcloud

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// FieldsPerRow is the only row width that survives filtering.
const FieldsPerRow = 3

// defaultFieldValue replaces any field that fails conversion.
const defaultFieldValue = 0.0

// maxReportedConversions caps per-field log lines for a single parse; the
// total is still counted in ParseStats.
const maxReportedConversions = 100

// PointSet is an ordered point collection. Order matches input row order.
type PointSet []r3.Vec

// Len returns the number of points.
func (ps PointSet) Len() int { return len(ps) }

// Clone returns a copy that shares no backing array with ps.
func (ps PointSet) Clone() PointSet {
	if ps == nil {
		return nil
	}
	out := make(PointSet, len(ps))
	copy(out, ps)
	return out
}

// ParseStats summarises one parse.
type ParseStats struct {
	Lines              int `json:"lines"`
	Kept               int `json:"kept"`
	WrongFieldCount    int `json:"wrong_field_count"`
	ConversionFailures int `json:"conversion_failures"`
}

// Dropped returns the number of rows removed by the field-count filter.
func (s ParseStats) Dropped() int { return s.WrongFieldCount }

// Parse converts text into a PointSet.
//
// Every line is split on ',' and each trimmed field is read as the longest
// decimal number at its start. A field with no such prefix, or one that is
// NaN or ±Inf, becomes 0 and is passed to report as a *ConversionError. A
// separate pass then keeps only rows with exactly three fields; rows holding
// a defaulted field are kept. A trailing
// newline therefore yields a one-field row that is dropped here.
//
// report may be nil.
func Parse(text string, report func(*ConversionError)) (PointSet, ParseStats) {
	lines := strings.Split(text, "\n")
	stats := ParseStats{Lines: len(lines)}

	rows := make([][]float64, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, ",")
		row := make([]float64, len(fields))
		for j, field := range fields {
			v, err := parseField(field)
			if err != nil {
				stats.ConversionFailures++
				if report != nil {
					report(&ConversionError{Line: i + 1, Column: j + 1, Field: field, Err: err})
				}
				v = defaultFieldValue
			}
			row[j] = v
		}
		rows[i] = row
	}

	points := make(PointSet, 0, len(rows))
	for _, row := range rows {
		if len(row) != FieldsPerRow {
			stats.WrongFieldCount++
			continue
		}
		points = append(points, r3.Vec{X: row[0], Y: row[1], Z: row[2]})
	}
	stats.Kept = len(points)

	return points, stats
}

func parseField(field string) (float64, error) {
	field = strings.TrimSpace(field)
	prefix := decimalPrefix(field)
	if prefix == "" {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: field, Err: strconv.ErrSyntax}
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// decimalPrefix returns the longest leading run of s that forms a decimal
// number: an optional sign, then "Infinity" or digits with an optional
// fraction and exponent. Trailing text is ignored, so "12abc" reads as
// "12" and "4e" as "4". Hex floats and digit separators are not decimal:
// "0x1p4" reads as "0" and "1_0" as "1". It returns "" when nothing matches.
func decimalPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i+len("Infinity")]
	}

	intDigits := countDigits(s[i:])
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if n := countDigits(s[j:]); n > 0 {
			i = j + n
		}
	}
	return s[:i]
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
