package analytics

import (
	"fmt"
	"math"
	"time"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StandardDeviation is the population standard deviation (divide by N).
func StandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// WeekStart returns midnight UTC of the Sunday that starts t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekBucketKey is the ISO date of the week's Sunday, e.g. "2024-01-07".
func WeekBucketKey(t time.Time) string {
	return WeekStart(t).Format("2006-01-02")
}

// WeekLabel is "Week N" with N derived from the day of month only, so labels
// repeat across months.
func WeekLabel(t time.Time) string {
	return fmt.Sprintf("Week %d", (t.UTC().Day()+6)/7)
}

// MonthBucketKey is "YYYY-MM".
func MonthBucketKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthLabel is e.g. "Jan 2024".
func MonthLabel(t time.Time) string {
	return t.UTC().Format("Jan 2006")
}

// CronbachAlpha computes Cronbach's alpha for a matrix shaped
// [participants][items]. Population variance is used throughout, so perfectly
// correlated items give 1.0. Ragged or degenerate input gives 0.
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}

	totals := make([]float64, n)
	columns := make([][]float64, k)
	for j := range columns {
		columns[j] = make([]float64, n)
	}
	for i, row := range matrix {
		if len(row) != k {
			return 0
		}
		for j, v := range row {
			columns[j][i] = v
			totals[i] += v
		}
	}

	var sumItemVars float64
	for _, col := range columns {
		sd := StandardDeviation(col)
		sumItemVars += sd * sd
	}
	totalSD := StandardDeviation(totals)
	totalVar := totalSD * totalSD
	if totalVar == 0 {
		return 0
	}

	kf := float64(k)
	alpha := (kf / (kf - 1)) * (1 - sumItemVars/totalVar)
	return math.Max(0, math.Min(1, alpha))
}

// ReliabilityMatrix keeps only complete response sets and orders each row by
// question index.
func ReliabilityMatrix(sets []SurveyResponseSet) [][]float64 {
	out := make([][]float64, 0, len(sets))
	for _, set := range sets {
		row := make([]float64, 0, QuestionCount)
		for q := 0; q < QuestionCount; q++ {
			v, ok := set[q]
			if !ok {
				break
			}
			row = append(row, float64(v))
		}
		if len(row) == QuestionCount {
			out = append(out, row)
		}
	}
	return out
}
