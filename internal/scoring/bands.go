package scoring

import "math"

// BandTable maps a raw correct count to a standardized band score. Tables
// are data: a table is selected by the total question count of the skill
// being scored, and other totals are scaled proportionally onto the
// largest table rather than hardcoding test sizes.
type BandTable map[int]float64

// twentyQuestionBands covers a 20-question skill (four sections of five),
// scaled from the 40-question standard so a perfect run reaches 9.0 at 75%.
var twentyQuestionBands = BandTable{
	1: 2.5, 2: 2.5, 3: 3.0, 4: 3.5, 5: 4.0,
	6: 4.5, 7: 5.0, 8: 5.5, 9: 6.0, 10: 6.5,
	11: 7.0, 12: 7.5, 13: 8.0, 14: 8.5, 15: 9.0,
	16: 9.0, 17: 9.0, 18: 9.0, 19: 9.0, 20: 9.0,
}

// tenQuestionBands covers a 10-question skill (two passages of five).
var tenQuestionBands = BandTable{
	1: 2.5, 2: 3.5, 3: 4.5, 4: 5.5, 5: 6.5,
	6: 7.5, 7: 8.5, 8: 9.0, 9: 9.0, 10: 9.0,
}

var bandTables = map[int]BandTable{
	20: twentyQuestionBands,
	10: tenQuestionBands,
}

// ConvertBand converts a raw correct count into a band score.
//
// The zero cases are policy, not table rows: a candidate who answered
// nothing scores 0.0, and a candidate who answered but got everything
// wrong also scores 0.0 rather than the table's first row. Otherwise the
// table sized for totalQuestions is consulted, scaling the raw count
// proportionally when no table matches the total exactly. The result is
// clamped to 9.0 and rounded to one decimal.
func ConvertBand(rawScore, totalQuestions int, anyAnswered bool) float64 {
	if !anyAnswered || rawScore <= 0 || totalQuestions <= 0 {
		return 0.0
	}

	table, ok := bandTables[totalQuestions]
	lookup := rawScore
	if !ok {
		// Scale onto the 20-question table.
		table = twentyQuestionBands
		lookup = int(math.Round(float64(rawScore) / float64(totalQuestions) * 20))
		if lookup < 1 {
			lookup = 1
		}
	}
	if lookup > len(table) {
		lookup = len(table)
	}

	band := table[lookup]
	if band > 9.0 {
		band = 9.0
	}
	return Round1(band)
}

// Round1 rounds to one decimal place, halves away from zero (6.25 → 6.3).
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
