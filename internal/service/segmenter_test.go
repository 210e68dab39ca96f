package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentAnswersNumberedSheet(t *testing.T) {
	text := "1. Paris\n2. The mitochondria is the\npowerhouse of the cell"

	answers := SegmentAnswers(text)

	require.Equal(t, map[int]string{
		1: "Paris",
		2: "The mitochondria is the powerhouse of the cell",
	}, answers)
}

func TestSegmentAnswersMultiLineJoinedInOrder(t *testing.T) {
	text := "1. first part\nsecond part\n\nthird part\n2. short"

	answers := SegmentAnswers(text)

	require.Equal(t, "first part second part third part", answers[1])
	require.Equal(t, "short", answers[2])
}

func TestSegmentAnswersNoNumberedLines(t *testing.T) {
	answers := SegmentAnswers("just some prose\nwith no numbering at all")
	require.Empty(t, answers)
}

func TestSegmentAnswersBlankTextYieldsEmptyMap(t *testing.T) {
	require.Empty(t, SegmentAnswers(""))
	require.Empty(t, SegmentAnswers("\n\n\n"))
}

func TestSegmentAnswersSkipsLinesBeforeFirstHeader(t *testing.T) {
	text := "Name: Jane Doe\nQuiz 3\n1. Paris"

	answers := SegmentAnswers(text)

	require.Equal(t, map[int]string{1: "Paris"}, answers)
}

func TestSegmentAnswersPeriodMustBeNearLineStart(t *testing.T) {
	// The period sits outside the first three characters, so the line is
	// treated as answer continuation, not a header.
	text := "1. Paris\n1999. was a year"

	answers := SegmentAnswers(text)

	require.Equal(t, map[int]string{1: "Paris 1999. was a year"}, answers)
}

func TestSegmentAnswersDoubleDigitNumbering(t *testing.T) {
	text := "9. nine\n10. ten"

	answers := SegmentAnswers(text)

	require.Equal(t, map[int]string{9: "nine", 10: "ten"}, answers)
}

func TestSegmentAnswersAnswerOnFollowingLinesOnly(t *testing.T) {
	text := "1.\nParis\nis the capital"

	answers := SegmentAnswers(text)

	require.Equal(t, map[int]string{1: "Paris is the capital"}, answers)
}
