package service

import (
	"strconv"
	"strings"
)

// SegmentAnswers splits recognized answer-sheet text into an ordered mapping
// from 1-based question number to the answer written underneath it.
//
// A line opens a new question when its first character is a digit and a period
// appears within the first three characters ("3. ..."). Lines before the first
// valid header, or following a header whose number fails to parse, are
// dropped. All other non-blank lines are appended space-joined to the answer
// in progress. The heuristic is deliberately lossy: sheets that do not follow
// "N. answer" numbering degrade to sparse or empty maps.
func SegmentAnswers(text string) map[int]string {
	answers := make(map[int]string)

	var current int
	var hasCurrent bool
	var buffer []string

	flush := func() {
		if hasCurrent && len(buffer) > 0 {
			answers[current] = strings.Join(buffer, " ")
		}
		buffer = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if isQuestionHeader(line) {
			flush()

			number, err := strconv.Atoi(strings.TrimSpace(strings.SplitN(line, ".", 2)[0]))
			if err != nil {
				hasCurrent = false
				continue
			}

			current = number
			hasCurrent = true

			if rest := answerOnHeaderLine(line); rest != "" {
				buffer = append(buffer, rest)
			}
			continue
		}

		if hasCurrent {
			buffer = append(buffer, line)
		}
	}

	flush()

	return answers
}

func isQuestionHeader(line string) bool {
	if line == "" || line[0] < '0' || line[0] > '9' {
		return false
	}
	limit := 3
	if len(line) < limit {
		limit = len(line)
	}
	return strings.Contains(line[:limit], ".")
}

func answerOnHeaderLine(line string) string {
	parts := strings.SplitN(line, ".", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
