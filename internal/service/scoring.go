package service

import "errors"

// ErrIncompleteResponse indicates the response set does not answer every
// question, or contains a value outside the Likert range.
var ErrIncompleteResponse = errors.New("incomplete evaluation response")

// ErrMalformedForm indicates the resolved form has no questions, which
// makes a percentage score undefined.
var ErrMalformedForm = errors.New("evaluation form has no questions")

const (
	likertMin = 1
	likertMax = 5
)

// Score converts a completed response set into a percentage of the maximum
// attainable score. Every question weighs likertMax points; there is no
// per-question weighting, and the scale's polarity is a presentation
// concern the arithmetic is agnostic to.
func Score(responses []int, questionCount int) (float64, error) {
	if questionCount <= 0 {
		return 0, ErrMalformedForm
	}

	if len(responses) != questionCount {
		return 0, ErrIncompleteResponse
	}

	total := 0
	for _, response := range responses {
		if response < likertMin || response > likertMax {
			return 0, ErrIncompleteResponse
		}
		total += response
	}

	return 100 * float64(total) / float64(likertMax*questionCount), nil
}
