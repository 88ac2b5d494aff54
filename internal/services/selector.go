package services

import (
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"journal/internal/models"
)

type LifeStageMatch string

const (
	LifeStageMatched LifeStageMatch = "match"
	LifeStageGeneric LifeStageMatch = "generic"
	LifeStageNoMatch LifeStageMatch = "no_match"
)

// Weighted pairs a candidate with its selection weight. Negative weights count as zero.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// StableSeed folds "userID:isoDate[:index]" into a 32-bit value with acc*31+unit over
// the UTF-16 code units of the key. The same inputs always produce the same seed.
func StableSeed(userID string, isoDate string, index ...int) uint32 {
	key := userID + ":" + isoDate
	if len(index) > 0 {
		key += ":" + strconv.Itoa(index[0])
	}

	var acc uint32
	for _, unit := range utf16.Encode([]rune(key)) {
		acc = acc*31 + uint32(unit)
	}
	return acc
}

func ClassifyLifeStageMatch(affinity models.LifeStageAffinity, userStage models.LifeStage) LifeStageMatch {
	if !affinity.Set || len(affinity.Stages) == 0 {
		return LifeStageGeneric
	}
	if slices.Contains(affinity.Stages, string(userStage)) {
		return LifeStageMatched
	}
	return LifeStageNoMatch
}

// LifeStageWeight applies the prompt weighting policy: base 1, x2 on a match, x1.5 for
// generic questions, no boost otherwise.
func LifeStageWeight(match LifeStageMatch) float64 {
	switch match {
	case LifeStageMatched:
		return 2
	case LifeStageGeneric:
		return 1.5
	default:
		return 1
	}
}

// PickWeighted walks the cumulative weights until they reach (seed mod total)+1, with
// a floating point modulo. Policy weights are multiples of 0.5, so every sum and
// remainder here is exact in a float64. It returns false only for an empty list.
func PickWeighted[T any](items []Weighted[T], seed uint32) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}

	var total float64
	for _, item := range items {
		total += max(0, item.Weight)
	}

	r := math.Mod(float64(seed), max(1, total)) + 1

	var cumulative float64
	for _, item := range items {
		cumulative += max(0, item.Weight)
		if cumulative >= r {
			return item.Value, true
		}
	}

	return items[len(items)-1].Value, true
}

func weightQuestions(questions []*models.Question, userStage models.LifeStage) []Weighted[*models.Question] {
	weighted := make([]Weighted[*models.Question], 0, len(questions))
	for _, q := range questions {
		match := ClassifyLifeStageMatch(q.Affinity(), userStage)
		weighted = append(weighted, Weighted[*models.Question]{
			Value:  q,
			Weight: LifeStageWeight(match),
		})
	}
	return weighted
}
