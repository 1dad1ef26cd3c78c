// Package ratings derives rating summaries from raw per-user scores.
//
// Two averaging rules exist side by side and are intentionally kept apart:
//
//   - Average computes three independent per-field means, each over only the
//     ratings where that field is present. Used by the recipe detail view and
//     the flavor-based list filter.
//   - JointScore collapses one rating into the mean of its three fields with
//     absent fields counted as zero. Averaging JointScore across rows is what
//     count filtering and the global metrics report.
//
// The two rules disagree whenever a rating leaves a field empty.
package ratings

// MaxScore is the upper bound of every rating field.
const MaxScore = 5

// Scores holds the optional fields of a single rating.
type Scores struct {
	Nutrition  *int
	Flavor     *int
	Difficulty *int
}

// Averages is the per-field mean of a set of ratings.
type Averages struct {
	Nutrition  float64 `json:"nutrition"`
	Flavor     float64 `json:"flavor"`
	Difficulty float64 `json:"difficulty"`
}

type accumulator struct {
	sum   int
	count int
}

func (a *accumulator) add(v *int) {
	if v == nil {
		return
	}
	a.sum += *v
	a.count++
}

func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

// Average returns the mean of each field over the ratings where that field is
// set. A field with no values reports 0.
func Average(scores []Scores) Averages {
	var nutrition, flavor, difficulty accumulator
	for _, s := range scores {
		nutrition.add(s.Nutrition)
		flavor.add(s.Flavor)
		difficulty.add(s.Difficulty)
	}
	return Averages{
		Nutrition:  nutrition.mean(),
		Flavor:     flavor.mean(),
		Difficulty: difficulty.mean(),
	}
}

// HasAny reports whether at least one field of s is set.
func HasAny(s Scores) bool {
	return s.Nutrition != nil || s.Flavor != nil || s.Difficulty != nil
}

// JointScore is (nutrition + flavor + difficulty) / 3 with absent fields as 0.
func JointScore(s Scores) float64 {
	return float64(valueOr0(s.Nutrition)+valueOr0(s.Flavor)+valueOr0(s.Difficulty)) / 3
}

// JointAverage averages JointScore over the ratings that have at least one
// field set. Returns 0 when none qualify.
func JointAverage(scores []Scores) float64 {
	var total float64
	var n int
	for _, s := range scores {
		if !HasAny(s) {
			continue
		}
		total += JointScore(s)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// InRange reports whether every set field of s lies in [0, MaxScore].
func InRange(s Scores) bool {
	for _, v := range []*int{s.Nutrition, s.Flavor, s.Difficulty} {
		if v != nil && (*v < 0 || *v > MaxScore) {
			return false
		}
	}
	return true
}

func valueOr0(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
