package match

import "github.com/linyuchen/xunwu/internal/model"

// Outcome is the result of scoring one lost/found pair.
type Outcome struct {
	Score  int
	Level  model.Level
	Reason string
}

// Evaluate scores a lost item against a found item using a fixed rule
// ladder, evaluated in priority order; the first rule that fires wins.
// Returns false when no rule fires, meaning the pair is not a match.
// Pure function: no I/O, deterministic for identical inputs.
func Evaluate(lost, found model.Item) (Outcome, bool) {
	categoryMatch := normalize(lost.Category) == normalize(found.Category)
	locationMatch := normalize(lost.Location) == normalize(found.Location)
	days := timeDiffDays(lost.OccurredAt, found.OccurredAt)

	lostTokens := tokenSet(lost.Description)
	foundTokens := tokenSet(found.Description)
	overlap := keywordOverlap(lostTokens, foundTokens)
	sim := similarity(lostTokens, foundTokens)

	// Rule 1: category + location + very close in time.
	if categoryMatch && locationMatch && days <= 2 {
		return Outcome{98, model.LevelHigh, "类别完全匹配，地点相同，时间差不超过2天"}, true
	}

	// Rule 2: category + location + similar descriptions.
	if categoryMatch && locationMatch && sim >= 0.50 {
		return Outcome{90, model.LevelHigh, "类别与地点完全匹配，描述相似度高"}, true
	}

	// Rule 3: category + strong description signal, location may differ.
	if categoryMatch && (sim >= 0.65 || overlap >= 3) {
		return Outcome{80, model.LevelMedium, "类别一致，描述相似或关键词重合度高"}, true
	}

	// Rule 4: category + location within a week.
	if categoryMatch && locationMatch && days <= 7 {
		return Outcome{75, model.LevelMedium, "类别与地点匹配，时间差在7天内"}, true
	}

	// Rule 5: category + moderate time gap + some shared keywords.
	if categoryMatch && days <= 5 && overlap >= 1 {
		return Outcome{70, model.LevelMedium, "类别相符，时间差合理，描述有关键词重合"}, true
	}

	// Rule 6: similar descriptions at the same location.
	if sim >= 0.60 && locationMatch {
		return Outcome{65, model.LevelMedium, "描述相似度高，地点相同"}, true
	}

	// Rule 7: weak category or description relevance.
	if (categoryMatch && sim >= 0.40) || (sim >= 0.50 && overlap >= 2) {
		return Outcome{55, model.LevelLow, "类别或描述存在相关性"}, true
	}

	// Rule 8: location alone needs description support.
	if locationMatch && overlap >= 2 && sim >= 0.35 {
		return Outcome{45, model.LevelLow, "地点相同，描述有弱相关"}, true
	}

	return Outcome{}, false
}
