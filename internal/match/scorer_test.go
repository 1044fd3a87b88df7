package match

import (
	"testing"
	"time"

	"github.com/linyuchen/xunwu/internal/model"
)

var baseTime = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func testItem(category, description, location string, occurredAt time.Time) model.Item {
	return model.Item{
		Category:    category,
		Description: description,
		Location:    location,
		OccurredAt:  occurredAt,
	}
}

func TestEvaluateCategoryLocationTime(t *testing.T) {
	lost := testItem("电子产品", "black iphone 13", "图书馆", baseTime)
	found := testItem("电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 98 {
		t.Errorf("expected score 98, got %d", outcome.Score)
	}
	if outcome.Level != model.LevelHigh {
		t.Errorf("expected level high, got %q", outcome.Level)
	}
	if outcome.Reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestEvaluateCategoryLocationSimilarDescription(t *testing.T) {
	// 10 days apart, so the time rule cannot fire first.
	lost := testItem("电子产品", "black iphone 13", "图书馆", baseTime)
	found := testItem("电子产品", "black iphone 13 pro", "图书馆", baseTime.Add(10*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 90 || outcome.Level != model.LevelHigh {
		t.Errorf("expected 90/high, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateCategoryDescriptionDifferentLocation(t *testing.T) {
	lost := testItem("电子产品", "black iphone 13 case", "图书馆", baseTime)
	found := testItem("电子产品", "black iphone 13 case found", "食堂", baseTime.Add(24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 80 || outcome.Level != model.LevelMedium {
		t.Errorf("expected 80/medium, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateCategoryLocationWithinWeek(t *testing.T) {
	// Unrelated descriptions, 6 days apart.
	lost := testItem("证件", "wallet", "教学楼", baseTime)
	found := testItem("证件", "purse", "教学楼", baseTime.Add(6*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 75 || outcome.Level != model.LevelMedium {
		t.Errorf("expected 75/medium, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateCategoryTimeKeyword(t *testing.T) {
	lost := testItem("书本资料", "blue jansport backpack lost near gym", "体育馆", baseTime)
	found := testItem("书本资料", "found backpack", "宿舍楼", baseTime.Add(3*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 70 || outcome.Level != model.LevelMedium {
		t.Errorf("expected 70/medium, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateDescriptionLocationOnly(t *testing.T) {
	// Categories differ, identical descriptions at the same place.
	lost := testItem("生活用品", "silver thermos bottle", "操场", baseTime)
	found := testItem("其他", "silver thermos bottle", "操场", baseTime.Add(24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 65 || outcome.Level != model.LevelMedium {
		t.Errorf("expected 65/medium, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateWeakCategoryRelevance(t *testing.T) {
	// Shared tokens {blue, key} out of 5 distinct, long time gap,
	// different locations.
	lost := testItem("钥匙", "blue key red ribbon", "图书馆", baseTime)
	found := testItem("钥匙", "blue key tag", "食堂", baseTime.Add(10*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 55 || outcome.Level != model.LevelLow {
		t.Errorf("expected 55/low, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateLocationWithWeakDescription(t *testing.T) {
	// Same token sets as the weak category case, but categories differ
	// and the location matches.
	lost := testItem("钥匙", "blue key red ribbon", "图书馆", baseTime)
	found := testItem("其他", "blue key tag", "图书馆", baseTime.Add(10*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 45 || outcome.Level != model.LevelLow {
		t.Errorf("expected 45/low, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	lost := testItem("衣物配件", "umbrella", "图书馆", baseTime)
	found := testItem("电子产品", "textbook", "食堂", baseTime.Add(30*24*time.Hour))

	if _, ok := Evaluate(lost, found); ok {
		t.Error("expected no match for unrelated items")
	}
}

func TestEvaluateFirstRuleWins(t *testing.T) {
	// Identical descriptions would also satisfy the similarity rules,
	// but the time rule has priority.
	lost := testItem("电子产品", "black iphone 13", "图书馆", baseTime)
	found := testItem("电子产品", "black iphone 13", "图书馆", baseTime.Add(24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 98 {
		t.Errorf("expected the highest-priority rule (98), got %d", outcome.Score)
	}
}

func TestEvaluateChineseDescriptions(t *testing.T) {
	// The shared phrase 黑色钱包 yields enough overlapping substrings to
	// trigger the keyword rule even with different locations.
	lost := testItem("证件", "黑色钱包丢失", "图书馆", baseTime)
	found := testItem("证件", "捡到黑色钱包", "食堂", baseTime.Add(20*24*time.Hour))

	outcome, ok := Evaluate(lost, found)
	if !ok {
		t.Fatal("expected a match")
	}
	if outcome.Score != 80 || outcome.Level != model.LevelMedium {
		t.Errorf("expected 80/medium, got %d/%q", outcome.Score, outcome.Level)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	lost := testItem("电子产品", "black iphone 13 with case", "图书馆", baseTime)
	found := testItem("电子产品", "black iphone case", "食堂", baseTime.Add(4*24*time.Hour))

	first, okFirst := Evaluate(lost, found)
	for i := 0; i < 10; i++ {
		got, ok := Evaluate(lost, found)
		if ok != okFirst || got != first {
			t.Fatalf("run %d differs: got %+v/%v, want %+v/%v", i, got, ok, first, okFirst)
		}
	}
}
