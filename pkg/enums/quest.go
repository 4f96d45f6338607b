package enums

import "fmt"

// QuestKind maps to the quest_kind enum in Postgres.
type QuestKind string

const (
	QuestKindPurchase        QuestKind = "purchase"
	QuestKindReview          QuestKind = "review"
	QuestKindConsultation    QuestKind = "consultation"
	QuestKindSubscription    QuestKind = "subscription"
	QuestKindSocialShare     QuestKind = "social_share"
	QuestKindLookCreation    QuestKind = "look_creation"
	QuestKindEventAttendance QuestKind = "event_attendance"
)

var validQuestKinds = []QuestKind{
	QuestKindPurchase,
	QuestKindReview,
	QuestKindConsultation,
	QuestKindSubscription,
	QuestKindSocialShare,
	QuestKindLookCreation,
	QuestKindEventAttendance,
}

// IsValid reports whether the value matches the canonical quest kind enum.
func (k QuestKind) IsValid() bool {
	for _, candidate := range validQuestKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseQuestKind converts raw input into QuestKind.
func ParseQuestKind(value string) (QuestKind, error) {
	for _, candidate := range validQuestKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest kind %q", value)
}

// QuestDifficulty maps to the quest_difficulty enum in Postgres.
type QuestDifficulty string

const (
	QuestDifficultyEasy   QuestDifficulty = "easy"
	QuestDifficultyMedium QuestDifficulty = "medium"
	QuestDifficultyHard   QuestDifficulty = "hard"
	QuestDifficultyExpert QuestDifficulty = "expert"
)

var validQuestDifficulties = []QuestDifficulty{
	QuestDifficultyEasy,
	QuestDifficultyMedium,
	QuestDifficultyHard,
	QuestDifficultyExpert,
}

// IsValid reports whether the value matches the canonical difficulty enum.
func (d QuestDifficulty) IsValid() bool {
	for _, candidate := range validQuestDifficulties {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseQuestDifficulty converts raw input into QuestDifficulty.
func ParseQuestDifficulty(value string) (QuestDifficulty, error) {
	for _, candidate := range validQuestDifficulties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest difficulty %q", value)
}
