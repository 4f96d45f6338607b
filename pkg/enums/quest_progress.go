package enums

import "fmt"

// QuestProgressStatus maps to the quest_progress_status enum in Postgres.
// "available" is implicit: no progress row exists yet.
type QuestProgressStatus string

const (
	QuestProgressStatusInProgress QuestProgressStatus = "in_progress"
	QuestProgressStatusCompleted  QuestProgressStatus = "completed"
)

var validQuestProgressStatuses = []QuestProgressStatus{
	QuestProgressStatusInProgress,
	QuestProgressStatusCompleted,
}

// IsValid reports whether the value matches the canonical status enum.
func (s QuestProgressStatus) IsValid() bool {
	for _, candidate := range validQuestProgressStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseQuestProgressStatus converts raw input into QuestProgressStatus.
func ParseQuestProgressStatus(value string) (QuestProgressStatus, error) {
	for _, candidate := range validQuestProgressStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quest progress status %q", value)
}
