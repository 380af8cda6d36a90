package insight

import (
	"fmt"

	"github.com/gemral/gem/internal/domain"
)

// Locale selects the message table.
type Locale string

const (
	LocaleVI Locale = "vi"
	LocaleEN Locale = "en"
)

// ParseLocale returns the locale for s, defaulting to Vietnamese.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleEN {
		return LocaleEN
	}
	return LocaleVI
}

type msgKey int

const (
	msgWinRateUp msgKey = iota
	msgWinRateDown
	msgTopPercentile
	msgDisciplineHigh
	msgDisciplineLow
	msgDevoted
	msgInactive
	msgHealthy
	msgCritical
	msgAboveCohortWinRate
	msgAboveCohortDiscipline
	msgFallback
)

var insightMessages = map[Locale]map[msgKey]string{
	LocaleVI: {
		msgWinRateUp:             "Tỷ lệ thắng tăng %.1f điểm so với kỳ trước",
		msgWinRateDown:           "Tỷ lệ thắng giảm %.1f điểm so với kỳ trước",
		msgTopPercentile:         "Bạn nằm trong top %d%% về tỷ lệ thắng",
		msgDisciplineHigh:        "Điểm kỷ luật %.0f, rất vững vàng",
		msgDisciplineLow:         "Điểm kỷ luật %.0f, hãy bám sát kế hoạch giao dịch",
		msgDevoted:               "Bạn luyện tập gần như mỗi ngày, tuyệt vời",
		msgInactive:              "Bạn chưa luyện tập trong 30 ngày qua",
		msgHealthy:               "Tài khoản đang khỏe mạnh",
		msgCritical:              "Tài khoản ở mức nguy cấp, hãy giảm rủi ro",
		msgAboveCohortWinRate:    "Tỷ lệ thắng cao hơn trung bình nhóm %d người",
		msgAboveCohortDiscipline: "Kỷ luật tốt hơn trung bình nhóm cùng cấp độ",
		msgFallback:              "Tiếp tục luyện tập để nhận thêm nhận định",
	},
	LocaleEN: {
		msgWinRateUp:             "Win rate up %.1f points from last period",
		msgWinRateDown:           "Win rate down %.1f points from last period",
		msgTopPercentile:         "You are in the top %d%% by win rate",
		msgDisciplineHigh:        "Discipline score %.0f, rock solid",
		msgDisciplineLow:         "Discipline score %.0f, stick to your trading plan",
		msgDevoted:               "You practice almost every day, outstanding",
		msgInactive:              "No practice in the last 30 days",
		msgHealthy:               "Your account is healthy",
		msgCritical:              "Your account is critical, reduce your risk",
		msgAboveCohortWinRate:    "Win rate above the average of your %d-member cohort",
		msgAboveCohortDiscipline: "Discipline above your cohort average",
		msgFallback:              "Keep practicing to unlock more insights",
	},
}

func (l Locale) text(key msgKey, args ...any) string {
	table, ok := insightMessages[l]
	if !ok {
		table = insightMessages[LocaleVI]
	}
	if len(args) == 0 {
		return table[key]
	}
	return fmt.Sprintf(table[key], args...)
}

// ─── Next Steps ─────────────────────────────────────────────────────────────

// Next step identifiers.
const (
	StepIncreasePractice    = "increase_practice"
	StepImproveDiscipline   = "improve_discipline"
	StepWellnessPractice    = "wellness_practice"
	StepReviewStrategy      = "review_strategy"
	StepMaintainPerformance = "maintain_performance"
)

type stepText struct {
	title, description string
}

var stepActions = map[string]string{
	StepIncreasePractice:    "/quests",
	StepImproveDiscipline:   "/journal",
	StepWellnessPractice:    "/wellness",
	StepReviewStrategy:      "/analytics",
	StepMaintainPerformance: "/dashboard",
}

var stepMessages = map[Locale]map[string]stepText{
	LocaleVI: {
		StepIncreasePractice:    {"Luyện tập đều đặn hơn", "Hoàn thành nhiệm vụ hằng ngày để giữ chuỗi"},
		StepImproveDiscipline:   {"Cải thiện kỷ luật", "Ghi nhật ký mỗi lệnh và tuân thủ điểm dừng lỗ"},
		StepWellnessPractice:    {"Chăm sóc tinh thần", "Thử thiền hoặc trải bài ít nhất 4 lần mỗi tháng"},
		StepReviewStrategy:      {"Xem lại chiến lược", "Phân tích các lệnh thua để tìm điểm yếu"},
		StepMaintainPerformance: {"Duy trì phong độ", "Bạn đang làm rất tốt, hãy giữ nhịp này"},
	},
	LocaleEN: {
		StepIncreasePractice:    {"Practice more regularly", "Complete your daily quests to keep the streak alive"},
		StepImproveDiscipline:   {"Improve discipline", "Journal every trade and respect your stop loss"},
		StepWellnessPractice:    {"Look after your mind", "Meditate or draw a reading at least 4 times a month"},
		StepReviewStrategy:      {"Review your strategy", "Study losing trades to find the weak spots"},
		StepMaintainPerformance: {"Maintain performance", "You are doing great, keep this rhythm"},
	},
}

func (l Locale) step(id string) domain.NextStep {
	table, ok := stepMessages[l]
	if !ok {
		table = stepMessages[LocaleVI]
	}
	t := table[id]
	return domain.NextStep{ID: id, Title: t.title, Description: t.description, Action: stepActions[id]}
}
