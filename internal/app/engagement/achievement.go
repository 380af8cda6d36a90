package engagement

import (
	"fmt"
	"sort"

	"github.com/gemral/gem/internal/domain"
)

// Catalog is the immutable achievement table. Built once at startup.
// Threshold lists live here and nowhere else: the rules engine asks for a
// ladder and walks it.
type Catalog struct {
	defs []domain.AchievementDef
	byID map[string]int
}

// CategoryGroup is one category of the catalog, in display order.
type CategoryGroup struct {
	Category     domain.AchievementCategory `json:"category"`
	Achievements []domain.AchievementDef    `json:"achievements"`
}

// NewCatalog builds the catalog from AllAchievements.
// It panics on a duplicate id.
func NewCatalog() *Catalog {
	return newCatalog(AllAchievements())
}

func newCatalog(defs []domain.AchievementDef) *Catalog {
	c := &Catalog{defs: defs, byID: make(map[string]int, len(defs))}
	for i, d := range defs {
		if _, dup := c.byID[d.ID]; dup {
			panic(fmt.Sprintf("engagement: duplicate achievement id %q", d.ID))
		}
		c.byID[d.ID] = i
	}
	return c
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (domain.AchievementDef, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.AchievementDef{}, false
	}
	return c.defs[i], true
}

// All returns every definition in catalog order.
func (c *Catalog) All() []domain.AchievementDef {
	out := make([]domain.AchievementDef, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Grouped returns the catalog grouped by category in display order.
func (c *Catalog) Grouped() []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(domain.CategoryOrder))
	for _, cat := range domain.CategoryOrder {
		g := CategoryGroup{Category: cat}
		for _, d := range c.defs {
			if d.Category == cat {
				g.Achievements = append(g.Achievements, d)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Ladder returns the threshold achievements of a category measuring metric,
// ascending by threshold.
func (c *Catalog) Ladder(cat domain.AchievementCategory, metric domain.Metric) []domain.AchievementDef {
	var out []domain.AchievementDef
	for _, d := range c.defs {
		if d.Category == cat && d.Metric == metric && !d.OneShot() {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// ─── Achievement Definitions ────────────────────────────────────────────────
// 47 achievements across 6 categories.

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Streak (5) ─────────────────────────────────────────────────
		{ID: "streak_3", Category: domain.CatStreak, Title: "Khởi Động", Description: "3-day combo streak",
			Icon: "🔥", Points: 30, Threshold: 3, Metric: domain.MetricComboStreak},
		{ID: "streak_7", Category: domain.CatStreak, Title: "Tuần Lễ Vàng", Description: "7-day combo streak",
			Icon: "🔥", Points: 70, Threshold: 7, Metric: domain.MetricComboStreak},
		{ID: "streak_14", Category: domain.CatStreak, Title: "Hai Tuần Bền Bỉ", Description: "14-day combo streak",
			Icon: "💪", Points: 150, Threshold: 14, Metric: domain.MetricComboStreak},
		{ID: "streak_30", Category: domain.CatStreak, Title: "Tháng Kỷ Luật", Description: "30-day combo streak",
			Icon: "🏆", Points: 300, Threshold: 30, Metric: domain.MetricComboStreak},
		{ID: "streak_100", Category: domain.CatStreak, Title: "Huyền Thoại", Description: "100-day combo streak",
			Icon: "👑", Points: 1000, Threshold: 100, Metric: domain.MetricComboStreak},

		// ── Combo (4) ──────────────────────────────────────────────────
		{ID: "first_combo", Category: domain.CatCombo, Title: "Combo Đầu Tiên", Description: "Complete affirmation, habit and goal in one day",
			Icon: "⚡", Points: 20},
		{ID: "full_combo_4", Category: domain.CatCombo, Title: "Full Combo", Description: "Complete all four daily quests in one day",
			Icon: "💎", Points: 50},
		{ID: "combo_streak_3", Category: domain.CatCombo, Title: "Combo Liên Tiếp", Description: "Full combo 3 days in a row",
			Icon: "⚡", Points: 40, Threshold: 3, Metric: domain.MetricComboStreak},
		{ID: "combo_streak_7", Category: domain.CatCombo, Title: "Combo Bậc Thầy", Description: "Full combo 7 days in a row",
			Icon: "🌟", Points: 100, Threshold: 7, Metric: domain.MetricComboStreak},

		// ── Action (5) ─────────────────────────────────────────────────
		{ID: "first_action", Category: domain.CatAction, Title: "Hành Động", Description: "Complete your first action quest",
			Icon: "🎯", Points: 10},
		{ID: "action_streak_3", Category: domain.CatAction, Title: "Người Hành Động", Description: "Action quest 3 days in a row",
			Icon: "🎯", Points: 30, Threshold: 3, Metric: domain.MetricActionStreak},
		{ID: "action_streak_7", Category: domain.CatAction, Title: "Tuần Hành Động", Description: "Action quest 7 days in a row",
			Icon: "🚀", Points: 70, Threshold: 7, Metric: domain.MetricActionStreak},
		{ID: "action_streak_14", Category: domain.CatAction, Title: "Không Thể Ngăn Cản", Description: "Action quest 14 days in a row",
			Icon: "🚀", Points: 150, Threshold: 14, Metric: domain.MetricActionStreak},
		{ID: "action_master", Category: domain.CatAction, Title: "Bậc Thầy Hành Động", Description: "Complete 100 action quests",
			Icon: "🏅", Points: 500, Threshold: 100, Metric: domain.MetricActionTotal},

		// ── Trading (7) ────────────────────────────────────────────────
		{ID: "trade_1", Category: domain.CatTrading, Title: "Lệnh Đầu Tiên", Description: "Log your first trade",
			Icon: "📈", Points: 10, Threshold: 1, Metric: domain.MetricTrades},
		{ID: "trade_10", Category: domain.CatTrading, Title: "Trader Tập Sự", Description: "Log 10 trades",
			Icon: "📈", Points: 30, Threshold: 10, Metric: domain.MetricTrades},
		{ID: "trade_100", Category: domain.CatTrading, Title: "Trader Kinh Nghiệm", Description: "Log 100 trades",
			Icon: "📊", Points: 150, Threshold: 100, Metric: domain.MetricTrades},
		{ID: "trade_500", Category: domain.CatTrading, Title: "Trader Chuyên Nghiệp", Description: "Log 500 trades",
			Icon: "💹", Points: 500, Threshold: 500, Metric: domain.MetricTrades},
		{ID: "win_streak_3", Category: domain.CatTrading, Title: "Chuỗi Thắng", Description: "3 winning trades in a row",
			Icon: "🎯", Points: 50, Threshold: 3, Metric: domain.MetricWinStreak},
		{ID: "win_streak_5", Category: domain.CatTrading, Title: "Chuỗi Thắng Nóng", Description: "5 winning trades in a row",
			Icon: "🔥", Points: 100, Threshold: 5, Metric: domain.MetricWinStreak},
		{ID: "win_streak_10", Category: domain.CatTrading, Title: "Bất Bại", Description: "10 winning trades in a row",
			Icon: "👑", Points: 300, Threshold: 10, Metric: domain.MetricWinStreak},

		// ── Wellness (10) ──────────────────────────────────────────────
		{ID: "tarot_first", Category: domain.CatWellness, Title: "Lá Bài Đầu Tiên", Description: "Your first tarot reading",
			Icon: "🔮", Points: 10},
		{ID: "iching_first", Category: domain.CatWellness, Title: "Quẻ Đầu Tiên", Description: "Your first I Ching reading",
			Icon: "☯️", Points: 10},
		{ID: "meditation_first", Category: domain.CatWellness, Title: "Hơi Thở Đầu Tiên", Description: "Your first meditation",
			Icon: "🧘", Points: 10},
		{ID: "tarot_streak_7", Category: domain.CatWellness, Title: "Tuần Tarot", Description: "Tarot 7 days in a row",
			Icon: "🔮", Points: 70, Threshold: 7, Metric: domain.MetricTarotStreak},
		{ID: "tarot_streak_30", Category: domain.CatWellness, Title: "Tháng Tarot", Description: "Tarot 30 days in a row",
			Icon: "🔮", Points: 300, Threshold: 30, Metric: domain.MetricTarotStreak},
		{ID: "iching_streak_7", Category: domain.CatWellness, Title: "Tuần Kinh Dịch", Description: "I Ching 7 days in a row",
			Icon: "☯️", Points: 70, Threshold: 7, Metric: domain.MetricIChingStreak},
		{ID: "iching_streak_30", Category: domain.CatWellness, Title: "Tháng Kinh Dịch", Description: "I Ching 30 days in a row",
			Icon: "☯️", Points: 300, Threshold: 30, Metric: domain.MetricIChingStreak},
		{ID: "meditation_streak_7", Category: domain.CatWellness, Title: "Tuần Tĩnh Tâm", Description: "Meditate 7 days in a row",
			Icon: "🧘", Points: 70, Threshold: 7, Metric: domain.MetricMeditationStreak},
		{ID: "meditation_streak_30", Category: domain.CatWellness, Title: "Tháng Tĩnh Tâm", Description: "Meditate 30 days in a row",
			Icon: "🧘", Points: 300, Threshold: 30, Metric: domain.MetricMeditationStreak},
		{ID: "holistic_master", Category: domain.CatWellness, Title: "Toàn Diện", Description: "Tarot and I Ching streaks both at 7 days",
			Icon: "🌕", Points: 200},

		// ── Social (16) ────────────────────────────────────────────────
		{ID: "post_1", Category: domain.CatSocial, Title: "Bài Viết Đầu Tiên", Description: "Publish your first post",
			Icon: "✍️", Points: 10, Threshold: 1, Metric: domain.MetricPosts},
		{ID: "post_10", Category: domain.CatSocial, Title: "Người Chia Sẻ", Description: "Publish 10 posts",
			Icon: "✍️", Points: 30, Threshold: 10, Metric: domain.MetricPosts},
		{ID: "post_50", Category: domain.CatSocial, Title: "Nhà Sáng Tạo", Description: "Publish 50 posts",
			Icon: "📝", Points: 150, Threshold: 50, Metric: domain.MetricPosts},
		{ID: "comment_1", Category: domain.CatSocial, Title: "Lời Đầu Tiên", Description: "Write your first comment",
			Icon: "💬", Points: 5, Threshold: 1, Metric: domain.MetricComments},
		{ID: "comment_50", Category: domain.CatSocial, Title: "Người Thảo Luận", Description: "Write 50 comments",
			Icon: "💬", Points: 50, Threshold: 50, Metric: domain.MetricComments},
		{ID: "comment_200", Category: domain.CatSocial, Title: "Tiếng Nói Cộng Đồng", Description: "Write 200 comments",
			Icon: "🗣️", Points: 150, Threshold: 200, Metric: domain.MetricComments},
		{ID: "follower_1", Category: domain.CatSocial, Title: "Người Theo Dõi Đầu Tiên", Description: "Gain your first follower",
			Icon: "👤", Points: 10, Threshold: 1, Metric: domain.MetricFollowers},
		{ID: "follower_100", Category: domain.CatSocial, Title: "Có Ảnh Hưởng", Description: "Reach 100 followers",
			Icon: "👥", Points: 100, Threshold: 100, Metric: domain.MetricFollowers},
		{ID: "follower_1000", Category: domain.CatSocial, Title: "Người Dẫn Dắt", Description: "Reach 1000 followers",
			Icon: "🌟", Points: 500, Threshold: 1000, Metric: domain.MetricFollowers},
		{ID: "gift_sent_10", Category: domain.CatSocial, Title: "Hào Phóng", Description: "Send 10 gifts",
			Icon: "🎁", Points: 50, Threshold: 10, Metric: domain.MetricGiftsSent},
		{ID: "gift_sent_50", Category: domain.CatSocial, Title: "Nhà Hảo Tâm", Description: "Send 50 gifts",
			Icon: "🎁", Points: 200, Threshold: 50, Metric: domain.MetricGiftsSent},
		{ID: "viral_post_1", Category: domain.CatSocial, Title: "Lan Toả", Description: "Have a post go viral",
			Icon: "🚀", Points: 100, Threshold: 1, Metric: domain.MetricViralPosts},
		{ID: "viral_post_5", Category: domain.CatSocial, Title: "Hiện Tượng", Description: "Have 5 posts go viral",
			Icon: "💥", Points: 300, Threshold: 5, Metric: domain.MetricViralPosts},
		{ID: "referral_1", Category: domain.CatSocial, Title: "Đại Sứ", Description: "Refer your first friend",
			Icon: "🤝", Points: 50, Threshold: 1, Metric: domain.MetricReferrals},
		{ID: "referral_5", Category: domain.CatSocial, Title: "Người Kết Nối", Description: "Refer 5 friends",
			Icon: "📢", Points: 150, Threshold: 5, Metric: domain.MetricReferrals},
		{ID: "referral_25", Category: domain.CatSocial, Title: "Người Truyền Cảm Hứng", Description: "Refer 25 friends",
			Icon: "🌟", Points: 500, Threshold: 25, Metric: domain.MetricReferrals},
	}
}
