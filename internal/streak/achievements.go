package streak

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryan2621/tasker/internal/model"
)

// Milestone tables. Matching is exact, not threshold: a streak that jumps
// past a milestone without landing on it never awards it retroactively.
var (
	streakMilestones    = []int{3, 7, 14, 30, 60, 90, 180, 365}
	taskCountMilestones = []int{10, 50, 100, 500, 1000}
)

const categoryMasterCount = 20

// EvaluateAchievements runs the awarding rules after a streak update, in
// fixed order: streak milestones, then task-count milestones, then category
// masters.
//
// De-duplication is substring-based against the free-text description
// ("<n> day", "<n> tasks", capitalized category name). The contract is part
// of the stored data's compatibility surface and must not be replaced with
// a structured key.
func (s *Service) EvaluateAchievements(ctx context.Context, userID string, currentStreak int) error {
	if err := s.awardStreakMilestone(ctx, userID, currentStreak); err != nil {
		return err
	}
	if err := s.awardTaskCountMilestone(ctx, userID); err != nil {
		return err
	}
	return s.awardCategoryMasters(ctx, userID)
}

func (s *Service) awardStreakMilestone(ctx context.Context, userID string, currentStreak int) error {
	hit := false
	for _, m := range streakMilestones {
		if m == currentStreak {
			hit = true
			break
		}
	}
	if !hit {
		return nil
	}

	marker := fmt.Sprintf("%d day", currentStreak)
	dup, err := s.hasAchievementContaining(ctx, userID, model.AchievementStreakMilestone, marker)
	if err != nil || dup {
		return err
	}

	a := model.NewAchievement(userID, model.AchievementStreakMilestone,
		fmt.Sprintf("%d Day Streak!", currentStreak),
		fmt.Sprintf("Completed tasks %d day(s) in a row", currentStreak),
		s.now())
	if err := s.store.InsertAchievement(ctx, a); err != nil {
		return err
	}
	s.logger.Printf("awarded %s to %s", a.Title, userID)
	return nil
}

func (s *Service) awardTaskCountMilestone(ctx context.Context, userID string) error {
	total, err := s.store.CountCompletedTasks(ctx, userID)
	if err != nil {
		return err
	}

	hit := false
	for _, m := range taskCountMilestones {
		if m == total {
			hit = true
			break
		}
	}
	if !hit {
		return nil
	}

	marker := fmt.Sprintf("%d tasks", total)
	dup, err := s.hasAchievementContaining(ctx, userID, model.AchievementTaskCount, marker)
	if err != nil || dup {
		return err
	}

	a := model.NewAchievement(userID, model.AchievementTaskCount,
		fmt.Sprintf("Task Master: %d", total),
		fmt.Sprintf("Completed %d tasks overall", total),
		s.now())
	if err := s.store.InsertAchievement(ctx, a); err != nil {
		return err
	}
	s.logger.Printf("awarded %s to %s", a.Title, userID)
	return nil
}

func (s *Service) awardCategoryMasters(ctx context.Context, userID string) error {
	counts, err := s.store.CountCompletedByCategory(ctx, userID)
	if err != nil {
		return err
	}

	for _, category := range model.Categories {
		if counts[category] != categoryMasterCount {
			continue
		}

		name := capitalize(string(category))
		dup, err := s.hasAchievementContaining(ctx, userID, model.AchievementCategoryMaster, name)
		if err != nil {
			return err
		}
		if dup {
			continue
		}

		a := model.NewAchievement(userID, model.AchievementCategoryMaster,
			fmt.Sprintf("%s Expert", name),
			fmt.Sprintf("Completed %d %s tasks", categoryMasterCount, name),
			s.now())
		if err := s.store.InsertAchievement(ctx, a); err != nil {
			return err
		}
		s.logger.Printf("awarded %s to %s", a.Title, userID)
	}
	return nil
}

func (s *Service) hasAchievementContaining(ctx context.Context, userID string, typ model.AchievementType, marker string) (bool, error) {
	existing, err := s.store.AchievementsByType(ctx, userID, typ)
	if err != nil {
		return false, err
	}
	for _, a := range existing {
		if strings.Contains(a.Description, marker) {
			return true, nil
		}
	}
	return false, nil
}

// capitalize renders an enum name like "WORK" as "Work".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
