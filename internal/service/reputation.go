package service

import (
	"context"
	"fmt"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

// applyCompletionStats rolls the session counters forward when a meeting
// transitions to completed: the teacher's matching skill and sessions-taught
// count, and the learner's sessions-learned count. Meetings without a skill
// label carry no stats.
func (s *DefaultService) applyCompletionStats(ctx context.Context, meeting *models.Meeting) error {
	if meeting.Skill == "" {
		return nil
	}

	if err := s.repo.IncrementTeachingStats(ctx, meeting.TeacherID(), meeting.Skill); err != nil {
		return fmt.Errorf("error updating teacher stats: %w", err)
	}

	if err := s.repo.IncrementSessionsLearned(ctx, meeting.LearnerID()); err != nil {
		return fmt.Errorf("error updating learner stats: %w", err)
	}

	return nil
}

// applySessionRating folds a session rating into the teacher's per-skill
// rolling average and overall average. The repository serializes the
// read-then-write per profile.
func (s *DefaultService) applySessionRating(ctx context.Context, teacherID, skill string, rating int) error {
	if err := s.repo.ApplySkillRating(ctx, teacherID, skill, rating); err != nil {
		return fmt.Errorf("error applying skill rating: %w", err)
	}
	return nil
}

// recomputeForFeedback recomputes the ratee's overall average rating and
// feedback-derived session count from the full feedback log.
func (s *DefaultService) recomputeForFeedback(ctx context.Context, ratedUserID string) error {
	if err := s.repo.RecomputeUserStats(ctx, ratedUserID); err != nil {
		return fmt.Errorf("error recomputing user stats: %w", err)
	}
	return nil
}
