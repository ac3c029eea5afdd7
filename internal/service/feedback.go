package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

func (s *DefaultService) SubmitFeedback(
	ctx context.Context,
	userID string,
	req models.SubmitFeedbackRequest,
) (*models.Feedback, error) {
	skill := strings.TrimSpace(req.Skill)
	if skill == "" {
		return nil, models.NewValidationError("skill is required")
	}
	if req.Rating < s.credits.MinRating || req.Rating > s.credits.MaxRating {
		return nil, models.NewValidationError("rating must be between %d and %d",
			s.credits.MinRating, s.credits.MaxRating)
	}

	toUser, err := s.repo.GetUserByID(ctx, req.ToUserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if toUser == nil {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}

	var meetingID *string
	if req.MeetingID != "" {
		meeting, err := s.repo.GetMeeting(ctx, req.MeetingID)
		if err != nil {
			return nil, fmt.Errorf("error getting meeting: %w", err)
		}
		if meeting == nil {
			return nil, fmt.Errorf("meeting: %w", models.ErrNotFound)
		}
		if !meeting.HasParticipant(userID) {
			return nil, models.ErrNotAllowed
		}
		if !meeting.HasParticipant(req.ToUserID) {
			return nil, models.NewValidationError("user is not a participant in this meeting")
		}
		meetingID = &meeting.ID
	}

	feedback := &models.Feedback{
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		MeetingID:  meetingID,
		Skill:      skill,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}

	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	if err := s.recomputeForFeedback(ctx, req.ToUserID); err != nil {
		return nil, err
	}

	return feedback, nil
}

func (s *DefaultService) FeedbackReceived(ctx context.Context, userID string) ([]models.FeedbackItem, error) {
	feedbacks, err := s.repo.ListFeedbackReceived(ctx, userID, 100)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}

	return s.feedbackItems(ctx, feedbacks, "Rated you", func(f *models.Feedback) string {
		return f.FromUserID
	})
}

func (s *DefaultService) FeedbackGiven(ctx context.Context, userID string) ([]models.FeedbackItem, error) {
	feedbacks, err := s.repo.ListFeedbackGiven(ctx, userID, 100)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}

	return s.feedbackItems(ctx, feedbacks, "You rated", func(f *models.Feedback) string {
		return f.ToUserID
	})
}

// feedbackItems builds the display view of a feedback list, resolving the
// counterparty's name and avatar once per user.
func (s *DefaultService) feedbackItems(
	ctx context.Context,
	feedbacks []models.Feedback,
	kind string,
	counterparty func(*models.Feedback) string,
) ([]models.FeedbackItem, error) {
	users := make(map[string]*models.User)
	items := make([]models.FeedbackItem, 0, len(feedbacks))

	for i := range feedbacks {
		f := &feedbacks[i]
		otherID := counterparty(f)

		user, ok := users[otherID]
		if !ok {
			var err error
			user, err = s.repo.GetUserByID(ctx, otherID)
			if err != nil {
				return nil, fmt.Errorf("error getting user: %w", err)
			}
			users[otherID] = user
		}

		name, avatar := "Unknown", ""
		if user != nil {
			name, avatar = user.Name, user.Avatar
		}

		items = append(items, models.FeedbackItem{
			ID:        f.ID,
			Name:      name,
			Avatar:    avatar,
			Type:      kind,
			Rating:    f.Rating,
			Date:      f.CreatedAt.Format("2006-01-02"),
			Comment:   f.Comment,
			Skill:     f.Skill,
			MeetingID: f.MeetingID,
		})
	}

	return items, nil
}

// PendingFeedback lists past meetings the user has not yet left feedback
// for.
func (s *DefaultService) PendingFeedback(ctx context.Context, userID string) ([]models.PendingFeedbackItem, error) {
	meetings, err := s.repo.ListPastMeetings(ctx, userID, s.now(), 50)
	if err != nil {
		return nil, fmt.Errorf("error listing meetings: %w", err)
	}

	given, err := s.repo.ListFeedbackGiven(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}

	reviewed := make(map[string]struct{})
	for i := range given {
		if given[i].MeetingID != nil {
			reviewed[*given[i].MeetingID] = struct{}{}
		}
	}

	pending := make([]models.PendingFeedbackItem, 0)
	users := make(map[string]*models.User)
	for i := range meetings {
		meeting := &meetings[i]
		if _, ok := reviewed[meeting.ID]; ok {
			continue
		}

		otherID := meeting.OtherParticipant(userID)
		other, ok := users[otherID]
		if !ok {
			other, err = s.repo.GetUserByID(ctx, otherID)
			if err != nil {
				return nil, fmt.Errorf("error getting user: %w", err)
			}
			users[otherID] = other
		}

		name, avatar := "Unknown", ""
		if other != nil {
			name, avatar = other.Name, other.Avatar
		}

		pending = append(pending, models.PendingFeedbackItem{
			MeetingID:   meeting.ID,
			Person:      name,
			Avatar:      avatar,
			Skill:       meeting.Title,
			Date:        meeting.StartsAt.Format("2006-01-02"),
			OtherUserID: otherID,
		})
	}

	return pending, nil
}
