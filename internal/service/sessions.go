package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

var roomNameCleaner = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// makeRoomName derives the deterministic video room identifier from the
// conversation (or "general") and the session start time.
func makeRoomName(conversationID string, startsAt time.Time) string {
	scope := conversationID
	if scope == "" {
		scope = "general"
	}
	name := fmt.Sprintf("skillbridge-%s-%d", scope, startsAt.UnixMilli())
	return roomNameCleaner.ReplaceAllString(name, "")
}

func (s *DefaultService) ScheduleMeeting(
	ctx context.Context,
	userID string,
	req models.ScheduleMeetingRequest,
) (*models.Meeting, error) {
	if req.OtherUserID == userID {
		return nil, models.NewValidationError("cannot schedule a session with yourself")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}

	if req.SessionType != models.SessionTeaching && req.SessionType != models.SessionLearning {
		return nil, models.NewValidationError("sessionType must be %q or %q",
			models.SessionTeaching, models.SessionLearning)
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, models.NewValidationError("startsAt must be a valid RFC3339 timestamp")
	}

	other, err := s.repo.GetUserByID(ctx, req.OtherUserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if other == nil {
		return nil, fmt.Errorf("participant: %w", models.ErrNotFound)
	}

	creator, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("creator: %w", models.ErrNotFound)
	}

	duration := req.Duration
	if duration <= 0 {
		duration = s.credits.DefaultDuration
	}

	var conversationID *string
	if req.ConversationID != "" {
		conversationID = &req.ConversationID
	}

	roomName := makeRoomName(req.ConversationID, startsAt)
	meeting := &models.Meeting{
		CreatedBy:      userID,
		PartnerID:      req.OtherUserID,
		Title:          title,
		StartsAt:       startsAt.UTC(),
		Duration:       duration,
		ConversationID: conversationID,
		Provider:       "jitsi",
		RoomName:       roomName,
		JoinURL:        "https://meet.jit.si/" + roomName,
		SessionType:    req.SessionType,
		Skill:          strings.TrimSpace(req.Skill),
		Status:         models.StatusScheduled,
	}

	if err := s.repo.CreateMeeting(ctx, meeting); err != nil {
		return nil, fmt.Errorf("error creating meeting: %w", err)
	}

	if err := s.moveSessionCredits(ctx, meeting, creator, other); err != nil {
		return nil, err
	}

	s.notifier.SendMeetingInvite(other.Email, meeting)

	return meeting, nil
}

// moveSessionCredits debits the learner and credits the teacher for a newly
// scheduled meeting. The meeting was already created, so a failed debit
// deletes it again (compensating action); a failed credit additionally
// refunds the learner. Either both the meeting and its transactions exist
// afterwards, or none of them do.
func (s *DefaultService) moveSessionCredits(
	ctx context.Context,
	meeting *models.Meeting,
	creator, other *models.User,
) error {
	cost := s.credits.SessionCost
	learnerID := meeting.LearnerID()
	teacherID := meeting.TeacherID()

	learnerName, teacherName := creator.Name, other.Name
	if learnerID != meeting.CreatedBy {
		learnerName, teacherName = other.Name, creator.Name
	}

	_, _, err := s.spend(ctx, learnerID, cost, models.TransactionLearning,
		fmt.Sprintf("Learning session with %s", teacherName), &meeting.ID, &teacherID)
	if err != nil {
		if derr := s.repo.DeleteMeeting(ctx, meeting.ID); derr != nil {
			return fmt.Errorf("error compensating failed debit: %w", derr)
		}
		return err
	}

	_, _, err = s.earn(ctx, teacherID, cost, models.TransactionTeaching,
		fmt.Sprintf("Teaching session with %s", learnerName), &meeting.ID, &learnerID)
	if err != nil {
		if _, _, rerr := s.earn(ctx, learnerID, cost, models.TransactionRefund,
			"Refund for failed session scheduling", &meeting.ID, &teacherID); rerr != nil {
			return fmt.Errorf("error compensating failed credit: %w", rerr)
		}
		if derr := s.repo.DeleteMeeting(ctx, meeting.ID); derr != nil {
			return fmt.Errorf("error compensating failed credit: %w", derr)
		}
		return err
	}

	return nil
}

func (s *DefaultService) ListMeetings(ctx context.Context, userID string) ([]models.Meeting, error) {
	// Flip expired meetings to completed before reading
	if err := s.sweepExpired(ctx, userID); err != nil {
		return nil, err
	}

	meetings, err := s.repo.ListScheduledMeetings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing meetings: %w", err)
	}

	if meetings == nil {
		meetings = []models.Meeting{}
	}

	return meetings, nil
}

func (s *DefaultService) MeetingHistory(
	ctx context.Context,
	userID,
	status string,
	limit int,
) ([]models.Meeting, error) {
	if status != "" && status != models.StatusScheduled &&
		status != models.StatusCompleted && status != models.StatusCancelled {
		return nil, models.NewValidationError("unknown status %q", status)
	}

	if limit <= 0 {
		limit = 50
	}

	meetings, err := s.repo.ListMeetingHistory(ctx, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing meeting history: %w", err)
	}

	if meetings == nil {
		meetings = []models.Meeting{}
	}

	return meetings, nil
}

// sweepExpired transitions every scheduled meeting of the user whose end
// time has passed to completed, and rolls the session counters forward for
// both participants. The flip is a conditional update, so concurrent sweeps
// count each completion exactly once.
func (s *DefaultService) sweepExpired(ctx context.Context, userID string) error {
	meetings, err := s.repo.ListScheduledMeetings(ctx, userID)
	if err != nil {
		return fmt.Errorf("error listing meetings: %w", err)
	}

	now := s.now()
	for i := range meetings {
		meeting := &meetings[i]
		if !now.After(meeting.EndsAt()) {
			continue
		}

		completed, err := s.repo.CompleteMeeting(ctx, meeting.ID)
		if err != nil {
			return fmt.Errorf("error completing meeting: %w", err)
		}
		if !completed {
			// Another sweep got here first
			continue
		}

		if err := s.applyCompletionStats(ctx, meeting); err != nil {
			return err
		}
	}

	return nil
}

func (s *DefaultService) CancelMeeting(ctx context.Context, userID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.repo.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("error getting meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting: %w", models.ErrNotFound)
	}

	if !meeting.HasParticipant(userID) {
		return nil, models.ErrNotAllowed
	}

	cancelled, err := s.repo.CancelMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("error cancelling meeting: %w", err)
	}
	if !cancelled {
		return nil, fmt.Errorf("%w: only scheduled meetings can be cancelled", models.ErrInvalidState)
	}

	meeting.Status = models.StatusCancelled

	return meeting, nil
}

func (s *DefaultService) RateMeeting(
	ctx context.Context,
	userID,
	meetingID string,
	rating int,
) (*models.Meeting, error) {
	if rating < s.credits.MinRating || rating > s.credits.MaxRating {
		return nil, models.NewValidationError("rating must be between %d and %d",
			s.credits.MinRating, s.credits.MaxRating)
	}

	meeting, err := s.repo.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("error getting meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting: %w", models.ErrNotFound)
	}

	if !meeting.HasParticipant(userID) {
		return nil, models.ErrNotAllowed
	}

	if meeting.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed meetings can be rated", models.ErrInvalidState)
	}
	if meeting.Rating != nil {
		return nil, fmt.Errorf("%w: meeting already rated", models.ErrInvalidState)
	}

	// Only the participant in the learning role rates the session
	if userID != meeting.LearnerID() {
		return nil, models.ErrNotAllowed
	}

	applied, err := s.repo.SetMeetingRating(ctx, meetingID, rating)
	if err != nil {
		return nil, fmt.Errorf("error setting rating: %w", err)
	}
	if !applied {
		// Lost a race against another rating call
		return nil, fmt.Errorf("%w: meeting already rated", models.ErrInvalidState)
	}

	meeting.Rating = &rating

	if meeting.Skill != "" {
		if err := s.applySessionRating(ctx, meeting.TeacherID(), meeting.Skill, rating); err != nil {
			return nil, err
		}
	}

	return meeting, nil
}

func (s *DefaultService) DeleteMeeting(ctx context.Context, userID, meetingID string) error {
	meeting, err := s.repo.GetMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("error getting meeting: %w", err)
	}
	if meeting == nil {
		return fmt.Errorf("meeting: %w", models.ErrNotFound)
	}

	// Only the creator can delete, regardless of status
	if meeting.CreatedBy != userID {
		return models.ErrNotAllowed
	}

	if err := s.repo.DeleteMeeting(ctx, meetingID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error deleting meeting: %w", err)
	}

	return nil
}
