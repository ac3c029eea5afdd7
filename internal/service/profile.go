package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

func (s *DefaultService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}

	return user, nil
}

func (s *DefaultService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	return users, nil
}

func (s *DefaultService) UpdateProfile(
	ctx context.Context,
	userID string,
	req models.UpdateProfileRequest,
) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, models.NewValidationError("name cannot be empty")
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Location != nil {
		user.Location = strings.TrimSpace(*req.Location)
	}
	if req.Languages != nil {
		user.Languages = req.Languages
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) AddTeachingSkill(
	ctx context.Context,
	userID string,
	req models.AddTeachingSkillRequest,
) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("skill name is required")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, skill := range user.SkillsTeaching {
		if strings.EqualFold(skill.Name, name) {
			return nil, models.NewValidationError("skill %q is already listed", name)
		}
	}

	skill := &models.TeachingSkill{UserID: userID, Name: name}
	if err := s.repo.AddTeachingSkill(ctx, skill); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) RemoveTeachingSkill(ctx context.Context, userID, name string) (*models.User, error) {
	if err := s.repo.RemoveTeachingSkill(ctx, userID, name); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) AddLearningSkill(
	ctx context.Context,
	userID string,
	req models.AddLearningSkillRequest,
) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("skill name is required")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, skill := range user.SkillsLearning {
		if strings.EqualFold(skill, name) {
			return nil, models.NewValidationError("skill %q is already listed", name)
		}
	}

	if err := s.repo.AddLearningSkill(ctx, userID, name); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) RemoveLearningSkill(ctx context.Context, userID, name string) (*models.User, error) {
	if err := s.repo.RemoveLearningSkill(ctx, userID, name); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) AddCertification(
	ctx context.Context,
	userID string,
	req models.AddCertificationRequest,
) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("certification name is required")
	}

	cert := &models.Certification{
		UserID:  userID,
		Name:    name,
		Issuer:  strings.TrimSpace(req.Issuer),
		Year:    strings.TrimSpace(req.Year),
		FileURL: strings.TrimSpace(req.FileURL),
	}
	if err := s.repo.AddCertification(ctx, cert); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *DefaultService) RemoveCertification(ctx context.Context, userID, certID string) (*models.User, error) {
	if err := s.repo.RemoveCertification(ctx, userID, certID); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}
