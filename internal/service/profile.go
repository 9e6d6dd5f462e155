package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ProfileService handles user directory reads and avatar updates.
type ProfileService struct {
	db     *gorm.DB
	images *ImageService
}

func NewProfileService(db *gorm.DB, images *ImageService) *ProfileService {
	return &ProfileService{db: db, images: images}
}

func (s *ProfileService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user"}
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of accounts ordered by username.
func (s *ProfileService) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Order("username ASC")
	if limit > 0 {
		offset := 0
		if page > 1 {
			offset = (page - 1) * limit
		}
		query = query.Offset(offset).Limit(limit)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetAvatar decodes the data URI, replaces any previously stored avatar and
// saves the new URL. The old blob is deleted before the new one is stored.
func (s *ProfileService) SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	// Validate the payload before touching storage.
	if _, _, err := DecodeDataURI(dataURI); err != nil {
		return "", err
	}

	if user.AvatarURL != "" && s.images != nil {
		if err := s.images.Delete(ctx, user.AvatarURL); err != nil {
			log.Printf("[ProfileService] failed to delete old avatar: %v", err)
		}
	}

	url := dataURI
	if s.images != nil {
		url, err = s.images.StoreDataURI(ctx, dataURI, "avatars")
		if err != nil {
			return "", err
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("avatar_url", url).Error; err != nil {
		return "", err
	}
	return url, nil
}

// ClearAvatar removes the stored avatar. NotFoundError when none is set.
func (s *ProfileService) ClearAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarURL == "" {
		return &NotFoundError{Resource: "avatar"}
	}
	if s.images != nil {
		if err := s.images.Delete(ctx, user.AvatarURL); err != nil {
			log.Printf("[ProfileService] failed to delete avatar: %v", err)
		}
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("avatar_url", "").Error
}
