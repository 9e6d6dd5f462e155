package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// SubscriptionService maintains the follower -> author graph.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// SubscribedAuthor is one author the follower subscribes to, with a recipe
// preview capped at the requested limit and the author's full recipe count.
type SubscribedAuthor struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

func (s *SubscriptionService) Subscribe(ctx context.Context, followerID, authorID uuid.UUID) (*models.User, error) {
	if followerID == authorID {
		return nil, NewValidationError("author", "you cannot subscribe to yourself")
	}
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user"}
		}
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Reason: "already subscribed"}
	}
	sub := models.Subscription{UserID: followerID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, followerID, authorID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "subscription"}
	}
	return nil
}

// IsSubscribed reports whether follower has an edge to author.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, followerID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	return count > 0, err
}

// ListSubscriptions returns the authors the follower subscribes to, each
// with up to recipesLimit recipes (everything when nil) and a total count.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, followerID uuid.UUID, recipesLimit *int, page, limit int) ([]SubscribedAuthor, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", followerID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("users.username ASC")
	if limit > 0 {
		offset := 0
		if page > 1 {
			offset = (page - 1) * limit
		}
		query = query.Offset(offset).Limit(limit)
	}

	var authors []models.User
	if err := query.Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	result := make([]SubscribedAuthor, 0, len(authors))
	for _, author := range authors {
		entry := SubscribedAuthor{Author: author}
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", author.ID).
			Count(&entry.RecipesCount).Error; err != nil {
			return nil, 0, err
		}
		recipes := s.db.WithContext(ctx).
			Where("author_id = ?", author.ID).
			Order("created_at DESC")
		if recipesLimit != nil {
			recipes = recipes.Limit(*recipesLimit)
		}
		if err := recipes.Find(&entry.Recipes).Error; err != nil {
			return nil, 0, err
		}
		result = append(result, entry)
	}
	return result, total, nil
}
