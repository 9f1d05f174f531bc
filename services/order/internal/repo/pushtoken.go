package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

func (r *GormRepo) ActivePushTokens(ctx context.Context, userID uint) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC, id DESC").
		Find(&tokens).Error
	return tokens, err
}

// DeactivatePushToken is a no-op for tokens that are already inactive.
func (r *GormRepo) DeactivatePushToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Model(&models.PushToken{}).
		Where("token = ? AND is_active = ?", token, true).
		Update("is_active", false).Error
}

// RegisterPushToken replaces whatever token the device had before.
func (r *GormRepo) RegisterPushToken(ctx context.Context, t *models.PushToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PushToken{}).
			Where("user_id = ? AND device_id = ? AND is_active = ?", t.UserID, t.DeviceID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		t.IsActive = true
		return tx.Create(t).Error
	})
}

func (r *GormRepo) UnregisterPushToken(ctx context.Context, userID uint, deviceID string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.PushToken{}).
		Where("user_id = ? AND device_id = ? AND is_active = ?", userID, deviceID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
