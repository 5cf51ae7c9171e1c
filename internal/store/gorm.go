package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"quickbite/internal/errs"
	"quickbite/internal/models"
)

// GormStore implements OrderStore and PartnerStore on a gorm database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.TimelineEntry{},
		&models.DeliveryPartner{},
		&models.User{},
		&models.Restaurant{},
	).Error; err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateOrder persists a new order with its items and timeline.
func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.Create(order).Error; err != nil {
		return fmt.Errorf("create order %s: %w", order.ID, err)
	}
	return nil
}

// GetOrder loads an order with items and timeline, oldest entry first.
func (s *GormStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Preload("Items").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp asc, id asc") }).
		First(&order, "id = ?", id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

// UpdateOrder writes the order document back, including newly appended
// timeline entries. Items are snapshots and never change after creation.
func (s *GormStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("update order %s: %w", order.ID, tx.Error)
	}
	if err := tx.Set("gorm:save_associations", false).Save(order).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	for i := range order.Timeline {
		entry := &order.Timeline[i]
		if entry.ID != 0 {
			continue
		}
		if err := tx.Create(entry).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("append timeline for order %s: %w", order.ID, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	return nil
}

// FindOrdersByCustomer returns a customer's orders, newest first.
func (s *GormStore) FindOrdersByCustomer(ctx context.Context, customerID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("find orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// FindActiveOrdersByPartner returns the orders a partner is currently serving.
func (s *GormStore) FindActiveOrdersByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.
		Where("delivery_partner_id = ? AND status IN (?)", partnerID, ActiveStatuses).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("find active orders for partner %s: %w", partnerID, err)
	}
	return orders, nil
}

// CountOrdersByPartner counts a partner's orders in a given status.
func (s *GormStore) CountOrdersByPartner(ctx context.Context, partnerID string, status models.OrderStatus) (int, error) {
	var count int
	err := s.db.Model(&models.Order{}).
		Where("delivery_partner_id = ? AND status = ?", partnerID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count orders for partner %s: %w", partnerID, err)
	}
	return count, nil
}

// GetPartner loads a delivery partner record.
func (s *GormStore) GetPartner(ctx context.Context, userID string) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	err := s.db.First(&partner, "user_id = ?", userID).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("partner %s: %w", userID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get partner %s: %w", userID, err)
	}
	return &partner, nil
}

// SavePartner writes a delivery partner record.
func (s *GormStore) SavePartner(ctx context.Context, partner *models.DeliveryPartner) error {
	if err := s.db.Save(partner).Error; err != nil {
		return fmt.Errorf("save partner %s: %w", partner.UserID, err)
	}
	return nil
}

// CreditPartner adds a completed delivery: earnings plus delivery count.
func (s *GormStore) CreditPartner(ctx context.Context, userID string, amount float64) error {
	err := s.db.Model(&models.DeliveryPartner{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"earnings":         gorm.Expr("earnings + ?", amount),
			"total_deliveries": gorm.Expr("total_deliveries + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("credit partner %s: %w", userID, err)
	}
	return nil
}

// UpdatePartnerLocation stores the last-known location and activity time.
func (s *GormStore) UpdatePartnerLocation(ctx context.Context, userID string, lat, lng float64, at time.Time) error {
	err := s.db.Model(&models.DeliveryPartner{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"lat":            lat,
			"lng":            lng,
			"last_active_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("update location for partner %s: %w", userID, err)
	}
	return nil
}

// MarkIdlePartnersOffline flips partners inactive since the cutoff to
// offline and reports how many were affected.
func (s *GormStore) MarkIdlePartnersOffline(ctx context.Context, inactiveSince time.Time) (int, error) {
	res := s.db.Model(&models.DeliveryPartner{}).
		Where("online = ? AND last_active_at < ?", true, inactiveSince).
		Update("online", false)
	if res.Error != nil {
		return 0, fmt.Errorf("mark idle partners offline: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
