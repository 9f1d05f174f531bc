package repo

import (
	"context"
	"slices"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

// ResolveMenuItems returns every requested menu item of the store, or an
// *UnavailableError naming the ids that are missing, deleted or unavailable.
func (r *GormRepo) ResolveMenuItems(ctx context.Context, storeID uint, ids []uint) (map[uint]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).
		Where("id IN ? AND store_id = ? AND is_available = ? AND is_deleted = ?", dedupe(ids), storeID, true, false).
		Find(&items).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	if bad := missing(ids, func(id uint) bool { _, ok := out[id]; return ok }); len(bad) > 0 {
		return nil, &UnavailableError{Kind: "menu items", IDs: bad}
	}
	return out, nil
}

func (r *GormRepo) ResolveOptionItems(ctx context.Context, ids []uint) (map[uint]models.OptionItem, error) {
	out := make(map[uint]models.OptionItem)
	if len(ids) == 0 {
		return out, nil
	}

	var items []models.OptionItem
	if err := r.DB.WithContext(ctx).
		Where("id IN ? AND is_available = ?", dedupe(ids), true).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	if bad := missing(ids, func(id uint) bool { _, ok := out[id]; return ok }); len(bad) > 0 {
		return nil, &UnavailableError{Kind: "options", IDs: bad}
	}
	return out, nil
}

func (r *GormRepo) StoreByDomain(ctx context.Context, domain string) (*models.StoreInfo, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).Where("domain = ?", domain).First(&s).Error; err != nil {
		return nil, err
	}
	return r.storeInfo(ctx, s)
}

func (r *GormRepo) StoreByID(ctx context.Context, id uint) (*models.StoreInfo, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return r.storeInfo(ctx, s)
}

// A store without an operation status row is treated as not accepting orders.
func (r *GormRepo) storeInfo(ctx context.Context, s models.Store) (*models.StoreInfo, error) {
	var ops []models.StoreOperationStatus
	if err := r.DB.WithContext(ctx).Where("store_id = ?", s.ID).Limit(1).Find(&ops).Error; err != nil {
		return nil, err
	}
	info := &models.StoreInfo{ID: s.ID, Name: s.Name, Domain: s.Domain, OwnerUserID: s.OwnerUserID}
	if len(ops) > 0 {
		info.IsAcceptingOrders = ops[0].IsAcceptingOrders
	}
	return info, nil
}

func dedupe(ids []uint) []uint {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
