package repository

import (
	"context"
	"errors"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// IdentityRepo is the repository for identity operations
type IdentityRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewIdentityRepo creates a new IdentityRepo
func NewIdentityRepo(db *gorm.DB, rdb *redis.Client) *IdentityRepo {
	return &IdentityRepo{db: db, rdb: rdb}
}

// Create creates a new identity
func (r *IdentityRepo) Create(ctx context.Context, identity *entity.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

// GetById gets identity by id, nil when unknown.
func (r *IdentityRepo) GetById(ctx context.Context, id string) (*entity.Identity, error) {
	var identity entity.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

// GetByIds gets identities by ids
func (r *IdentityRepo) GetByIds(ctx context.Context, ids []string) ([]*entity.Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var identities []*entity.Identity
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}

// CountByRole counts identities holding a role. Used to decide whether
// the support pool is reachable at all.
func (r *IdentityRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Identity{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// ListByRole lists identities holding a role
func (r *IdentityRepo) ListByRole(ctx context.Context, role string) ([]*entity.Identity, error) {
	var identities []*entity.Identity
	err := r.db.WithContext(ctx).Where("role = ?", role).Find(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}
