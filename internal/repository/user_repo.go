package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/airchieve/airchieve_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 加行锁读取用户（必须在事务内调用）。
// MySQL 为 SELECT ... FOR UPDATE，SQLite 忽略锁提示。
func (r *UserRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*model.User, error) {
	var user model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByPhone(phone string) (*model.User, error) {
	var user model.User
	err := r.db.Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByWechatOpenID(openid string) (*model.User, error) {
	var user model.User
	err := r.db.Where("wechat_openid = ?", openid).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateMembershipFields 写入会员缓存字段（支付域专用）
func (r *UserRepository) UpdateMembershipFields(tx *gorm.DB, id int64, level string, expireAt *time.Time) error {
	return tx.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"membership_level":     level,
		"membership_expire_at": expireAt,
	}).Error
}

func (r *UserRepository) ExistsByPhone(phone string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

// DowngradeExpiredMemberships 将已过期会员降回 free，返回影响行数
func (r *UserRepository) DowngradeExpiredMemberships(now time.Time) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("membership_level <> ? AND membership_expire_at IS NOT NULL AND membership_expire_at <= ?",
			model.MembershipFree, now).
		Updates(map[string]interface{}{
			"membership_level":     model.MembershipFree,
			"membership_expire_at": nil,
		})
	return result.RowsAffected, result.Error
}
