package models

import (
	"time"

	"Lifeline/pkg/errors"

	"gorm.io/gorm"
)

// Contact 紧急联系人，属于创建它的用户
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Email     string    `gorm:"size:128" json:"email"`
	Relation  string    `gorm:"size:32" json:"relation"` // 如 family、friend、doctor
	Priority  int       `gorm:"default:3" json:"priority"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate 联系人字段校验
func (c *Contact) Validate() error {
	if c.Name == "" {
		return errors.WithCode(errors.CodeInvalidParam, "contact name is required")
	}
	if c.Phone == "" && c.Email == "" {
		return errors.WithCode(errors.CodeInvalidParam, "contact needs at least one of phone or email")
	}
	if c.Priority < 1 || c.Priority > 5 {
		return errors.WithCodef(errors.CodeInvalidParam, "priority %d out of range [1,5]", c.Priority)
	}
	return nil
}

// CreateContact 新建联系人
func CreateContact(db *gorm.DB, c *Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return db.Create(c).Error
}

// ListContactsByUser 查询用户联系人，按优先级排序
func ListContactsByUser(db *gorm.DB, userID uint) ([]Contact, error) {
	var contacts []Contact
	err := db.Where("user_id = ?", userID).Order("priority ASC, id ASC").Find(&contacts).Error
	return contacts, err
}

// GetContactByID 按 ID 查询联系人
func GetContactByID(db *gorm.DB, id uint) (*Contact, error) {
	var c Contact
	if err := db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithCodef(errors.CodeNotFound, "contact %d not found", id)
		}
		return nil, errors.Wrap(err, "query contact")
	}
	return &c, nil
}

// UpdateContact 更新联系人
func UpdateContact(db *gorm.DB, c *Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return db.Save(c).Error
}

// DeleteContact 删除联系人
func DeleteContact(db *gorm.DB, id uint) error {
	return db.Delete(&Contact{}, id).Error
}
