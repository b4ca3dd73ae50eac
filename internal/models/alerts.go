package models

import (
	"encoding/json"
	"time"

	"Lifeline/pkg/errors"
	"Lifeline/pkg/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertCategory 告警类别，闭集
type AlertCategory string

const (
	CategoryMedical AlertCategory = "medical"
	CategoryFire    AlertCategory = "fire"
	CategoryPolice  AlertCategory = "police"
	CategoryGeneral AlertCategory = "general"
)

// Valid 判断类别是否在闭集内
func (c AlertCategory) Valid() bool {
	switch c {
	case CategoryMedical, CategoryFire, CategoryPolice, CategoryGeneral:
		return true
	}
	return false
}

// AlertStatus 告警状态，只能沿 pending → acknowledged → resolved 前进
type AlertStatus string

const (
	StatusPending      AlertStatus = "pending"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusResolved     AlertStatus = "resolved"
)

var statusRank = map[AlertStatus]int{
	StatusPending:      0,
	StatusAcknowledged: 1,
	StatusResolved:     2,
}

// Valid 判断状态是否合法
func (s AlertStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// MaxMessageLen 告警描述长度上限
const MaxMessageLen = 1000

// Location 事发位置：坐标 + 可读地址
type Location struct {
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
	Address   string  `gorm:"size:255" json:"address"`
}

// NewLocation 构造并校验位置
func NewLocation(lat, lng float64, address string) (*Location, error) {
	if lat < -90 || lat > 90 {
		return nil, errors.WithCodef(errors.CodeInvalidParam, "latitude %.4f out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, errors.WithCodef(errors.CodeInvalidParam, "longitude %.4f out of range [-180,180]", lng)
	}
	return &Location{Latitude: lat, Longitude: lng, Address: address}, nil
}

// AlertRecord 一次紧急告警事件。ID 与 UserID 创建后不可变；
// Message 仅允许所有者在首次派发前修改。
type AlertRecord struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	UserID       uint          `gorm:"index;not null" json:"user_id"`
	Category     AlertCategory `gorm:"size:16;not null" json:"category"`
	Message      string        `gorm:"size:1000" json:"message"`
	Severity     int           `gorm:"default:5" json:"severity"` // 1-5，5 最高
	Location     *Location     `gorm:"embedded;embeddedPrefix:loc_" json:"location,omitempty"`
	Status       AlertStatus   `gorm:"size:16;default:pending" json:"status"`
	DispatchedAt *time.Time    `json:"dispatched_at,omitempty"` // 首次派发时间，此后 Message 冻结
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewAlertRecord 在边界校验后构造告警记录
func NewAlertRecord(userID uint, category AlertCategory, message string, loc *Location) (*AlertRecord, error) {
	if !category.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidParam, "unknown alert category %q", category)
	}
	if len(message) > MaxMessageLen {
		return nil, errors.WithCodef(errors.CodeInvalidParam, "message exceeds %d characters", MaxMessageLen)
	}
	if loc != nil {
		if _, err := NewLocation(loc.Latitude, loc.Longitude, loc.Address); err != nil {
			return nil, err
		}
	}
	return &AlertRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Category:  category,
		Message:   message,
		Severity:  5,
		Location:  loc,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// SetStatus 状态推进，禁止回退；resolved 为终态之后不再变化
func (a *AlertRecord) SetStatus(next AlertStatus) error {
	if !next.Valid() {
		return errors.WithCodef(errors.CodeInvalidParam, "unknown alert status %q", next)
	}
	if statusRank[next] < statusRank[a.Status] {
		return errors.WithCodef(errors.CodeInvalidTransition, "status cannot move backward: %s -> %s", a.Status, next)
	}
	a.Status = next
	return nil
}

// UpdateMessage 仅所有者可改，且必须在首次派发之前
func (a *AlertRecord) UpdateMessage(userID uint, message string) error {
	if a.UserID != userID {
		return errors.WithCode(errors.CodeForbidden, "alert belongs to another user")
	}
	if a.DispatchedAt != nil {
		return errors.WithCode(errors.CodeInvalidTransition, "message is frozen once the alert has been dispatched")
	}
	if len(message) > MaxMessageLen {
		return errors.WithCodef(errors.CodeInvalidParam, "message exceeds %d characters", MaxMessageLen)
	}
	a.Message = message
	return nil
}

// MarkDispatched 记录首次派发时间，只记一次
func (a *AlertRecord) MarkDispatched(t time.Time) {
	if a.DispatchedAt == nil {
		a.DispatchedAt = &t
	}
}

// CreateAlertRecord 新建告警并触发 SigAlertCreated
func CreateAlertRecord(db *gorm.DB, a *AlertRecord) error {
	if err := db.Create(a).Error; err != nil {
		return errors.Wrap(err, "create alert record")
	}
	util.Sig().Emit(SigAlertCreated, a)
	return nil
}

// GetAlertByID 按 ID 查询告警
func GetAlertByID(db *gorm.DB, id string) (*AlertRecord, error) {
	var a AlertRecord
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithCodef(errors.CodeNotFound, "alert %s not found", id)
		}
		return nil, errors.Wrap(err, "query alert")
	}
	return &a, nil
}

// ListAlertsByUser 查询用户的全部告警，新的在前
func ListAlertsByUser(db *gorm.DB, userID uint) ([]AlertRecord, error) {
	var alerts []AlertRecord
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// ListAllAlerts 管理端查询全部告警
func ListAllAlerts(db *gorm.DB) ([]AlertRecord, error) {
	var alerts []AlertRecord
	err := db.Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// SaveAlertRecord 回写告警
func SaveAlertRecord(db *gorm.DB, a *AlertRecord) error {
	return db.Save(a).Error
}

// DeleteAlertRecord 删除告警
func DeleteAlertRecord(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&AlertRecord{}).Error
}

// PurgeResolvedAlertsBefore 清理早于 cutoff 的已解决告警，返回清理条数
func PurgeResolvedAlertsBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	tx := db.Where("status = ? AND created_at < ?", StatusResolved, cutoff).Delete(&AlertRecord{})
	return tx.RowsAffected, tx.Error
}

// AuthorityDispatch 权威机构登记行，Authority 通道先落库再调下游
type AuthorityDispatch struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AlertID         string    `gorm:"size:36;uniqueIndex;not null" json:"alert_id"`
	Authority       string    `gorm:"size:64;not null" json:"authority"`
	EmergencyNumber string    `gorm:"size:16" json:"emergency_number"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegisterAuthorityDispatch 幂等登记：同一告警重试不会产生第二行
func RegisterAuthorityDispatch(db *gorm.DB, alertID, authority, emergencyNumber string) error {
	row := AuthorityDispatch{AlertID: alertID, Authority: authority, EmergencyNumber: emergencyNumber}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alert_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "register authority dispatch")
	}
	return nil
}

// DispatchRecord 派发周期完成后的最终快照（告警 + 各通道结果）
type DispatchRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   string    `gorm:"size:36;uniqueIndex;not null" json:"alert_id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Succeeded bool      `json:"succeeded"`
	Outcomes  string    `gorm:"type:text" json:"outcomes"` // JSON 编码的通道结果列表
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersistDispatchRecord 落库最终派发结果；按 alert_id 幂等覆盖，重试安全
func PersistDispatchRecord(db *gorm.DB, a *AlertRecord, succeeded bool, outcomes any) error {
	raw, err := json.Marshal(outcomes)
	if err != nil {
		return errors.Wrap(err, "encode outcomes")
	}
	row := DispatchRecord{
		AlertID:   a.ID,
		UserID:    a.UserID,
		Succeeded: succeeded,
		Outcomes:  string(raw),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alert_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"succeeded", "outcomes", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "persist dispatch record")
	}
	return nil
}

// AlertAudit 下游通知函数写入的审计事件
type AlertAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   string    `gorm:"size:36;index;not null" json:"alert_id"`
	UserID    uint      `json:"user_id"`
	Action    string    `gorm:"size:32;not null" json:"action"` // "notify_contacts"
	Detail    string    `gorm:"size:255" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAlertAudit 记录审计事件
func CreateAlertAudit(db *gorm.DB, alertID string, userID uint, action, detail string) error {
	return db.Create(&AlertAudit{AlertID: alertID, UserID: userID, Action: action, Detail: detail}).Error
}
