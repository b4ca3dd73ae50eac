package models

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"Lifeline/pkg/constant"
	"Lifeline/pkg/errors"
	"Lifeline/pkg/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// User 系统用户
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:128;uniqueIndex" json:"email"`
	Password     string     `gorm:"size:160" json:"-"` // salt$sha256
	IsAdmin      bool       `json:"is_admin"`
	DeviceTokens string     `gorm:"type:text" json:"-"` // JSON 数组，推送设备令牌
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// 会话中保存用户 ID 的键
const sessionUserKey = "_lifeline_uid"

func hashPassword(password string) string {
	salt := make([]byte, 8)
	_, _ = rand.Read(salt)
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(sum[:])
}

func checkPassword(stored, password string) bool {
	saltHex, sumHex, found := strings.Cut(stored, "$")
	if !found {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(sumHex)) == 1
}

// CreateUser 注册用户并触发 SigUserCreate
func CreateUser(db *gorm.DB, username, email, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, errors.WithCode(errors.CodeInvalidParam, "username and password are required")
	}
	u := &User{
		Username: username,
		Email:    email,
		Password: hashPassword(password),
	}
	if err := db.Create(u).Error; err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	util.Sig().Emit(SigUserCreate, u)
	return u, nil
}

// GetUserByID 按 ID 查询用户
func GetUserByID(db *gorm.DB, id uint) (*User, error) {
	var u User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithCodef(errors.CodeNotFound, "user %d not found", id)
		}
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}

// GetUserByUsername 按用户名查询用户
func GetUserByUsername(db *gorm.DB, username string) (*User, error) {
	var u User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithCodef(errors.CodeNotFound, "user %s not found", username)
		}
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}

// Authenticate 校验用户名密码并更新最近登录时间
func Authenticate(db *gorm.DB, username, password string) (*User, error) {
	u, err := GetUserByUsername(db, username)
	if err != nil {
		return nil, errors.WithCode(errors.CodeUnauthorized, "invalid username or password")
	}
	if !checkPassword(u.Password, password) {
		return nil, errors.WithCode(errors.CodeUnauthorized, "invalid username or password")
	}
	now := time.Now()
	u.LastLogin = &now
	_ = db.Model(u).Update("last_login", now).Error
	util.Sig().Emit(SigUserLogin, u)
	return u, nil
}

// Devices 解码推送设备令牌
func (u *User) Devices() []string {
	if u.DeviceTokens == "" {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(u.DeviceTokens), &tokens); err != nil {
		return nil
	}
	return tokens
}

// SetDevices 覆盖推送设备令牌
func (u *User) SetDevices(db *gorm.DB, tokens []string) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	u.DeviceTokens = string(raw)
	return db.Model(u).Update("device_tokens", u.DeviceTokens).Error
}

// Login 将用户写入会话
func Login(c *gin.Context, u *User) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, u.ID)
	return session.Save()
}

// Logout 清除会话
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionUserKey)
	return session.Save()
}

// CurrentUser 从会话解析当前用户，未登录返回 nil
func CurrentUser(c *gin.Context) *User {
	if cached, ok := c.Get(constant.UserField); ok {
		if u, ok := cached.(*User); ok {
			return u
		}
	}
	session := sessions.Default(c)
	uid, ok := session.Get(sessionUserKey).(uint)
	if !ok {
		return nil
	}
	dbVal, exists := c.Get(constant.DbField)
	if !exists {
		return nil
	}
	db, ok := dbVal.(*gorm.DB)
	if !ok {
		return nil
	}
	u, err := GetUserByID(db, uid)
	if err != nil {
		return nil
	}
	c.Set(constant.UserField, u)
	c.Set(constant.UserIDField, u.ID)
	return u
}

// AuthRequired 登录保护中间件
func AuthRequired(c *gin.Context) {
	u := CurrentUser(c)
	if u == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
		return
	}
	c.Next()
}

// AdminRequired 管理员保护中间件
func AdminRequired(c *gin.Context) {
	u := CurrentUser(c)
	if u == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
		return
	}
	if !u.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin role required"})
		return
	}
	c.Next()
}
