package models

import (
	"net/http"
	"reflect"
	"strings"

	"Lifeline/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/inflection"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// AdminObject 后台管理对象描述，驱动通用 CRUD 路由
type AdminObject struct {
	Model       interface{} // gorm 模型指针
	Group       string      // 分组名
	Name        string      // 单数名，路由取其复数小写
	Desc        string      // 描述
	Shows       []string    // 列表展示字段
	Editables   []string    // 允许编辑的字段（JSON 键名）
	Filterables []string    // 允许过滤的字段（列名）
	Searchables []string    // 允许模糊搜索的列名
	Orderables  []string    // 允许排序的列名
}

// LifelineAdminObjects 系统内置的管理对象
func LifelineAdminObjects() []AdminObject {
	return []AdminObject{
		{
			Model:       &AlertRecord{},
			Group:       "Alerts",
			Name:        "Alert",
			Desc:        "Emergency alerts with dispatch status",
			Shows:       []string{"ID", "UserID", "Category", "Status", "Message", "CreatedAt"},
			Editables:   []string{"severity"},
			Filterables: []string{"category", "status", "user_id"},
			Searchables: []string{"message", "loc_address"},
			Orderables:  []string{"created_at"},
		},
		{
			Model:       &Contact{},
			Group:       "Alerts",
			Name:        "Contact",
			Desc:        "Emergency contacts per user",
			Shows:       []string{"ID", "UserID", "Name", "Phone", "Email"},
			Editables:   []string{"name", "phone", "email", "relation"},
			Filterables: []string{"user_id"},
			Searchables: []string{"name", "phone", "email"},
			Orderables:  []string{"created_at"},
		},
		{
			Model:       &User{},
			Group:       "System",
			Name:        "User",
			Desc:        "Registered users",
			Shows:       []string{"ID", "Username", "Email", "IsAdmin", "CreatedAt"},
			Editables:   []string{"is_admin"},
			Filterables: []string{"is_admin"},
			Searchables: []string{"username", "email"},
			Orderables:  []string{"created_at"},
		},
		{
			Model:       &DispatchRecord{},
			Group:       "Alerts",
			Name:        "DispatchRecord",
			Desc:        "Per-alert dispatch outcomes",
			Shows:       []string{"ID", "AlertID", "Succeeded", "CreatedAt"},
			Filterables: []string{"alert_id", "succeeded"},
			Orderables:  []string{"created_at"},
		},
		{
			Model:       &AuthorityDispatch{},
			Group:       "Alerts",
			Name:        "AuthorityDispatch",
			Desc:        "Authority handoff records",
			Shows:       []string{"ID", "AlertID", "Authority", "CreatedAt"},
			Filterables: []string{"authority"},
			Orderables:  []string{"created_at"},
		},
	}
}

// RegisterAdmins 注册管理对象的通用 CRUD 路由
func RegisterAdmins(r *gin.RouterGroup, db *gorm.DB, objs []AdminObject) {
	for i := range objs {
		obj := objs[i]
		path := strings.ToLower(inflection.Plural(obj.Name))
		g := r.Group("/" + path)
		g.GET("", adminList(db, obj))
		g.GET("/:id", adminGet(db, obj))
		g.PUT("/:id", adminUpdate(db, obj))
		g.DELETE("/:id", adminDelete(db, obj))
	}
	r.GET("/objects", func(c *gin.Context) {
		type meta struct {
			Group string `json:"group"`
			Name  string `json:"name"`
			Desc  string `json:"desc"`
			Path  string `json:"path"`
		}
		out := make([]meta, 0, len(objs))
		for _, obj := range objs {
			out = append(out, meta{obj.Group, obj.Name, obj.Desc, strings.ToLower(inflection.Plural(obj.Name))})
		}
		response.Success(c, "success", out)
	})
}

// newModelSlice 反射构造 *[]T 供 gorm Find 使用
func newModelSlice(model interface{}) interface{} {
	t := reflect.TypeOf(model).Elem()
	return reflect.New(reflect.SliceOf(reflect.PointerTo(t))).Interface()
}

func newModel(model interface{}) interface{} {
	return reflect.New(reflect.TypeOf(model).Elem()).Interface()
}

func adminList(db *gorm.DB, obj AdminObject) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.Model(obj.Model)
		for _, col := range obj.Filterables {
			if v := c.Query(col); v != "" {
				tx = tx.Where(col+" = ?", v)
			}
		}
		if kw := strings.TrimSpace(c.Query("keyword")); kw != "" && len(obj.Searchables) > 0 {
			clause := make([]string, 0, len(obj.Searchables))
			args := make([]interface{}, 0, len(obj.Searchables))
			for _, col := range obj.Searchables {
				clause = append(clause, col+" LIKE ?")
				args = append(args, "%"+kw+"%")
			}
			tx = tx.Where(strings.Join(clause, " OR "), args...)
		}
		if order := c.Query("order"); order != "" {
			col := strings.TrimPrefix(order, "-")
			for _, allowed := range obj.Orderables {
				if col == allowed {
					if strings.HasPrefix(order, "-") {
						tx = tx.Order(col + " DESC")
					} else {
						tx = tx.Order(col)
					}
					break
				}
			}
		}

		page := cast.ToInt(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		size := cast.ToInt(c.DefaultQuery("size", "20"))
		if size < 1 || size > 200 {
			size = 20
		}

		var total int64
		tx.Count(&total)

		items := newModelSlice(obj.Model)
		if err := tx.Offset((page - 1) * size).Limit(size).Find(items).Error; err != nil {
			response.FailWithCode(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		response.Success(c, "success", gin.H{"total": total, "page": page, "size": size, "items": items})
	}
}

func adminGet(db *gorm.DB, obj AdminObject) gin.HandlerFunc {
	return func(c *gin.Context) {
		item := newModel(obj.Model)
		if err := db.First(item, "id = ?", c.Param("id")).Error; err != nil {
			response.FailWithCode(c, http.StatusNotFound, "record not found", nil)
			return
		}
		response.Success(c, "success", item)
	}
}

func adminUpdate(db *gorm.DB, obj AdminObject) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.FailWithCode(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		// 仅接受白名单字段
		patch := map[string]interface{}{}
		for _, f := range obj.Editables {
			if v, ok := body[f]; ok {
				patch[f] = v
			}
		}
		if len(patch) == 0 {
			response.FailWithCode(c, http.StatusBadRequest, "no editable fields in payload", nil)
			return
		}
		item := newModel(obj.Model)
		if err := db.First(item, "id = ?", c.Param("id")).Error; err != nil {
			response.FailWithCode(c, http.StatusNotFound, "record not found", nil)
			return
		}
		if err := db.Model(item).Updates(patch).Error; err != nil {
			response.FailWithCode(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		response.Success(c, "success", item)
	}
}

func adminDelete(db *gorm.DB, obj AdminObject) gin.HandlerFunc {
	return func(c *gin.Context) {
		item := newModel(obj.Model)
		if err := db.First(item, "id = ?", c.Param("id")).Error; err != nil {
			response.FailWithCode(c, http.StatusNotFound, "record not found", nil)
			return
		}
		if err := db.Delete(item).Error; err != nil {
			response.FailWithCode(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		response.Success(c, "deleted", gin.H{"deleted": true})
	}
}
