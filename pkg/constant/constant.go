package constant

// gin.Context 中使用的键名
const (
	DbField     = "db"
	UserField   = "user"
	UserIDField = "user_id"
	LangField   = "lang"
)
