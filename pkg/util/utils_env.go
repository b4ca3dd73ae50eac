package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// LoadEnv 按环境加载 .env 文件（如 .env.development），不存在时回退到 .env
func LoadEnv(env string) error {
	candidates := []string{".env." + env, ".env"}
	for _, name := range candidates {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, val, found := strings.Cut(line, "=")
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			val = strings.Trim(strings.TrimSpace(val), `"'`)
			if os.Getenv(key) == "" { // 已设置的环境变量优先
				os.Setenv(key, val)
			}
		}
		return scanner.Err()
	}
	return os.ErrNotExist
}

// GetEnv 读取字符串环境变量
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetIntEnv 读取整型环境变量，非法值返回 0
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv 读取布尔环境变量（true/1/yes）
func GetBoolEnv(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "yes" || v == "on" {
		return true
	}
	return cast.ToBool(v)
}
