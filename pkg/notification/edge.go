package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Lifeline/pkg/errors"
)

// EdgeFunctionConfig 下游通知函数客户端配置
type EdgeFunctionConfig struct {
	BaseURL   string // 如 http://127.0.0.1:8000
	SecretKey string // 与服务端一致的签名密钥
	Timeout   time.Duration
}

// EdgeFunction 调用下游 notify-contacts 函数的客户端。
// 请求以告警所有者身份发出，经 HMAC 签名防伪造。
type EdgeFunction struct {
	cfg EdgeFunctionConfig
	cli *http.Client
}

func NewEdgeFunction(cfg EdgeFunctionConfig) *EdgeFunction {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &EdgeFunction{cfg: cfg, cli: &http.Client{Timeout: cfg.Timeout}}
}

// NotifyContactsPath 函数路由，客户端与服务端共用
const NotifyContactsPath = "/functions/notify-contacts"

type notifyRequest struct {
	AlertID string `json:"alertId"`
}

type notifyResponse struct {
	Success          bool   `json:"success"`
	ContactsNotified int    `json:"contactsNotified"`
	Error            string `json:"error"`
}

// SignPayload 计算函数调用签名：method + path + body + timestamp + userID
func SignPayload(secret, method, path, body, timestamp, userID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + path + body + timestamp + userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// NotifyContacts 以 userID 身份调用下游函数。
// 401/403 被映射为带业务码的错误，调用方可与投递失败区分。
func (e *EdgeFunction) NotifyContacts(ctx context.Context, alertID string, userID uint) (success bool, contactsNotified int, err error) {
	payload, err := json.Marshal(notifyRequest{AlertID: alertID})
	if err != nil {
		return false, 0, err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uid := strconv.FormatUint(uint64(userID), 10)
	url := fmt.Sprintf("%s%s?timestamp=%s", e.cfg.BaseURL, NotifyContactsPath, timestamp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", uid)
	req.Header.Set("Signature", SignPayload(e.cfg.SecretKey, http.MethodPost, NotifyContactsPath, string(payload), timestamp, uid))

	resp, err := e.cli.Do(req)
	if err != nil {
		return false, 0, errors.Wrap(err, "invoke downstream notifier")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return false, 0, errors.WithCode(errors.CodeUnauthorized, "downstream notifier: unauthenticated")
	case http.StatusForbidden:
		return false, 0, errors.WithCode(errors.CodeForbidden, "downstream notifier: alert not owned by caller")
	}

	var body notifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, 0, errors.Wrap(err, "decode notifier response")
	}
	if resp.StatusCode != http.StatusOK {
		return false, 0, errors.WithCodef(errors.CodeInternal, "downstream notifier status %d: %s", resp.StatusCode, body.Error)
	}
	return body.Success, body.ContactsNotified, nil
}
