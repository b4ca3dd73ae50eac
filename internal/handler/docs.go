package handlers

import (
	"net/http"

	"Lifeline/pkg/config"
	"Lifeline/pkg/response"

	"github.com/gin-gonic/gin"
)

// UriDoc 单个接口的说明
type UriDoc struct {
	Group        string `json:"group"`
	Path         string `json:"path"`
	Method       string `json:"method"`
	AuthRequired bool   `json:"auth_required"`
	Desc         string `json:"desc"`
}

// GetDocs 路由一览，供 /system/docs 返回
func (h *Handlers) GetDocs() []UriDoc {
	prefix := config.GlobalConfig.APIPrefix
	auth := prefix + config.GlobalConfig.AuthPrefix

	uriDocs := []UriDoc{
		{Group: "User Authorization", Path: auth + "/register", Method: http.MethodPost, Desc: "Register with username, email and password"},
		{Group: "User Authorization", Path: auth + "/login", Method: http.MethodPost, Desc: "Sign in with username and password"},
		{Group: "User Authorization", Path: auth + "/logout", Method: http.MethodGet, AuthRequired: true, Desc: "Sign out the current session"},
		{Group: "User Authorization", Path: auth + "/info", Method: http.MethodGet, AuthRequired: true, Desc: "Current user profile and registered devices"},
		{Group: "User Authorization", Path: auth + "/devices", Method: http.MethodPut, AuthRequired: true, Desc: "Replace push device tokens"},

		{Group: "Contacts", Path: prefix + "/contacts", Method: http.MethodPost, AuthRequired: true, Desc: "Create an emergency contact"},
		{Group: "Contacts", Path: prefix + "/contacts", Method: http.MethodGet, AuthRequired: true, Desc: "List own contacts"},
		{Group: "Contacts", Path: prefix + "/contacts/:id", Method: http.MethodPut, AuthRequired: true, Desc: "Update an owned contact"},
		{Group: "Contacts", Path: prefix + "/contacts/:id", Method: http.MethodDelete, AuthRequired: true, Desc: "Delete an owned contact"},

		{Group: "Alerts", Path: prefix + "/alerts", Method: http.MethodPost, AuthRequired: true, Desc: "Raise an emergency alert (category: medical|fire|police|general)"},
		{Group: "Alerts", Path: prefix + "/alerts", Method: http.MethodGet, AuthRequired: true, Desc: "List own alerts; admins may pass ?all=true"},
		{Group: "Alerts", Path: prefix + "/alerts/:id", Method: http.MethodGet, AuthRequired: true, Desc: "Fetch a single alert"},
		{Group: "Alerts", Path: prefix + "/alerts/:id/message", Method: http.MethodPut, AuthRequired: true, Desc: "Edit the message before the alert is dispatched"},
		{Group: "Alerts", Path: prefix + "/alerts/:id/dispatch", Method: http.MethodPost, AuthRequired: true, Desc: "Fan the alert out across all applicable channels"},
		{Group: "Alerts", Path: prefix + "/alerts/:id/briefing", Method: http.MethodPost, AuthRequired: true, Desc: "Generate an incident briefing from the dispatch record"},
		{Group: "Alerts", Path: prefix + "/alerts/:id/status", Method: http.MethodPut, AuthRequired: true, Desc: "Admin only: advance alert status (never backwards)"},
		{Group: "Alerts", Path: prefix + "/alerts/search", Method: http.MethodGet, AuthRequired: true, Desc: "Full-text search across own alerts"},

		{Group: "Logs", Path: prefix + "/logs", Method: http.MethodGet, AuthRequired: true, Desc: "Read dispatch log entries, most recent first"},
		{Group: "Logs", Path: prefix + "/logs/statistics", Method: http.MethodGet, AuthRequired: true, Desc: "Counts by category and final status"},
		{Group: "Logs", Path: prefix + "/logs/export", Method: http.MethodGet, AuthRequired: true, Desc: "Admin only: export all entries as JSON"},

		{Group: "System", Path: prefix + "/system/health", Method: http.MethodGet, Desc: "Database health status"},
		{Group: "System", Path: prefix + "/system/docs", Method: http.MethodGet, Desc: "This route listing"},
	}

	return uriDocs
}

func (h *Handlers) handleDocs(c *gin.Context) {
	response.Success(c, "success", gin.H{"docs": h.GetDocs()})
}
