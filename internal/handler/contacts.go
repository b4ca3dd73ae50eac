package handlers

import (
	"net/http"
	"strconv"

	"Lifeline/internal/models"
	"Lifeline/pkg/errors"
	"Lifeline/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContactRequest 联系人创建/更新请求体
type ContactRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Relation string `json:"relation"`
	Priority int    `json:"priority"`
	Address  string `json:"address"`
}

func (h *Handlers) handleCreateContact(context *gin.Context) {
	var req ContactRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(context)
	contact := &models.Contact{
		UserID:   user.ID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Relation: req.Relation,
		Priority: req.Priority,
		Address:  req.Address,
	}
	if err := models.CreateContact(h.db, contact); err != nil {
		response.Fail(context, errors.GetMessage(err), nil)
		return
	}
	response.Success(context, "contact created", gin.H{"contact": contact})
}

func (h *Handlers) handleListContacts(context *gin.Context) {
	user := models.CurrentUser(context)
	contacts, err := models.ListContactsByUser(h.db, user.ID)
	if err != nil {
		response.Fail(context, err.Error(), nil)
		return
	}
	response.Success(context, "success", gin.H{"contacts": contacts})
}

// loadOwnedContact 取联系人并校验归属
func (h *Handlers) loadOwnedContact(context *gin.Context) (*models.Contact, bool) {
	id, err := strconv.ParseUint(context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithCode(context, http.StatusBadRequest, "invalid contact id", nil)
		return nil, false
	}
	contact, err := models.GetContactByID(h.db, uint(id))
	if err != nil {
		response.FailWithCode(context, http.StatusNotFound, errors.GetMessage(err), nil)
		return nil, false
	}
	user := models.CurrentUser(context)
	if contact.UserID != user.ID && !user.IsAdmin {
		response.FailWithCode(context, http.StatusForbidden, "contact belongs to another user", nil)
		return nil, false
	}
	return contact, true
}

func (h *Handlers) handleGetContact(context *gin.Context) {
	contact, ok := h.loadOwnedContact(context)
	if !ok {
		return
	}
	response.Success(context, "success", gin.H{"contact": contact})
}

func (h *Handlers) handleUpdateContact(context *gin.Context) {
	contact, ok := h.loadOwnedContact(context)
	if !ok {
		return
	}
	var req ContactRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contact.Name = req.Name
	contact.Phone = req.Phone
	contact.Email = req.Email
	contact.Relation = req.Relation
	contact.Priority = req.Priority
	contact.Address = req.Address
	if err := models.UpdateContact(h.db, contact); err != nil {
		response.Fail(context, errors.GetMessage(err), nil)
		return
	}
	response.Success(context, "contact updated", gin.H{"contact": contact})
}

func (h *Handlers) handleDeleteContact(context *gin.Context) {
	contact, ok := h.loadOwnedContact(context)
	if !ok {
		return
	}
	if err := models.DeleteContact(h.db, contact.ID); err != nil {
		response.Fail(context, err.Error(), nil)
		return
	}
	response.Success(context, "contact deleted", nil)
}
