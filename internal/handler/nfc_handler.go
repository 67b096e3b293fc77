package handler

import (
	"net/http"
	"strings"
	"time"

	"card-service/internal/model"
	"card-service/pkg/database"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegisterNfcTag binds a physical tag UID to one of the caller's employee
// cards
func RegisterNfcTag(c echo.Context) error {
	log := logger.FromContext(c)

	_, role, callerCompany := callerScope(c)

	var req struct {
		UID            string `json:"uid" form:"uid"`
		EmployeeCardID string `json:"employee_card_id" form:"employee_card_id"`
	}
	if err := c.Bind(&req); err != nil || req.UID == "" || req.EmployeeCardID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "uid and employee_card_id are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var card model.EmployeeCard
	if result := database.GetDB().First(&card, "id = ?", req.EmployeeCardID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "employee card not found"})
	}
	if !authorizedForCompany(role, callerCompany, card.ResolveCompanyID()) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	tag := model.NfcTag{
		ID:             uuid.New().String(),
		UID:            strings.TrimSpace(req.UID),
		CompanyID:      card.ResolveCompanyID(),
		EmployeeCardID: card.ID,
		Active:         true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tag); result.Error != nil {
		log.Error("Failed to register tag", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "tag already registered"})
	}

	log.Info("NFC tag registered",
		zap.String("uid", tag.UID),
		zap.String("card_id", card.ID))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "tag": tag})
}

// ListNfcTags returns the caller's company tags
func ListNfcTags(c echo.Context) error {
	_, role, callerCompany := callerScope(c)

	target := c.QueryParam("company_id")
	if target == "" {
		target = callerCompany
	}
	if !authorizedForCompany(role, callerCompany, target) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tags []model.NfcTag
	if result := database.GetDB().Where("company_id = ?", target).Order("created_at DESC").Find(&tags); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to list tags: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "tags": tags})
}

// DeactivateNfcTag turns a tag off without unbinding it, for lost or retired
// tags
func DeactivateNfcTag(c echo.Context) error {
	log := logger.FromContext(c)

	_, role, callerCompany := callerScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tag model.NfcTag
	if result := database.GetDB().First(&tag, "id = ?", c.Param("tag_id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "tag not found"})
	}
	if !authorizedForCompany(role, callerCompany, tag.CompanyID) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&tag).Update("active", false); result.Error != nil {
		log.Error("Failed to deactivate tag", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to deactivate tag: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "tag": tag})
}
