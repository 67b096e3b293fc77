package handler

import (
	"net/http"
	"strings"
	"time"

	"card-service/internal/model"
	"card-service/internal/slug"
	"card-service/internal/validate"
	"card-service/pkg/database"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// resolveTargetCompany decides which tenant a company-scoped request acts on.
// Company admins are pinned to their own tenant; super admins may name any via
// the :id param.
func resolveTargetCompany(c echo.Context) (string, bool) {
	_, role, callerCompany := callerScope(c)

	target := c.Param("id")
	if target == "" {
		target = callerCompany
	}
	if !authorizedForCompany(role, callerCompany, target) {
		return "", false
	}
	return target, true
}

// GetCompany returns a tenant's profile
func GetCompany(c echo.Context) error {
	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var company model.Company
	if result := database.GetDB().First(&company, "id = ?", target); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "company not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "company": company})
}

// UpdateCompany applies a partial update to a tenant profile. Only supplied
// fields change.
func UpdateCompany(c echo.Context) error {
	log := logger.FromContext(c)

	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var company model.Company
	if result := database.GetDB().First(&company, "id = ?", target); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "company not found"})
	}

	form, _ := c.FormParams()
	has := func(field string) bool { _, ok := form[field]; return ok }

	fieldErrors := echo.Map{}

	if has("name") {
		name := strings.TrimSpace(c.FormValue("name"))
		if name == "" {
			fieldErrors["name"] = "name cannot be empty"
		} else {
			company.Name = name
		}
	}
	if has("description") {
		company.Description = strings.TrimSpace(c.FormValue("description"))
	}
	if has("description_i18n") {
		m, err := parseJSONMapField(c, "description_i18n")
		if err != nil {
			fieldErrors["description_i18n"] = err.Error()
		} else {
			company.DescriptionI18n = m
		}
	}
	if has("website") {
		company.Website = strings.TrimSpace(c.FormValue("website"))
	}
	if has("email") {
		company.Email = strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	}
	if has("phone") {
		phone := validate.NormalizePhone(c.FormValue("phone"))
		if phone != "" && !validate.IsValidPhoneForCountry(phone) {
			fieldErrors["phone"] = "must be a valid international phone number"
		} else {
			company.Phone = phone
		}
	}
	if has("logo_url") {
		company.LogoURL = strings.TrimSpace(c.FormValue("logo_url"))
	}
	if has("banner_url") {
		company.BannerURL = strings.TrimSpace(c.FormValue("banner_url"))
	}
	if has("social_links") {
		m, err := parseJSONMapField(c, "social_links")
		if err != nil {
			fieldErrors["social_links"] = err.Error()
		} else {
			company.SocialLinks = m
		}
	}
	if has("business_hours") {
		h, err := parseBusinessHoursField(c, "business_hours")
		if err != nil {
			fieldErrors["business_hours"] = err.Error()
		} else {
			company.BusinessHours = h
		}
	}

	if len(fieldErrors) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrors})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&company); result.Error != nil {
		log.Error("Failed to update company", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to update company: " + result.Error.Error()})
	}

	log.Info("Company updated", zap.String("company_id", company.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "company": company})
}

// CreateCompany provisions a new tenant. Super admin only, enforced at the
// route level; the slug is derived from the name like card slugs are.
func CreateCompany(c echo.Context) error {
	log := logger.FromContext(c)

	_, role, _ := callerScope(c)
	if role != model.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	var req struct {
		Name        string `json:"name" form:"name"`
		Plan        string `json:"plan" form:"plan"`
		Description string `json:"description" form:"description"`
		Website     string `json:"website" form:"website"`
		Email       string `json:"email" form:"email"`
		Phone       string `json:"phone" form:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": echo.Map{"name": "name cannot be empty"}})
	}

	companySlugExists := func(s string) (bool, error) {
		var count int64
		if err := database.GetDB().Model(&model.Company{}).Where("slug = ?", s).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
	companySlug, err := slug.Unique(slug.Generate(name), companySlugExists)
	if err != nil {
		log.Error("Slug resolution failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to create company: " + err.Error()})
	}

	plan := req.Plan
	if plan == "" {
		plan = "free"
	}

	company := model.Company{
		ID:                 uuid.New().String(),
		Name:               name,
		Slug:               companySlug,
		Plan:               plan,
		SubscriptionStatus: "active",
		Description:        strings.TrimSpace(req.Description),
		Website:            strings.TrimSpace(req.Website),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:              validate.NormalizePhone(req.Phone),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&company); result.Error != nil {
		log.Error("Failed to create company", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to create company: " + result.Error.Error()})
	}

	log.Info("Company created", zap.String("company_id", company.ID), zap.String("slug", company.Slug))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "company": company})
}

// ListCompanies returns all tenants. Super admin only.
func ListCompanies(c echo.Context) error {
	_, role, _ := callerScope(c)
	if role != model.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var companies []model.Company
	if result := database.GetDB().Order("created_at DESC").Find(&companies); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to list companies: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "companies": companies})
}

// AssignUserToCompany attaches a registered user to a tenant with a role.
// Super admin only.
func AssignUserToCompany(c echo.Context) error {
	log := logger.FromContext(c)

	_, role, _ := callerScope(c)
	if role != model.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	var req struct {
		UserID    string `json:"user_id" form:"user_id"`
		CompanyID string `json:"company_id" form:"company_id"`
		Role      string `json:"role" form:"role"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.CompanyID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "user_id and company_id are required"})
	}
	if req.Role != "" && req.Role != model.RoleCompanyAdmin && req.Role != model.RoleEmployee {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": echo.Map{"role": "must be company_admin or employee"}})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var company model.Company
	if result := database.GetDB().First(&company, "id = ?", req.CompanyID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "company not found"})
	}

	var user model.User
	if result := database.GetDB().First(&user, "id = ?", req.UserID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "user not found"})
	}

	user.CompanyID = &company.ID
	if req.Role != "" {
		user.Role = req.Role
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&user).Select("company_id", "role").Updates(&user); result.Error != nil {
		log.Error("Failed to assign user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to assign user: " + result.Error.Error()})
	}

	log.Info("User assigned to company",
		zap.String("user_id", user.ID),
		zap.String("company_id", company.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// CompanyAnalytics aggregates card interactions for a tenant, grouped by card
// and event type
func CompanyAnalytics(c echo.Context) error {
	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	type bucket struct {
		CardID    string `json:"card_id"`
		EventType string `json:"event_type"`
		Count     int64  `json:"count"`
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var buckets []bucket
	result := database.GetDB().Model(&model.AnalyticsEvent{}).
		Select("card_id, event_type, COUNT(*) AS count").
		Where("company_id = ?", target).
		Group("card_id, event_type").
		Scan(&buckets)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to load analytics: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "events": buckets})
}

// ListCompanyServices returns the tenant's service tiles in display order
func ListCompanyServices(c echo.Context) error {
	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var services []model.CompanyService
	result := database.GetDB().
		Where("company_id = ?", target).
		Order("display_order ASC, created_at ASC").
		Find(&services)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to list services: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "services": services})
}

// CreateCompanyService adds a service tile to the tenant's carousel
func CreateCompanyService(c echo.Context) error {
	log := logger.FromContext(c)

	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": echo.Map{"title": "title cannot be empty"}})
	}

	fieldErrors := echo.Map{}
	titleI18n, err := parseJSONMapField(c, "title_i18n")
	if err != nil {
		fieldErrors["title_i18n"] = err.Error()
	}
	descriptionI18n, err := parseJSONMapField(c, "description_i18n")
	if err != nil {
		fieldErrors["description_i18n"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrors})
	}

	// New tiles go to the end of the carousel
	defer prometheus.TrackDBOperation("query")(time.Now())
	var maxOrder int
	database.GetDB().Model(&model.CompanyService{}).
		Where("company_id = ?", target).
		Select("COALESCE(MAX(display_order), -1)").
		Scan(&maxOrder)

	service := model.CompanyService{
		ID:              uuid.New().String(),
		CompanyID:       target,
		Title:           title,
		Description:     strings.TrimSpace(c.FormValue("description")),
		TitleI18n:       titleI18n,
		DescriptionI18n: descriptionI18n,
		Icon:            strings.TrimSpace(c.FormValue("icon")),
		DisplayOrder:    maxOrder + 1,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&service); result.Error != nil {
		log.Error("Failed to create service", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to create service: " + result.Error.Error()})
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "service": service})
}

// loadServiceAuthorized fetches a service tile and verifies tenant ownership
func loadServiceAuthorized(c echo.Context) (*model.CompanyService, int, string) {
	_, role, callerCompany := callerScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var service model.CompanyService
	if result := database.GetDB().First(&service, "id = ?", c.Param("service_id")); result.Error != nil {
		return nil, http.StatusNotFound, "service not found"
	}
	if !authorizedForCompany(role, callerCompany, service.CompanyID) {
		return nil, http.StatusForbidden, unauthorizedMsg
	}
	return &service, 0, ""
}

// UpdateCompanyService applies a partial update to a service tile
func UpdateCompanyService(c echo.Context) error {
	log := logger.FromContext(c)

	service, code, msg := loadServiceAuthorized(c)
	if service == nil {
		return c.JSON(code, echo.Map{"success": false, "error": msg})
	}

	form, _ := c.FormParams()
	has := func(field string) bool { _, ok := form[field]; return ok }

	fieldErrors := echo.Map{}
	if has("title") {
		title := strings.TrimSpace(c.FormValue("title"))
		if title == "" {
			fieldErrors["title"] = "title cannot be empty"
		} else {
			service.Title = title
		}
	}
	if has("description") {
		service.Description = strings.TrimSpace(c.FormValue("description"))
	}
	if has("title_i18n") {
		m, err := parseJSONMapField(c, "title_i18n")
		if err != nil {
			fieldErrors["title_i18n"] = err.Error()
		} else {
			service.TitleI18n = m
		}
	}
	if has("description_i18n") {
		m, err := parseJSONMapField(c, "description_i18n")
		if err != nil {
			fieldErrors["description_i18n"] = err.Error()
		} else {
			service.DescriptionI18n = m
		}
	}
	if has("icon") {
		service.Icon = strings.TrimSpace(c.FormValue("icon"))
	}

	if len(fieldErrors) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrors})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(service); result.Error != nil {
		log.Error("Failed to update service", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to update service: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "service": service})
}

// DeleteCompanyService soft-deletes a service tile
func DeleteCompanyService(c echo.Context) error {
	log := logger.FromContext(c)

	service, code, msg := loadServiceAuthorized(c)
	if service == nil {
		return c.JSON(code, echo.Map{"success": false, "error": msg})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(service); result.Error != nil {
		log.Error("Failed to delete service", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to delete service: " + result.Error.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ReorderCompanyServices rewrites display_order from an ordered id list
func ReorderCompanyServices(c echo.Context) error {
	log := logger.FromContext(c)

	target, ok := resolveTargetCompany(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": unauthorizedMsg})
	}

	var req struct {
		ServiceIDs []string `json:"service_ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.ServiceIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "service_ids is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	for order, id := range req.ServiceIDs {
		result := database.GetDB().Model(&model.CompanyService{}).
			Where("id = ? AND company_id = ?", id, target).
			Update("display_order", order)
		if result.Error != nil {
			log.Error("Failed to reorder services", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to reorder services: " + result.Error.Error()})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
