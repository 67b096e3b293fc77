package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"card-service/internal/locale"
	"card-service/internal/model"
	"card-service/internal/vcard"
	"card-service/pkg/database"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// requestLocale returns the locale the middleware resolved for this request
func requestLocale(c echo.Context) string {
	if code, ok := c.Get("locale").(string); ok && code != "" {
		return code
	}
	return locale.Default
}

// localeInfo is the locale block attached to public page responses
func localeInfo(code string) echo.Map {
	dir := "ltr"
	if locale.IsRTL(code) {
		dir = "rtl"
	}
	return echo.Map{"code": code, "dir": dir, "rtl": locale.IsRTL(code)}
}

// localized picks the translation for a locale, falling back to the base value
func localized(base string, translations map[string]string, code string) string {
	if v, ok := translations[code]; ok && v != "" {
		return v
	}
	return base
}

// recordEvent writes an analytics event without blocking the response. The
// request context is not reused because the write outlives the request.
func recordEvent(card *model.EmployeeCard, eventType, localeCode, userAgent string) {
	event := model.AnalyticsEvent{
		ID:        uuid.New().String(),
		CompanyID: card.ResolveCompanyID(),
		CardID:    card.ID,
		EventType: eventType,
		Locale:    localeCode,
		UserAgent: userAgent,
	}
	go func() {
		if result := database.GetDB().Create(&event); result.Error != nil {
			logger.GetLogger().Warn("Failed to record analytics event",
				zap.String("event_type", eventType),
				zap.Error(result.Error))
		}
	}()
}

// findPublicCard resolves an active card by slug. Missing and deactivated
// cards are indistinguishable to visitors.
func findPublicCard(c echo.Context) (*model.EmployeeCard, bool) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var card model.EmployeeCard
	result := database.GetDB().First(&card, "public_slug = ? AND is_active = ?", c.Param("slug"), true)
	if result.Error != nil {
		return nil, false
	}
	return &card, true
}

// PublicCard renders a card's public profile. The company join and the service
// carousel load concurrently; a broken company join degrades the page rather
// than failing it.
func PublicCard(c echo.Context) error {
	log := logger.FromContext(c)
	code := requestLocale(c)

	card, ok := findPublicCard(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "card not found"})
	}

	prometheus.CardViewCounter.With(promclient.Labels{"locale": code}).Inc()

	companyID := card.ResolveCompanyID()
	var (
		wg       sync.WaitGroup
		company  *model.Company
		services []model.CompanyService
	)
	if companyID != "" {
		wg.Add(2)
		go func() {
			defer wg.Done()
			var co model.Company
			if result := database.GetDB().First(&co, "id = ?", companyID); result.Error != nil {
				log.Warn("Card has broken company join",
					zap.String("card_id", card.ID),
					zap.String("company_id", companyID))
				return
			}
			company = &co
		}()
		go func() {
			defer wg.Done()
			database.GetDB().
				Where("company_id = ?", companyID).
				Order("display_order ASC, created_at ASC").
				Find(&services)
		}()
		wg.Wait()
	}

	recordEvent(card, "card_view", code, c.Request().UserAgent())

	resp := echo.Map{
		"success": true,
		"card":    card,
		"title":   localized(card.Theme.Title, card.Theme.TitleI18n, code),
		"locale":  localeInfo(code),
	}
	if company != nil {
		resp["company"] = company
		resp["company_description"] = localized(company.Description, company.DescriptionI18n, code)
	}
	if len(services) > 0 {
		translated := make([]echo.Map, 0, len(services))
		for _, s := range services {
			translated = append(translated, echo.Map{
				"id":          s.ID,
				"title":       localized(s.Title, s.TitleI18n, code),
				"description": localized(s.Description, s.DescriptionI18n, code),
				"icon":        s.Icon,
			})
		}
		resp["services"] = translated
	}

	return c.JSON(http.StatusOK, resp)
}

// CardManifest serves a per-card PWA manifest so a saved card installs under
// the employee's own name
func CardManifest(c echo.Context) error {
	card, ok := findPublicCard(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "card not found"})
	}

	code := requestLocale(c)
	return c.JSON(http.StatusOK, echo.Map{
		"name":             card.Theme.Name,
		"short_name":       card.Theme.Name,
		"start_url":        "/" + code + "/card/" + card.PublicSlug,
		"display":          "standalone",
		"background_color": "#ffffff",
		"theme_color":      "#ffffff",
		"icons": []echo.Map{
			{"src": card.PhotoURL, "sizes": "512x512", "type": "image/png"},
		},
	})
}

// extensionMIME maps stored photo file extensions back to their MIME type for
// the vCard PHOTO parameter
var extensionMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// CardVCard exports a card as a downloadable .vcf contact. Photos stored by
// this service are inlined base64; anything else falls back to the URL.
func CardVCard(c echo.Context) error {
	log := logger.FromContext(c)
	code := requestLocale(c)

	card, ok := findPublicCard(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "card not found"})
	}

	prometheus.VCardExportCounter.Inc()

	var company *model.Company
	if companyID := card.ResolveCompanyID(); companyID != "" {
		var co model.Company
		if result := database.GetDB().First(&co, "id = ?", companyID); result.Error == nil {
			company = &co
		}
	}

	// Inline the photo when it lives in our own store
	var photo []byte
	var photoMIME string
	if resolver, ok := photos.(interface{ URLToPath(string) (string, bool) }); ok {
		if path, ok := resolver.URLToPath(card.PhotoURL); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("Stored photo unreadable, falling back to URL", zap.Error(err))
			} else {
				photo = data
				photoMIME = extensionMIME[strings.ToLower(filepath.Ext(path))]
			}
		}
	}

	recordEvent(card, "vcard_download", code, c.Request().UserAgent())

	body := vcard.Build(card, company, photo, photoMIME)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+card.PublicSlug+`.vcf"`)
	return c.Blob(http.StatusOK, "text/vcard; charset=utf-8", []byte(body))
}

// NfcResolve redirects a scanned tag to its card's public page. Inactive tags
// and tags pointing at deactivated cards both return the public 404.
func NfcResolve(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tag model.NfcTag
	if result := database.GetDB().First(&tag, "uid = ? AND active = ?", c.Param("uid"), true); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "tag not found"})
	}

	var card model.EmployeeCard
	if result := database.GetDB().First(&card, "id = ? AND is_active = ?", tag.EmployeeCardID, true); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "tag not found"})
	}

	return c.Redirect(http.StatusFound, "/"+locale.Default+"/card/"+card.PublicSlug)
}

// Home serves the locale-prefixed landing page payload
func Home(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"page":    "home",
		"locale":  localeInfo(requestLocale(c)),
		"locales": locale.Supported(),
	})
}

// Signin serves the signin page payload
func Signin(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"page":     "signin",
		"locale":   localeInfo(requestLocale(c)),
		"redirect": c.QueryParam("redirect"),
	})
}

// Signup serves the signup page payload
func Signup(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"page":    "signup",
		"locale":  localeInfo(requestLocale(c)),
	})
}

// Dashboard serves the role dashboard payload. RoleGate has already verified
// the session and role before this runs.
func Dashboard(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("user_role").(string)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"page":    "dashboard",
		"role":    role,
		"user_id": userID,
		"locale":  localeInfo(requestLocale(c)),
	})
}
