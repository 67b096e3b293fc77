package handler

import (
	"net/http"
	"strings"
	"time"

	"card-service/internal/model"
	"card-service/internal/ratelimit"
	"card-service/internal/validate"
	"card-service/pkg/database"
	"card-service/pkg/jwtutil"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user account. New users start as employees without a
// company; a super admin assigns them to a tenant afterwards.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	// Field-level validation; errors attach to fields, they are never thrown
	fieldErrors := echo.Map{}
	if !validate.IsValidName(req.FirstName) {
		fieldErrors["first_name"] = "must contain at least 3 letters and no digits or symbols"
	}
	if !validate.IsValidName(req.LastName) {
		fieldErrors["last_name"] = "must contain at least 3 letters and no digits or symbols"
	}
	if !validate.IsAllowedEmail(req.Email, cfg.Email.AllowedDomains) {
		fieldErrors["email"] = "email must belong to a corporate domain"
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = "password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		prometheus.RecordAuthError("invalid_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrors})
	}

	email := strings.ToLower(req.Email)

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	if result := database.GetDB().Where("email = ?", email).First(&existingUser); result.Error == nil {
		log.Warn("User already exists", zap.String("email", email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "registration failed"})
	}

	user := model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Password:  string(hashedPassword),
		Role:      model.RoleEmployee,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Login authenticates a user and issues the session token, both as a cookie
// and in the response body. The failure message never says which of email or
// password was wrong.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Credential checks are rate limited per identifier before anything is
	// looked up
	res, err := limiter.Check(c.Request().Context(), ratelimit.ClassAuth, "login:"+email)
	if err != nil {
		log.Error("Rate limit check failed", zap.Error(err))
	} else if !res.Allowed {
		prometheus.RecordAuthError("rate_limited")
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"success":    false,
			"error":      "Too many failed attempts, try again later",
			"reset_time": res.ResetTime,
		})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", email).First(&user)
	if result.Error != nil {
		if cfg.Server.IsDevelopment() {
			log.Warn("User not found", zap.String("email", email))
		}
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Invalid email or password"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		if cfg.Server.IsDevelopment() {
			log.Warn("Invalid password", zap.String("email", email))
		}
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Invalid email or password"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role, user.CompanyID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "token error"})
	}

	c.SetCookie(&http.Cookie{
		Name:     cfg.JWT.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !cfg.Server.IsDevelopment(),
		MaxAge:   cfg.JWT.ExpirationHours * 3600,
	})

	log.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user": echo.Map{
			"id":         user.ID,
			"email":      user.Email,
			"role":       user.Role,
			"company_id": user.CompanyID,
		},
	})
}

// Logout clears the session cookie
func Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     cfg.JWT.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ReverifyPassword re-checks the authenticated user's password ahead of a
// destructive action. Any client-side lockout counter is advisory; this
// endpoint and the delete handler are the authoritative gate.
func ReverifyPassword(c echo.Context) error {
	log := logger.FromContext(c)

	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "authentication required"})
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	allowed, res, err := checkReverifyLimit(c, userID)
	if err != nil {
		log.Error("Rate limit check failed", zap.Error(err))
	} else if !allowed {
		prometheus.RecordAuthError("rate_limited")
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"success":    false,
			"error":      "Too many failed attempts, try again later",
			"reset_time": res.ResetTime,
		})
	}

	if !verifyPassword(c, userID, req.Password) {
		prometheus.RecordAuthError("reverify_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success":   false,
			"error":     "Invalid password",
			"remaining": res.Remaining,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// checkReverifyLimit applies the auth rate limit class to reverification
// attempts for a user
func checkReverifyLimit(c echo.Context, userID string) (bool, ratelimit.Result, error) {
	res, err := limiter.Check(c.Request().Context(), ratelimit.ClassAuth, "reverify:"+userID)
	if err != nil {
		return true, ratelimit.Result{}, err
	}
	return res.Allowed, res, nil
}

// verifyPassword compares the supplied password against the stored hash
func verifyPassword(c echo.Context, userID, password string) bool {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, "id = ?", userID); result.Error != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// GetProfile returns the authenticated user's record
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	userID, _ := c.Get("user_id").(string)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, "id = ?", userID); result.Error != nil {
		log.Error("User not found", zap.String("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}
