package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/middleware"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/model/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "bom-engine-jwt-secret-key-2025"

// SetupTestDB opens an isolated in-memory sqlite database and migrates
// the BOM tables. Each test gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Single connection keeps the in-memory database alive for the test.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&entity.Item{},
		&entity.ItemPrice{},
		&entity.BOMEdge{},
	); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "bom-engine",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		"Test Admin",
		"admin@test.com",
		[]string{"erp_admin"},
	)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedItem creates a test item
func SeedItem(t *testing.T, db *gorm.DB, id, code, name, itemType string) *entity.Item {
	t.Helper()
	item := &entity.Item{
		ID:        id,
		Code:      code,
		Name:      name,
		Unit:      "EA",
		ItemType:  itemType,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item %s: %v", code, err)
	}
	return item
}

// SeedInactiveItem creates a deactivated test item
func SeedInactiveItem(t *testing.T, db *gorm.DB, id, code, name string) *entity.Item {
	t.Helper()
	item := SeedItem(t, db, id, code, name, "material")
	if err := db.Model(item).Update("is_active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate item %s: %v", code, err)
	}
	item.IsActive = false
	return item
}

// SeedEdge creates an active BOM edge directly, bypassing validation
func SeedEdge(t *testing.T, db *gorm.DB, id, parentID, childID string, quantity float64) *entity.BOMEdge {
	t.Helper()
	edge := &entity.BOMEdge{
		ID:               id,
		ParentItemID:     parentID,
		ChildItemID:      childID,
		QuantityRequired: quantity,
		LevelNo:          1,
		IsActive:         true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := db.Create(edge).Error; err != nil {
		t.Fatalf("Failed to seed edge %s: %v", id, err)
	}
	return edge
}

// SeedPrice creates a price record effective at the given date
func SeedPrice(t *testing.T, db *gorm.DB, itemID string, unitPrice float64, effective time.Time) *entity.ItemPrice {
	t.Helper()
	price := &entity.ItemPrice{
		ID:            fmt.Sprintf("price-%s-%d", itemID, effective.UnixNano()),
		ItemID:        itemID,
		UnitPrice:     unitPrice,
		Currency:      "KRW",
		EffectiveDate: effective,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(price).Error; err != nil {
		t.Fatalf("Failed to seed price for %s: %v", itemID, err)
	}
	return price
}
