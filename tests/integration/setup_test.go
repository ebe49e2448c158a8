package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"moneybook/internal/logger"
	"moneybook/internal/money"
	"moneybook/internal/server"
	"moneybook/internal/services"
	"moneybook/internal/testutil"
	"moneybook/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	gateway := services.NewGateway(db, services.GatewayOptions{
		Provider:  "sqlite",
		JWTSecret: "integration-secret",
	})

	router := server.NewRouter(server.Options{
		Gateway:       gateway,
		Audit:         services.NewAuditService(db),
		Formatter:     money.NewFormatter("en-US"),
		Provider:      "sqlite",
		AuthRateLimit: 1000,
	})

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode returns error.code of an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"display_name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["access_token"].(string)
}

// mustCreate posts body to path, expects 201 and returns the object under key.
func (app *testApp) mustCreate(t *testing.T, path, body, token, key string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
	}
	obj, ok := parseJSON(t, rec)[key].(map[string]interface{})
	if !ok {
		t.Fatalf("POST %s: missing %q in %s", path, key, rec.Body.String())
	}
	return obj
}

// balances returns the derived balance of every account keyed by name.
func (app *testApp) balances(t *testing.T, token string) map[string]float64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: %d %s", rec.Code, rec.Body.String())
	}
	out := map[string]float64{}
	for _, raw := range parseJSON(t, rec)["accounts"].([]interface{}) {
		acc := raw.(map[string]interface{})
		out[acc["name"].(string)] = acc["balance"].(float64)
	}
	return out
}
