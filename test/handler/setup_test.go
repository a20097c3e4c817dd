package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/filestore"
	"github.com/sealbox/sealbox/internal/handler"
	"github.com/sealbox/sealbox/internal/middleware"
	"github.com/sealbox/sealbox/internal/repo"
	"github.com/sealbox/sealbox/internal/service"
	"github.com/sealbox/sealbox/test/testutil"
)

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	fileRepo := repo.NewFileRepo(db)
	grantRepo := repo.NewGrantRepo(db)
	auditRepo := repo.NewAuditRepo(db)

	tmpDir, err := os.MkdirTemp("", "sealbox-store-*")
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	jwtSecret := []byte("test-secret")
	authService := service.NewAuthService(userRepo, jwtSecret, time.Hour)
	fileService := service.NewFileService(fileRepo, store)
	grantService := service.NewGrantService(grantRepo, fileRepo)
	auditService := service.NewAuditService(auditRepo)
	accessService := service.NewAccessService(grantService, fileService, auditService)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Files:         handler.NewFileHandler(fileService, 20*1024*1024),
		Grants:        handler.NewGrantHandler(grantService, auditService),
		Access:        handler.NewAccessHandler(accessService, fileService),
		JWTSecret:     jwtSecret,
		AnomalyWindow: time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		cleanup()
		_ = os.RemoveAll(tmpDir)
	}
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var parsed apiResponse
	if resp.Code == http.StatusOK && len(resp.Body.Bytes()) > 0 {
		_ = json.Unmarshal(resp.Body.Bytes(), &parsed)
	}
	return resp, parsed
}

func registerUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "super-secret-1",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func uploadFile(t *testing.T, router http.Handler, bearer, name, content string) string {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var parsed apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &parsed))
	var data struct {
		File struct {
			ID string `json:"id"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	require.NotEmpty(t, data.File.ID)
	return data.File.ID
}

type createdGrant struct {
	Grant struct {
		ID string `json:"id"`
	} `json:"grant"`
	Token string `json:"token"`
}

func createGrant(t *testing.T, router http.Handler, bearer, fileID string, policy map[string]interface{}, recipients []string) createdGrant {
	t.Helper()
	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/files/"+fileID+"/grants", bearer, map[string]interface{}{
		"recipients": recipients,
		"policy":     policy,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, parsed.Code, parsed.Msg)

	var data createdGrant
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	require.NotEmpty(t, data.Grant.ID)
	require.Len(t, data.Token, 40)
	return data
}

func resolveAccess(t *testing.T, router http.Handler, token string, body map[string]interface{}) (decision string, data map[string]interface{}) {
	t.Helper()
	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/public/access/"+token, "", body)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	decision, _ = data["decision"].(string)
	return decision, data
}
