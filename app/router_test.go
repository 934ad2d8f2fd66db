package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"fashionai/avatar-api/config"
	"fashionai/avatar-api/db"
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.SetDefaults()
}

var unsafeDSN = regexp.MustCompile(`[^a-zA-Z0-9_]`)

type stubGenerator struct {
	png []byte
}

func (stubGenerator) Available(context.Context) error { return nil }

func (g stubGenerator) Generate(_ context.Context, p service.GenerationParams) ([]service.GeneratedView, error) {
	views := make([]service.GeneratedView, 0, len(service.AvatarViews))
	for _, v := range service.AvatarViews {
		views = append(views, service.GeneratedView{View: v, Image: g.png})
	}

	return views, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	return buf.Bytes()
}

func newTestEngine(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeDSN.ReplaceAllString(t.Name(), "_"))
	conn, err := db.New("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	tokens := security.NewTokenIssuer("test-secret")
	revoker := service.NewMemoryRevoker()
	gen := stubGenerator{png: pngBytes(t)}

	d := &internal.Deps{
		DB:      conn,
		Store:   store,
		Tokens:  tokens,
		Revoker: revoker,
		Auth: &service.Auth{
			DB:        conn,
			Argon:     security.NewLight(),
			Tokens:    tokens,
			Revoker:   revoker,
			ExposePIN: true,
		},
		Users:   &service.Users{DB: conn},
		Avatars: &service.Avatars{DB: conn, Store: store, OpenAI: gen, SDXL: gen, Timeout: time.Minute},
		Images:  &service.UserImages{DB: conn, Store: store},
		Chat: &service.Chat{
			DB:         conn,
			Store:      store,
			BaseURL:    "http://localhost:3001",
			Responders: service.DefaultResponders(),
		},
	}

	e := NewEngine(d, Options{
		CORSOrigins:  []string{"http://localhost:5173"},
		RateLimit:    1000,
		MaxBodyBytes: 25 << 20,
	})

	return e, d
}

func doJSON(t *testing.T, e http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func doMultipart(t *testing.T, e http.Handler, path, token string, fields map[string]string, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

// register signs up a user and returns its token
func register(t *testing.T, e http.Handler, email string) string {
	t.Helper()

	w := doJSON(t, e, http.MethodPost, "/api/user/register", "", gin.H{
		"name":     "Jane Doe",
		"email":    email,
		"password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]any)
	return data["token"].(string)
}

func TestHealth(t *testing.T) {
	e, _ := newTestEngine(t)

	w := doJSON(t, e, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decode(t, w)["status"])

	req := httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountFlow(t *testing.T) {
	e, _ := newTestEngine(t)

	w := doJSON(t, e, http.MethodPost, "/api/user/register", "", gin.H{
		"name":     "Jane Doe",
		"email":    "Jane@Example.com",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])
	assert.EqualValues(t, http.StatusCreated, body["statusCode"])

	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Nil(t, user["maleAvatarFilename"])

	w = doJSON(t, e, http.MethodPost, "/api/user/login", "", gin.H{
		"email":    "jane@example.com",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "Login successful", body["message"])
	token := body["data"].(map[string]any)["token"].(string)

	w = doJSON(t, e, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Profile retrieved successfully", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodPut, "/api/user/profile", token, gin.H{"name": "  Janet  "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Janet", updated["name"])

	w = doJSON(t, e, http.MethodPut, "/api/user/profile", token, gin.H{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name is required", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode(t, w)["data"].(map[string]any)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["totalLogins"])
	assert.NotNil(t, stats["lastLogin"])
}

func TestRegisterValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	w := doJSON(t, e, http.MethodPost, "/api/user/register", "", gin.H{
		"name":     "J",
		"email":    "not-an-email",
		"password": "weakpass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation Error", body["message"])
	assert.Len(t, body["errors"], 3)

	register(t, e, "dup@example.com")
	w = doJSON(t, e, http.MethodPost, "/api/user/register", "", gin.H{
		"name":     "Jane Doe",
		"email":    "DUP@example.com",
		"password": "Secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e, _ := newTestEngine(t)
	register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodPost, "/api/user/login", "", gin.H{
		"email":    "jane@example.com",
		"password": "Wrong1234",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodPost, "/api/user/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "Wrong1234",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// otherPIN returns a six digit PIN guaranteed to differ from pin
func otherPIN(pin string) string {
	last := (pin[5]-'0'+1)%10 + '0'
	return pin[:5] + string(last)
}

func TestPINFlow(t *testing.T) {
	e, _ := newTestEngine(t)
	register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodPost, "/api/user/generate-pin", "", gin.H{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "PIN generated successfully", body["message"])
	issue := body["data"].(map[string]any)
	assert.EqualValues(t, 10, issue["expiresIn"])
	pin := issue["demoPin"].(string)
	require.Len(t, pin, 6)

	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": otherPIN(pin)})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid PIN. 2 attempts remaining.", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": "12ab56"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation Error", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": pin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "PIN verified successfully", body["message"])
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])

	// The PIN is single use
	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": pin})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No PIN found. Please generate a PIN first.", decode(t, w)["message"])
}

func TestPINLockout(t *testing.T) {
	e, _ := newTestEngine(t)
	register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodPost, "/api/user/generate-pin", "", gin.H{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	pin := decode(t, w)["data"].(map[string]any)["demoPin"].(string)
	wrong := otherPIN(pin)

	for range 2 {
		w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": wrong})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": wrong})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Invalid PIN. Account locked for 15 minutes due to multiple failed attempts.", decode(t, w)["message"])

	// Even the right PIN is refused while locked
	w = doJSON(t, e, http.MethodPost, "/api/user/verify-pin", "", gin.H{"email": "jane@example.com", "pin": pin})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "PIN verification is locked. Try again in 15 minutes.", decode(t, w)["message"])
}

func TestLogoutRevokesToken(t *testing.T) {
	e, _ := newTestEngine(t)
	token := register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodPost, "/api/user/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Logged out successfully", decode(t, w)["message"])
	assert.Equal(t, "true", w.Header().Get("X-Logout-Complete"))
	assert.NotEmpty(t, w.Header().Values("Set-Cookie"))

	w = doJSON(t, e, http.MethodGet, "/api/user/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, path := range []string{"/api/user/profile", "/api/dashboard", "/api/avatars", "/api/user-images", "/api/ai/sessions"} {
		w := doJSON(t, e, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := doJSON(t, e, http.MethodGet, "/api/dashboard", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAvatarRoutes(t *testing.T) {
	e, _ := newTestEngine(t)
	token := register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodPost, "/api/generate-avatar", token, gin.H{"gender": "female"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gin.H{"success": false, "error": "gender and skinTone are required"}, gin.H(decode(t, w)))

	w = doJSON(t, e, http.MethodPost, "/api/generate-avatar", token, gin.H{"gender": "female", "skinTone": "medium", "provider": "midjourney"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, e, http.MethodPost, "/api/generate-avatar", token, gin.H{"gender": "female", "skinTone": "medium", "provider": "sdxl"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	avatarID := body["avatarId"].(string)
	images := body["images"].([]any)
	require.Len(t, images, len(service.AvatarViews))

	first := images[0].(map[string]any)
	assert.True(t, strings.HasPrefix(first["imageDataUrl"].(string), "data:image/png;base64,"))
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "sdxl", meta["provider"])
	assert.EqualValues(t, len(service.AvatarViews), meta["viewsGenerated"])

	// The stored file is served back
	w = doJSON(t, e, http.MethodGet, first["url"].(string), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = doJSON(t, e, http.MethodGet, "/api/avatars", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["avatars"], 1)

	w = doJSON(t, e, http.MethodGet, "/api/avatars/"+avatarID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, avatarID, decode(t, w)["avatar"].(map[string]any)["id"])

	// Other users can't see it
	other := register(t, e, "john@example.com")
	w = doJSON(t, e, http.MethodGet, "/api/avatars/"+avatarID, other, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Avatar not found", decode(t, w)["error"])
}

func TestUserImageRoutes(t *testing.T) {
	e, _ := newTestEngine(t)
	token := register(t, e, "jane@example.com")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))

	w := doJSON(t, e, http.MethodPost, "/api/user-images", token, gin.H{"imageDataUrl": dataURL, "gender": "female"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)
	filename := first["filename"].(string)
	imageID := first["image"].(map[string]any)["id"].(string)

	w = doMultipart(t, e, "/api/user-images/upload-file", token, map[string]string{"gender": "male"}, "image", "me.png", pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(decode(t, w)["url"].(string), "/uploads/user/"))

	// Both upload paths respect the quota
	w = doJSON(t, e, http.MethodPost, "/api/user-images/upload", token, gin.H{"imageDataUrl": dataURL})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image limit (2) reached", decode(t, w)["error"])

	w = doMultipart(t, e, "/api/user-images/upload-file", token, nil, "image", "me.png", pngBytes(t))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image limit (2) reached", decode(t, w)["error"])

	w = doJSON(t, e, http.MethodGet, "/api/user-images", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Len(t, list["images"], 2)
	assert.Contains(t, list, "grouped")

	w = doJSON(t, e, http.MethodGet, "/api/user-images?gender=female", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode(t, w)
	assert.Len(t, list["images"], 1)
	assert.NotContains(t, list, "grouped")

	w = doJSON(t, e, http.MethodPost, "/api/user-images/attach", token, gin.H{"filename": filename, "gender": "female"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, filename, user["femaleAvatarFilename"])

	w = doJSON(t, e, http.MethodPost, "/api/user-images/attach", token, gin.H{"filename": filename})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "gender is required (male|female)", decode(t, w)["error"])

	w = doJSON(t, e, http.MethodDelete, "/api/user-images/"+imageID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, imageID, decode(t, w)["deletedId"])

	w = doJSON(t, e, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["data"].(map[string]any)["user"].(map[string]any)
	assert.Nil(t, profile["femaleAvatarFilename"])

	w = doJSON(t, e, http.MethodDelete, "/api/user-images/"+imageID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRoutes(t *testing.T) {
	e, _ := newTestEngine(t)
	token := register(t, e, "jane@example.com")

	w := doJSON(t, e, http.MethodGet, "/api/ai/models", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["models"], len(service.SupportedModels))

	w = doJSON(t, e, http.MethodPost, "/api/ai/sessions", token, gin.H{"name": "Outfits"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gin.H{"error": "Name and model are required"}, gin.H(decode(t, w)))

	w = doJSON(t, e, http.MethodPost, "/api/ai/sessions", token, gin.H{"name": "Outfits", "model": "gpt-4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID := decode(t, w)["id"].(string)

	w = doJSON(t, e, http.MethodPost, "/api/ai/sessions/"+sessionID+"/message", token, gin.H{"content": "What should I wear?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode(t, w)
	assert.Equal(t, "assistant", reply["message"].(map[string]any)["role"])
	assert.Len(t, reply["session"].(map[string]any)["messages"], 2)

	w = doJSON(t, e, http.MethodPut, "/api/ai/sessions/"+sessionID, token, gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed", decode(t, w)["name"])

	w = doJSON(t, e, http.MethodGet, "/api/ai/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessions"], 1)

	w = doJSON(t, e, http.MethodDelete, "/api/ai/sessions/"+sessionID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Session deleted successfully", decode(t, w)["message"])

	w = doJSON(t, e, http.MethodDelete, "/api/ai/sessions/"+sessionID, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", decode(t, w)["error"])
}

func TestChatMessageWithFiles(t *testing.T) {
	e, _ := newTestEngine(t)
	token := register(t, e, "jane@example.com")

	w := doMultipart(t, e, "/api/ai/message", token, map[string]string{"message": "Rate this look"}, "files", "look.png", pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	reply := decode(t, w)
	assert.Equal(t, service.DefaultChatModel, reply["model"])
	images := reply["uploadedImages"].([]any)
	require.Len(t, images, 1)
	assert.True(t, strings.HasPrefix(images[0].(map[string]any)["url"].(string), "http://localhost:3001/uploads/chat/"))
	assert.Empty(t, reply["uploadedAttachments"])

	w = doJSON(t, e, http.MethodPost, "/api/ai/message", token, gin.H{"model": "gpt-4"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message is required", decode(t, w)["error"])

	w = doMultipart(t, e, "/api/ai/upload/attachment", token, nil, "attachment", "notes.exe", []byte("MZ"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type", decode(t, w)["error"])

	w = doMultipart(t, e, "/api/ai/upload/image", token, nil, "", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No image file provided", decode(t, w)["error"])
}

func TestFileServeRejectsTraversal(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, path := range []string{"/uploads/../database.db", "/uploads/secrets/key.pem", "/uploads/avatars/missing.png"} {
		w := doJSON(t, e, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestNewDepsWithoutOpenAIKey(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		config.SetDefaults()
	})

	viper.Set("database.dsn", "file:new_deps?mode=memory&cache=shared")
	viper.Set("storage.root", t.TempDir())
	viper.Set("openai.api_key", "")

	d, err := NewDeps()
	require.NoError(t, err)
	require.NotNil(t, d.Avatars.OpenAI)

	_, err = d.Avatars.Generate(context.Background(), service.GenerateRequest{UserID: "u1", Gender: "female", SkinTone: "fair-cool"})

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.ServiceUnavailable, ae.Kind)
	assert.Equal(t, "OpenAI API key not configured", ae.Message)
}
