package service

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"regexp"
	"sync"
	"testing"
	"time"

	"fashionai/avatar-api/db"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/security"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var unsafeDSN = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// newTestDB opens a migrated in-memory database private to the test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeDSN.ReplaceAllString(t.Name(), "_"))
	conn, err := db.New("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return conn
}

func newTestStore(t *testing.T) *storage.Local {
	t.Helper()

	l, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	return l
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestAuth(t *testing.T, clock *fakeClock) *Auth {
	t.Helper()

	return &Auth{
		DB:        newTestDB(t),
		Argon:     security.NewLight(),
		Tokens:    security.NewTokenIssuer("test-secret").WithClock(clock.Now),
		Revoker:   NewMemoryRevoker(),
		ExposePIN: true,
		Now:       clock.Now,
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, kind, ae.Kind, ae.Message)
	if msg != "" {
		require.Equal(t, msg, ae.Message)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	return buf.Bytes()
}

// fileHeader builds a multipart file header the way net/http would
// hand it to a handler
func fileHeader(t *testing.T, field, name string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	require.Len(t, form.File[field], 1)
	return form.File[field][0]
}
