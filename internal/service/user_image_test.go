package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestImages(t *testing.T) (*UserImages, string) {
	t.Helper()

	clock := newClock()
	a := newTestAuth(t, clock)
	reg := register(t, a, "jane@example.com")

	return &UserImages{DB: a.DB, Store: newTestStore(t), Now: clock.Now}, reg.User.ID
}

func TestUserImageUpload(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()
	data := pngBytes(t)

	up, err := s.Upload(ctx, userID, util.PNGDataURL(data), "", "female")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f-]{36}\.png$`, up.Filename)
	assert.Equal(t, "/uploads/user/"+up.Filename, up.Image.URL)
	assert.Equal(t, model.ImageTypeOriginal, up.Image.Type)
	assert.EqualValues(t, len(data), up.Image.Size)
	require.NotNil(t, up.Image.Gender)
	assert.Equal(t, "female", *up.Image.Gender)

	stored, err := s.Store.Read(ctx, "user/"+up.Filename)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUserImageUploadValidation(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "", "x", "", "")
	requireKind(t, err, apperr.Unauthorized, "Authentication required")

	_, err = s.Upload(ctx, userID, "", "", "")
	requireKind(t, err, apperr.Validation, "imageDataUrl is required")

	_, err = s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "thumbnail", "")
	requireKind(t, err, apperr.Validation, "type must be original or cropped")

	_, err = s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "other")
	requireKind(t, err, apperr.Validation, "gender must be male or female")

	_, err = s.Upload(ctx, userID, "data:image/png;base64,%%%", "", "")
	requireKind(t, err, apperr.Validation, "")

	_, err = s.Upload(ctx, userID, util.PNGDataURL([]byte("just some text")), "", "")
	requireKind(t, err, apperr.Validation, "Only image uploads are allowed")
}

func TestUserImageQuotaAppliesToBothPaths(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()
	data := pngBytes(t)

	_, err := s.Upload(ctx, userID, util.PNGDataURL(data), model.ImageTypeCropped, "male")
	require.NoError(t, err)

	_, err = s.UploadFile(ctx, userID, fileHeader(t, "image", "me.jpg", data), "female")
	require.NoError(t, err)

	_, err = s.Upload(ctx, userID, util.PNGDataURL(data), "", "")
	requireKind(t, err, apperr.Validation, "Image limit (2) reached")

	_, err = s.UploadFile(ctx, userID, fileHeader(t, "image", "me.png", data), "")
	requireKind(t, err, apperr.Validation, "Image limit (2) reached")
}

func TestUserImageUploadFile(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	up, err := s.UploadFile(ctx, userID, fileHeader(t, "image", "Portrait.JPG", pngBytes(t)), "")
	require.NoError(t, err)
	assert.Regexp(t, `\.jpg$`, up.Filename)
	assert.Equal(t, "/uploads/user/"+up.Filename, up.URL)
	assert.Nil(t, up.Image.Gender)

	up, err = s.UploadFile(ctx, userID, fileHeader(t, "image", "noext", pngBytes(t)), "")
	require.NoError(t, err)
	assert.Regexp(t, `\.png$`, up.Filename)
}

func TestUserImageUploadFileRejectsNonImages(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	_, err := s.UploadFile(ctx, userID, nil, "")
	requireKind(t, err, apperr.Validation, "image file is required (field name: image)")

	// The name says image, the content doesn't
	_, err = s.UploadFile(ctx, userID, fileHeader(t, "image", "fake.png", []byte("%PDF-1.4 not an image")), "")
	requireKind(t, err, apperr.Validation, "Only image uploads are allowed")
}

func TestUserImageAttach(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	up, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "")
	require.NoError(t, err)

	_, err = s.Attach(ctx, userID, "", "male")
	requireKind(t, err, apperr.Validation, "filename is required")

	_, err = s.Attach(ctx, userID, "missing.png", "male")
	requireKind(t, err, apperr.NotFound, "Image not found for this user")

	_, err = s.Attach(ctx, userID, up.Filename, "")
	requireKind(t, err, apperr.Validation, "gender is required (male|female)")

	_, err = s.Attach(ctx, "someone-else", up.Filename, "male")
	requireKind(t, err, apperr.NotFound, "Image not found for this user")

	p, err := s.Attach(ctx, userID, up.Filename, "male")
	require.NoError(t, err)
	require.NotNil(t, p.MaleAvatarFilename)
	assert.Equal(t, up.Filename, *p.MaleAvatarFilename)
	assert.Nil(t, p.FemaleAvatarFilename)

	// Moving the image to the other slot frees the first one
	p, err = s.Attach(ctx, userID, up.Filename, "female")
	require.NoError(t, err)
	assert.Nil(t, p.MaleAvatarFilename)
	require.NotNil(t, p.FemaleAvatarFilename)
	assert.Equal(t, up.Filename, *p.FemaleAvatarFilename)
}

func TestUserImageDelete(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	kept, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "female")
	require.NoError(t, err)
	gone, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "male")
	require.NoError(t, err)

	_, err = s.Attach(ctx, userID, kept.Filename, "female")
	require.NoError(t, err)
	_, err = s.Attach(ctx, userID, gone.Filename, "male")
	require.NoError(t, err)

	err = s.Delete(ctx, "someone-else", gone.Image.ID)
	requireKind(t, err, apperr.NotFound, "Image not found")

	// A file that vanished on its own doesn't block the delete
	require.NoError(t, s.Store.Delete(ctx, "user/"+gone.Filename))
	require.NoError(t, s.Delete(ctx, userID, gone.Image.ID))

	var u model.User
	require.NoError(t, s.DB.First(&u, "id = ?", userID).Error)
	assert.Nil(t, u.MaleAvatarFilename)
	require.NotNil(t, u.FemaleAvatarFilename)
	assert.Equal(t, kept.Filename, *u.FemaleAvatarFilename)

	err = s.Delete(ctx, userID, gone.Image.ID)
	requireKind(t, err, apperr.NotFound, "Image not found")

	// The freed quota slot can be used again
	_, err = s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "")
	assert.NoError(t, err)
}

func TestUserImageDeleteKeepsFileWhenRowSurvives(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()

	up, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "male")
	require.NoError(t, err)
	_, err = s.Attach(ctx, userID, up.Filename, "male")
	require.NoError(t, err)

	require.NoError(t, s.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		tx.AddError(errors.New("database is locked"))
	}))

	require.Error(t, s.Delete(ctx, userID, up.Image.ID))

	// Row, slot and file all still agree
	var u model.User
	require.NoError(t, s.DB.First(&u, "id = ?", userID).Error)
	require.NotNil(t, u.MaleAvatarFilename)
	assert.Equal(t, up.Filename, *u.MaleAvatarFilename)

	_, err = s.Store.Read(ctx, "user/"+up.Filename)
	require.NoError(t, err)

	require.NoError(t, s.DB.Callback().Delete().Remove("test:fail_delete"))
	require.NoError(t, s.Delete(ctx, userID, up.Image.ID))

	_, err = s.Store.Read(ctx, "user/"+up.Filename)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserImageList(t *testing.T) {
	s, userID := newTestImages(t)
	ctx := context.Background()
	clock := newClock()
	s.Now = clock.Now

	male, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "male")
	require.NoError(t, err)

	clock.Advance(time.Second)
	female, err := s.Upload(ctx, userID, util.PNGDataURL(pngBytes(t)), "", "female")
	require.NoError(t, err)

	all, err := s.List(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, all.Images, 2)
	assert.Equal(t, female.Image.ID, all.Images[0].ID)
	require.NotNil(t, all.Grouped)
	require.Len(t, all.Grouped.Male, 1)
	assert.Equal(t, male.Image.ID, all.Grouped.Male[0].ID)
	require.Len(t, all.Grouped.Female, 1)

	filtered, err := s.List(ctx, userID, "female")
	require.NoError(t, err)
	require.Len(t, filtered.Images, 1)
	assert.Equal(t, female.Image.ID, filtered.Images[0].ID)
	assert.Nil(t, filtered.Grouped)

	empty, err := s.List(ctx, "nobody", "")
	require.NoError(t, err)
	assert.Empty(t, empty.Images)
	assert.NotNil(t, empty.Images)
}
