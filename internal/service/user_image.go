package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/metrics"
	"fashionai/avatar-api/pkg/util"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MaxImagesPerUser = 2

var errImageQuota = apperr.Newf(apperr.Validation, "Image limit (%d) reached", MaxImagesPerUser)

// UserImages manages the reference photos a user can attach to their
// male and female avatar slots
type UserImages struct {
	DB    *gorm.DB
	Store storage.Storage
	Now   func() time.Time
}

type UploadedImage struct {
	Filename string          `json:"filename"`
	URL      string          `json:"url"`
	Image    model.UserImage `json:"image"`
}

type ImageList struct {
	Images  []model.UserImage `json:"images"`
	Grouped *GroupedImages    `json:"grouped,omitempty"`
}

type GroupedImages struct {
	Male   []model.UserImage `json:"male"`
	Female []model.UserImage `json:"female"`
}

func (s *UserImages) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

func normalizeGender(g string) (*string, error) {
	g = strings.ToLower(strings.TrimSpace(g))

	switch g {
	case "":
		return nil, nil
	case "male", "female":
		return &g, nil
	default:
		return nil, apperr.New(apperr.Validation, "gender must be male or female")
	}
}

func (s *UserImages) checkQuota(ctx context.Context, userID string) error {
	var count int64

	err := s.DB.WithContext(ctx).Model(&model.UserImage{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count user images, %w", err)
	}

	if count >= MaxImagesPerUser {
		return errImageQuota
	}

	return nil
}

// Upload stores an inline base64 image. The stored file is always a png
// name, whatever the actual encoding.
func (s *UserImages) Upload(ctx context.Context, userID, dataURL, imageType, gender string) (*UploadedImage, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthorized, "Authentication required")
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(dataURL) == "" {
		return nil, apperr.New(apperr.Validation, "imageDataUrl is required")
	}

	switch imageType {
	case "":
		imageType = model.ImageTypeOriginal
	case model.ImageTypeOriginal, model.ImageTypeCropped:
	default:
		return nil, apperr.New(apperr.Validation, "type must be original or cropped")
	}

	g, err := normalizeGender(gender)
	if err != nil {
		return nil, err
	}

	data, err := util.DecodeImageDataURL(dataURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "imageDataUrl is not valid base64 image data", err)
	}

	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return nil, apperr.New(apperr.Validation, "Only image uploads are allowed")
	}

	return s.store(ctx, userID, uuid.NewString()+".png", data, imageType, g)
}

// UploadFile stores a multipart image. The extension of the original
// name is kept, .png when it has none.
func (s *UserImages) UploadFile(ctx context.Context, userID string, fh *multipart.FileHeader, gender string) (*UploadedImage, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthorized, "Authentication required")
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	if fh == nil {
		return nil, apperr.New(apperr.Validation, "image file is required (field name: image)")
	}

	g, err := normalizeGender(gender)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file, %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file, %w", err)
	}

	// Sniff the content, the client supplied header can't be trusted
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return nil, apperr.New(apperr.Validation, "Only image uploads are allowed")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = ".png"
	}

	return s.store(ctx, userID, uuid.NewString()+ext, data, model.ImageTypeOriginal, g)
}

func (s *UserImages) store(ctx context.Context, userID, filename string, data []byte, imageType string, gender *string) (*UploadedImage, error) {
	key, err := storage.Key(storage.UserDir, filename)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "Invalid file name", err)
	}

	if err := s.Store.Save(ctx, key, data, mimetype.Detect(data).String()); err != nil {
		return nil, fmt.Errorf("failed to store user image, %w", err)
	}

	img := model.UserImage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		URL:       storage.PublicURL(key),
		Type:      imageType,
		Size:      int64(len(data)),
		Gender:    gender,
		CreatedAt: s.now(),
	}

	if err := s.DB.WithContext(ctx).Create(&img).Error; err != nil {
		if derr := s.Store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			zap.L().Warn("Failed to remove orphaned user image", zap.Error(derr), zap.String("key", key))
		}

		return nil, fmt.Errorf("failed to save user image, %w", err)
	}

	metrics.UserImages.WithLabelValues("upload").Inc()

	return &UploadedImage{Filename: filename, URL: img.URL, Image: img}, nil
}

// Attach points the user's gender slot at one of their images. An image
// sits in at most one slot, so the other slot is cleared if it held the
// same file.
func (s *UserImages) Attach(ctx context.Context, userID, filename, gender string) (*model.UserPayload, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthorized, "Authentication required")
	}

	if filename == "" {
		return nil, apperr.New(apperr.Validation, "filename is required")
	}

	var img model.UserImage
	err := s.DB.WithContext(ctx).Where("user_id = ? AND filename = ?", userID, filename).First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Image not found for this user")
		}

		return nil, fmt.Errorf("failed to look up user image, %w", err)
	}

	slot, other := "", ""
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		slot, other = "male_avatar_filename", "female_avatar_filename"
	case "female":
		slot, other = "female_avatar_filename", "male_avatar_filename"
	default:
		return nil, apperr.New(apperr.Validation, "gender is required (male|female)")
	}

	var u model.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				slot:      filename,
				"version": gorm.Expr("version + ?", 1),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "User not found")
		}

		err := tx.Model(&model.User{}).
			Where("id = ? AND "+other+" = ?", userID, filename).
			Update(other, nil).
			Error
		if err != nil {
			return err
		}

		return tx.Where("id = ?", userID).First(&u).Error
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}

		return nil, fmt.Errorf("failed to attach user image, %w", err)
	}

	metrics.UserImages.WithLabelValues("attach").Inc()

	p := u.Payload()
	return &p, nil
}

// Delete removes the image, its file and any slot that pointed at it.
// A file that's already gone is not an error.
func (s *UserImages) Delete(ctx context.Context, userID, imageID string) error {
	if userID == "" {
		return apperr.New(apperr.Unauthorized, "Authentication required")
	}

	var img model.UserImage
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", imageID, userID).First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Image not found")
		}

		return fmt.Errorf("failed to look up user image, %w", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&img).Error; err != nil {
			return err
		}

		for _, col := range []string{"male_avatar_filename", "female_avatar_filename"} {
			err := tx.Model(&model.User{}).
				Where("id = ? AND "+col+" = ?", userID, img.Filename).
				Updates(map[string]any{
					col:       nil,
					"version": gorm.Expr("version + ?", 1),
				}).
				Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user image, %w", err)
	}

	// The row is gone, a leftover file is only wasted space
	if key, err := storage.Key(storage.UserDir, img.Filename); err == nil {
		if err := s.Store.Delete(ctx, key); err != nil {
			zap.L().Warn("Failed to remove user image file", zap.Error(err), zap.String("key", key))
		}
	}

	metrics.UserImages.WithLabelValues("delete").Inc()
	return nil
}

// List returns the user's images newest first. Without a gender filter
// the result is also split into male and female groups.
func (s *UserImages) List(ctx context.Context, userID, gender string) (*ImageList, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthorized, "Authentication required")
	}

	g, err := normalizeGender(gender)
	if err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if g != nil {
		q = q.Where("gender = ?", *g)
	}

	images := []model.UserImage{}
	if err := q.Order("created_at desc").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list user images, %w", err)
	}

	out := &ImageList{Images: images}
	if g != nil {
		return out, nil
	}

	out.Grouped = &GroupedImages{Male: []model.UserImage{}, Female: []model.UserImage{}}
	for _, img := range images {
		if img.Gender == nil {
			continue
		}

		switch *img.Gender {
		case "male":
			out.Grouped.Male = append(out.Grouped.Male, img)
		case "female":
			out.Grouped.Female = append(out.Grouped.Female, img)
		}
	}

	return out, nil
}
