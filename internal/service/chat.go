package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxChatFileSize     = 10 << 20
	MaxChatFilesPerSend = 10

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var chatExtensions = []string{
	".jpeg", ".jpg", ".png", ".gif", ".webp",
	".pdf", ".doc", ".docx", ".txt", ".csv", ".xlsx",
}

// Chat stores AI chat sessions and answers messages with mock responders
type Chat struct {
	DB    *gorm.DB
	Store storage.Storage
	// Absolute prefix for upload URLs, e.g. http://localhost:3001
	BaseURL    string
	Responders map[string]Responder
	Now        func() time.Time
}

type SessionUpdate struct {
	Name     *string            `json:"name"`
	Model    *string            `json:"model"`
	Messages *[]model.AIMessage `json:"messages"`
}

type MessageInput struct {
	Message     string
	Model       string
	Images      []model.FileRef
	Attachments []model.FileRef
}

type MessageReply struct {
	Message             string          `json:"message"`
	Model               string          `json:"model"`
	Timestamp           time.Time       `json:"timestamp"`
	UploadedImages      []model.FileRef `json:"uploadedImages"`
	UploadedAttachments []model.FileRef `json:"uploadedAttachments"`
}

type SessionReply struct {
	Message model.AIMessage `json:"message"`
	Session model.AISession `json:"session"`
}

func (s *Chat) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// Models lists the models clients may pick
func (s *Chat) Models() []string {
	out := make([]string, 0, len(s.Responders))
	for _, m := range SupportedModels {
		if _, ok := s.Responders[m]; ok {
			out = append(out, m)
		}
	}

	return out
}

func (s *Chat) checkModel(m string) error {
	if _, ok := s.Responders[m]; !ok {
		return apperr.Newf(apperr.Validation, "Unsupported AI model: %s", m)
	}

	return nil
}

func (s *Chat) responder(m string) Responder {
	if r, ok := s.Responders[m]; ok {
		return r
	}

	return genericResponder
}

func messagesByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (s *Chat) ListSessions(ctx context.Context, userID string) ([]model.AISession, error) {
	sessions := []model.AISession{}

	err := s.DB.WithContext(ctx).
		Preload("Messages", messagesByPosition).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&sessions).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions, %w", err)
	}

	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []model.AIMessage{}
		}
	}

	return sessions, nil
}

func (s *Chat) getSession(ctx context.Context, db *gorm.DB, userID, sessionID string) (*model.AISession, error) {
	var sess model.AISession

	err := db.WithContext(ctx).
		Preload("Messages", messagesByPosition).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&sess).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Session not found")
		}

		return nil, fmt.Errorf("failed to fetch session, %w", err)
	}

	if sess.Messages == nil {
		sess.Messages = []model.AIMessage{}
	}

	return &sess, nil
}

func (s *Chat) CreateSession(ctx context.Context, userID, name, modelID string) (*model.AISession, error) {
	name = strings.TrimSpace(name)
	if name == "" || modelID == "" {
		return nil, apperr.New(apperr.Validation, "Name and model are required")
	}

	if err := s.checkModel(modelID); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.AISession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Model:     modelID,
		Messages:  []model.AIMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.DB.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session, %w", err)
	}

	return sess, nil
}

// UpdateSession changes whatever fields are present. Messages replace
// the whole history.
func (s *Chat) UpdateSession(ctx context.Context, userID, sessionID string, up SessionUpdate) (*model.AISession, error) {
	if up.Model != nil && *up.Model != "" {
		if err := s.checkModel(*up.Model); err != nil {
			return nil, err
		}
	}

	var out *model.AISession
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := s.getSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}

		updates := map[string]any{"updated_at": s.now()}
		if up.Name != nil && strings.TrimSpace(*up.Name) != "" {
			updates["name"] = strings.TrimSpace(*up.Name)
		}
		if up.Model != nil && *up.Model != "" {
			updates["model"] = *up.Model
		}

		if err := tx.Model(&model.AISession{}).Where("id = ?", sess.ID).Updates(updates).Error; err != nil {
			return err
		}

		if up.Messages != nil {
			if err := tx.Where("session_id = ?", sess.ID).Delete(&model.AIMessage{}).Error; err != nil {
				return err
			}

			if err := s.insertMessages(tx, sess.ID, 0, *up.Messages); err != nil {
				return err
			}
		}

		out, err = s.getSession(ctx, tx, userID, sessionID)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}

		return nil, fmt.Errorf("failed to update session, %w", err)
	}

	return out, nil
}

func (s *Chat) insertMessages(tx *gorm.DB, sessionID string, start int, msgs []model.AIMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]model.AIMessage, len(msgs))
	for i, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = s.now()
		}
		if m.Role != RoleAssistant {
			m.Role = RoleUser
		}

		m.SessionID = sessionID
		m.Position = start + i
		rows[i] = m
	}

	return tx.Create(&rows).Error
}

func (s *Chat) DeleteSession(ctx context.Context, userID, sessionID string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.AISession{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete session, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "Session not found")
	}

	// sqlite only cascades with foreign keys enabled
	err := s.DB.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.AIMessage{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session messages, %w", err)
	}

	return nil
}

// SaveUpload stores a chat upload under chat/ and returns its reference.
// With imageOnly set anything that doesn't sniff as an image is refused.
func (s *Chat) SaveUpload(ctx context.Context, field string, fh *multipart.FileHeader, imageOnly bool) (*model.FileRef, error) {
	if fh.Size > MaxChatFileSize {
		return nil, apperr.New(apperr.Validation, "File too large, the limit is 10MB")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(chatExtensions, ext) {
		return nil, apperr.New(apperr.Validation, "Invalid file type")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file, %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxChatFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file, %w", err)
	}

	if len(data) > MaxChatFileSize {
		return nil, apperr.New(apperr.Validation, "File too large, the limit is 10MB")
	}

	mime := mimetype.Detect(data).String()
	if imageOnly && !isImageMIME(mime) {
		return nil, apperr.New(apperr.Validation, "File must be an image")
	}

	name := fmt.Sprintf("%s-%d-%d%s", field, s.now().UnixMilli(), rand.IntN(1e9), ext)
	key, err := storage.Key(storage.ChatDir, name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "Invalid file name", err)
	}

	if err := s.Store.Save(ctx, key, data, mime); err != nil {
		return nil, fmt.Errorf("failed to store chat upload, %w", err)
	}

	return &model.FileRef{
		ID:       uuid.NewString(),
		URL:      strings.TrimRight(s.BaseURL, "/") + storage.PublicURL(key),
		Filename: fh.Filename,
		Size:     int64(len(data)),
		MimeType: mime,
	}, nil
}

func isImageMIME(m string) bool {
	return strings.HasPrefix(m, "image/")
}

// SplitUploads stores every file and sorts them into images and
// attachments by content type
func (s *Chat) SplitUploads(ctx context.Context, files []*multipart.FileHeader) (images, attachments []model.FileRef, err error) {
	if len(files) > MaxChatFilesPerSend {
		return nil, nil, apperr.Newf(apperr.Validation, "Too many files, at most %d per message", MaxChatFilesPerSend)
	}

	images, attachments = []model.FileRef{}, []model.FileRef{}
	for _, fh := range files {
		ref, err := s.SaveUpload(ctx, "files", fh, false)
		if err != nil {
			return nil, nil, err
		}

		if isImageMIME(ref.MimeType) {
			images = append(images, *ref)
		} else {
			attachments = append(attachments, *ref)
		}
	}

	return images, attachments, nil
}

// SendMessage answers a single message without storing anything
func (s *Chat) SendMessage(ctx context.Context, in MessageInput) (*MessageReply, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperr.New(apperr.Validation, "Message is required")
	}

	if in.Model == "" {
		in.Model = DefaultChatModel
	}

	if err := s.checkModel(in.Model); err != nil {
		return nil, err
	}

	reply, err := s.responder(in.Model).Respond(ctx, in.Message, len(in.Images), len(in.Attachments))
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply, %w", err)
	}

	return &MessageReply{
		Message:             reply,
		Model:               in.Model,
		Timestamp:           s.now(),
		UploadedImages:      nonNil(in.Images),
		UploadedAttachments: nonNil(in.Attachments),
	}, nil
}

// SendSessionMessage appends the user message and the assistant reply
// to the session history
func (s *Chat) SendSessionMessage(ctx context.Context, userID, sessionID string, in MessageInput) (*SessionReply, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperr.New(apperr.Validation, "Message is required")
	}

	var out SessionReply
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := s.getSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}

		reply, err := s.responder(sess.Model).Respond(ctx, in.Message, len(in.Images), len(in.Attachments))
		if err != nil {
			return err
		}

		now := s.now()
		msgs := []model.AIMessage{
			{
				Role:        RoleUser,
				Content:     in.Message,
				Images:      in.Images,
				Attachments: in.Attachments,
				Timestamp:   now,
			},
			{
				Role:      RoleAssistant,
				Content:   reply,
				Timestamp: now,
			},
		}

		if err := s.insertMessages(tx, sess.ID, len(sess.Messages), msgs); err != nil {
			return err
		}

		if err := tx.Model(&model.AISession{}).Where("id = ?", sess.ID).Update("updated_at", now).Error; err != nil {
			return err
		}

		updated, err := s.getSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}

		out.Session = *updated
		out.Message = updated.Messages[len(updated.Messages)-1]
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}

		return nil, fmt.Errorf("failed to send message, %w", err)
	}

	return &out, nil
}

func nonNil(refs []model.FileRef) []model.FileRef {
	if refs == nil {
		return []model.FileRef{}
	}

	return refs
}
