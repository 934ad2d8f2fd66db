package ai

import (
	"net/http"
	"strings"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type messageBody struct {
	Message     string          `json:"message"`
	Content     string          `json:"content"`
	Model       string          `json:"model"`
	Images      []model.FileRef `json:"images"`
	Attachments []model.FileRef `json:"attachments"`
}

func (b *messageBody) text() string {
	if b.Message != "" {
		return b.Message
	}

	return b.Content
}

// readMessage accepts either a JSON body or a multipart form. Form files
// under "files" are stored and sorted into images and attachments,
// otherwise "images" and "attachments" may carry JSON encoded refs.
func readMessage(c *gin.Context, d *internal.Deps) (*service.MessageInput, error) {
	var body messageBody

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, errInvalidBody
		}

		return &service.MessageInput{
			Message:     body.text(),
			Model:       body.Model,
			Images:      body.Images,
			Attachments: body.Attachments,
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, errInvalidBody
	}

	body.Message = c.PostForm("message")
	body.Content = c.PostForm("content")
	body.Model = c.PostForm("model")

	in := &service.MessageInput{Message: body.text(), Model: body.Model}

	if files := form.File["files"]; len(files) > 0 {
		in.Images, in.Attachments, err = d.Chat.SplitUploads(c.Request.Context(), files)
		if err != nil {
			return nil, err
		}

		return in, nil
	}

	// Malformed refs are dropped rather than failing the message
	if raw := c.PostForm("images"); raw != "" {
		if err := binding.JSON.BindBody([]byte(raw), &in.Images); err != nil {
			zap.L().Debug("Ignoring malformed images field", zap.Error(err))
			in.Images = nil
		}
	}
	if raw := c.PostForm("attachments"); raw != "" {
		if err := binding.JSON.BindBody([]byte(raw), &in.Attachments); err != nil {
			zap.L().Debug("Ignoring malformed attachments field", zap.Error(err))
			in.Attachments = nil
		}
	}

	return in, nil
}

// SendMessage answers a one-off message outside of any session
func SendMessage(c *gin.Context, d *internal.Deps) {
	in, err := readMessage(c, d)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	reply, err := d.Chat.SendMessage(c.Request.Context(), *in)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// SendSessionMessage appends a message and its reply to a session. The
// session's own model answers, any model in the body is ignored.
func SendSessionMessage(c *gin.Context, d *internal.Deps) {
	in, err := readMessage(c, d)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	reply, err := d.Chat.SendSessionMessage(c.Request.Context(), c.GetString("userID"), c.Param("sessionId"), *in)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}
