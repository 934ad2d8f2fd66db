package service

import (
	"context"
	"fmt"
	"strings"
)

// Responder produces the assistant reply for a chat model
type Responder interface {
	Respond(ctx context.Context, message string, images, attachments int) (string, error)
}

// cannedResponder answers from fixed templates. Each %d gets the number
// of images or attachments, the opening gets the user message.
type cannedResponder struct {
	opening     string
	images      string
	attachments string
	closing     string
}

func (r cannedResponder) Respond(_ context.Context, message string, images, attachments int) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, r.opening, message)
	if images > 0 {
		b.WriteString(" ")
		fmt.Fprintf(&b, r.images, images)
	}
	if attachments > 0 {
		b.WriteString(" ")
		fmt.Fprintf(&b, r.attachments, attachments)
	}
	b.WriteString(" ")
	b.WriteString(r.closing)

	return b.String(), nil
}

const DefaultChatModel = "gpt-3.5-turbo"

// SupportedModels in the order they're listed to clients
var SupportedModels = []string{"gpt-4", "gpt-3.5-turbo", "claude-3", "gemini-pro"}

// DefaultResponders returns the built-in mock responders keyed by model
func DefaultResponders() map[string]Responder {
	return map[string]Responder{
		"gpt-4": cannedResponder{
			opening:     `As GPT-4, I understand you said: "%s".`,
			images:      "I can see %d image(s) you've shared, and I can analyze visual content including text, objects, scenes, and more.",
			attachments: "I notice you've attached %d file(s). While I can discuss the files, I'd need the actual content to provide specific analysis.",
			closing:     "I can help with a wide range of tasks including writing, analysis, coding, math, and creative projects. What would you like to explore?",
		},
		"gpt-3.5-turbo": cannedResponder{
			opening:     `Thank you for your message: "%s".`,
			images:      "I can see you've shared %d image(s). Note that as GPT-3.5 Turbo, I have limited image analysis capabilities compared to GPT-4.",
			attachments: "You've included %d attachment(s). I can discuss file-related topics but would need the content for analysis.",
			closing:     "I'm here to help with questions, writing, coding, and general assistance. How can I help you today?",
		},
		"claude-3": cannedResponder{
			opening:     `Hello! I'm Claude, and I see you've written: "%s".`,
			images:      "I notice %d image(s) in your message. I can analyze images for content, text extraction, visual descriptions, and more.",
			attachments: "I see %d attachment(s). I can discuss document types and help with file-related questions when I have access to the content.",
			closing:     "I'm designed to be helpful, harmless, and honest. I excel at analysis, writing, coding, and thoughtful conversation. What would you like to discuss?",
		},
		"gemini-pro": cannedResponder{
			opening:     `As Gemini Pro, I've processed your input: "%s".`,
			images:      "I can see %d image(s) and can provide detailed visual analysis, including object detection, text recognition, and scene understanding.",
			attachments: "You've shared %d file(s). I can work with various document formats when the content is accessible.",
			closing:     "I'm Google's multimodal AI that can help with coding, analysis, creative tasks, and complex reasoning. What would you like to work on together?",
		},
	}
}

// genericResponder answers for sessions whose stored model is no longer
// registered
var genericResponder = cannedResponder{
	opening:     `I received your message: "%s".`,
	images:      "I can see %d image(s) you've shared.",
	attachments: "I notice %d attachment(s).",
	closing:     "This is a mock AI response. In a production environment, this would be connected to a real AI service for intelligent responses.",
}
