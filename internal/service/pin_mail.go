package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

// PINSender delivers a freshly generated PIN to its owner
type PINSender interface {
	SendPIN(ctx context.Context, to, name, pin string, ttl time.Duration) error
}

// SMTPMailer sends PINs by email
type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	Password string

	dial func(m *gomail.Message) error
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	m := &SMTPMailer{Host: host, Port: port, From: from, Password: password}
	m.dial = func(msg *gomail.Message) error {
		return gomail.NewDialer(m.Host, m.Port, m.From, m.Password).DialAndSend(msg)
	}

	return m
}

func (s *SMTPMailer) SendPIN(ctx context.Context, to, name, pin string, ttl time.Duration) error {
	if to == s.From {
		return errors.New("invalid email address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your sign-in PIN")
	m.SetBody("text/html", fmt.Sprintf(
		"Hi %s,<br><br>your one-time sign-in PIN is <b>%s</b>.<br><br>It expires in %d minutes. If you didn't ask for it you can ignore this email.",
		html.EscapeString(name), pin, int(ttl/time.Minute)))

	return s.dial(m)
}
