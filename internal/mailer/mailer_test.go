package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"picfeed/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PicksImplementation(t *testing.T) {
	_, isLog := New(&config.Config{}).(LogMailer)
	assert.True(t, isLog)

	m, ok := New(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "a@b.c"}).(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", m.Host)
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	m := &SMTPMailer{
		Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "no-reply@picfeed.local",
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
			return nil
		},
	}

	require.NoError(t, m.Send(context.Background(), "alice@example.com", "Your code", "123456"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@picfeed.local", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your code\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n123456")
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := &SMTPMailer{
		Host: "smtp.example.com", Port: 25,
		send: func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay refused") },
	}
	err := m.Send(context.Background(), "bob@example.com", "s", "b")
	assert.ErrorContains(t, err, "relay refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "bob@example.com", "s", "b"), context.Canceled)
}
