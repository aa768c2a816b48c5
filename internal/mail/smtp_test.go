package mail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorsIsRejected(err error) bool {
	return errors.Is(err, ErrSenderRejected)
}

// fakeSMTP accepts one session and records the envelope and body.
type fakeSMTP struct {
	ln net.Listener

	mu   sync.Mutex
	from string
	rcpt string
	data string
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTP{ln: ln}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.mu.Lock()
			s.from = strings.Trim(cmd[len("MAIL FROM:"):], "<> ")
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.mu.Lock()
			s.rcpt = strings.Trim(cmd[len("RCPT TO:"):], "<> ")
			s.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 OK queued")
		case upper == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPSender(t *testing.T) {
	server := startFakeSMTP(t)
	sender := NewSMTPSender("127.0.0.1", server.port(), "", "", Address{Email: "no-reply@taskhub.dev", Name: "TaskHub"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := sender.Send(ctx, Message{
		To:      "ada@example.com",
		ToName:  "Ada",
		Subject: "Reset your password",
		Text:    "Open the link",
		HTML:    "<p>Open the link</p>",
	})
	require.NoError(t, err)

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, "no-reply@taskhub.dev", server.from)
	assert.Equal(t, "ada@example.com", server.rcpt)
	assert.Contains(t, server.data, "Subject: Reset your password")
	assert.Contains(t, server.data, "multipart/alternative")
	assert.Contains(t, server.data, "Open the link")
}

func TestSMTPSenderUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	sender := NewSMTPSender("127.0.0.1", port, "", "", Address{Email: "a@b.c"})
	err = sender.Send(context.Background(), Message{To: "x@y.z"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send via 127.0.0.1:"+strconv.Itoa(port))
}

func TestSMTPSenderNotConfigured(t *testing.T) {
	var sender *SMTPSender
	assert.False(t, sender.Configured())
	assert.ErrorIs(t, NewSMTPSender("", 25, "", "", Address{}).Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestSMTPMessagePlainText(t *testing.T) {
	sender := NewSMTPSender("h", 25, "", "", Address{Email: "from@x.y"})

	m, err := sender.message(Message{To: "to@x.y", Subject: "Hi", Text: "line1\nline2", ReplyTo: "reply@x.y"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "line1")
	assert.Contains(t, raw, "line2")
	assert.Contains(t, raw, "reply@x.y")
	assert.NotContains(t, raw, "multipart")
}

func TestSMTPMessageRejectsBadRecipient(t *testing.T) {
	sender := NewSMTPSender("h", 25, "", "", Address{Email: "from@x.y"})

	_, err := sender.message(Message{To: "not an address"})
	assert.Error(t, err)
}
