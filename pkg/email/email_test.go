package email

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func receiptEmail() ReceiptEmail {
	return ReceiptEmail{
		Recipient:     "ada@example.com",
		CustomerName:  "Ada",
		DocumentURL:   "https://cdn.example.com/receipts/ord-1.pdf",
		OrderID:       "ORD-1",
		BusinessStore: "Corner Shop",
	}
}

func TestNewReceiptMessage(t *testing.T) {
	msg, err := NewReceiptMessage(receiptEmail())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Your receipt for order ORD-1", msg.Subject)
	assert.Contains(t, msg.TextBody, "Hi Ada,")
	assert.Contains(t, msg.TextBody, "Thanks for your purchase with Corner Shop.")
	assert.Contains(t, msg.TextBody, "https://cdn.example.com/receipts/ord-1.pdf")
	assert.Contains(t, msg.TextBody, "Regards,\nReceiptFlow")
	assert.Contains(t, msg.HTMLBody, `href="https://cdn.example.com/receipts/ord-1.pdf"`)
}

func TestNewReceiptMessageEscapesHTML(t *testing.T) {
	data := receiptEmail()
	data.CustomerName = "<script>alert(1)</script>"

	msg, err := NewReceiptMessage(data)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLBody, "<script>")
}

func TestSMTPChannelBuildMessage(t *testing.T) {
	ch := NewSMTPChannel("primary", EmailConfig{FromName: "ReceiptFlow", FromEmail: "noreply@example.com"})

	raw := string(ch.buildMessage(Message{To: "a@example.com", Subject: "Hi", TextBody: "line1\nline2"}, time.Unix(0, 0)))
	assert.Contains(t, raw, "From: ReceiptFlow <noreply@example.com>\r\n")
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"))

	raw = string(ch.buildMessage(Message{To: "a@example.com", Subject: "Hi", TextBody: "t", HTMLBody: "<p>h</p>"}, time.Unix(0, 0)))
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/html")
}

// fakeSMTP accepts a single session and publishes the DATA payload.
func fakeSMTP(t *testing.T) (EmailConfig, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(s string) { fmt.Fprintf(conn, "%s\r\n", s) }
		reply("220 fake ESMTP ready")

		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					received <- data.String()
					reply("250 OK queued")
					continue
				}
				data.WriteString(line)
				continue
			}

			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"),
				cmd == "RSET", cmd == "NOOP":
				reply("250 OK")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 command not implemented")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	return EmailConfig{SMTPHost: host, SMTPPort: portNum, FromName: "ReceiptFlow", FromEmail: "noreply@example.com"}, received
}

func TestSMTPChannelSend(t *testing.T) {
	cfg, received := fakeSMTP(t)
	msg, err := NewReceiptMessage(receiptEmail())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewSMTPChannel("primary", cfg).Send(ctx, msg))

	select {
	case data := <-received:
		assert.Contains(t, data, "Subject: Your receipt for order ORD-1")
		assert.Contains(t, data, "multipart/alternative")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestMailerChannelSend(t *testing.T) {
	cfg, received := fakeSMTP(t)
	msg, err := NewReceiptMessage(receiptEmail())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewMailerChannel("backup", cfg).Send(ctx, msg))

	select {
	case data := <-received:
		assert.Contains(t, data, "Subject: Your receipt for order ORD-1")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPChannelUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	ch := NewSMTPChannel("primary", EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: addr.Port, FromEmail: "noreply@example.com"})
	err = ch.Send(context.Background(), Message{To: "a@example.com", Subject: "x", TextBody: "y"})
	assert.Error(t, err)
}

func TestMailerChannelRejectsBadRecipient(t *testing.T) {
	ch := NewMailerChannel("backup", EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: 25, FromEmail: "noreply@example.com"})
	_, err := ch.newMsg(Message{To: "not an address", Subject: "x", TextBody: "y"})
	assert.Error(t, err)
}

func TestLogChannel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ch := NewLogChannel("primary", zap.New(core))

	require.NoError(t, ch.Send(context.Background(), Message{To: "a@example.com", Subject: "Hello"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}
