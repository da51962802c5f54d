package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/espe-ciber/sentinel-console/internal/metrics"
)

// Attachment is a generated report file
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportMailer delivers generated reports by e-mail
type ReportMailer interface {
	SendReport(ctx context.Context, to, subject, body string, att Attachment) error
}

// SESAPI is the part of the SES client used for delivery
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESReportMailer sends reports as MIME messages through AWS SES
type SESReportMailer struct {
	client SESAPI
	from   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSESReportMailer loads the default AWS configuration for region
func NewSESReportMailer(ctx context.Context, region, from string, logger *slog.Logger) (*SESReportMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESReportMailerWithClient(ses.NewFromConfig(cfg), from, logger), nil
}

func NewSESReportMailerWithClient(client SESAPI, from string, logger *slog.Logger) *SESReportMailer {
	return &SESReportMailer{client: client, from: from, logger: logger, now: time.Now}
}

// SendReport sends a text body with the report attached
func (m *SESReportMailer) SendReport(ctx context.Context, to, subject, body string, att Attachment) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	raw, err := m.buildMessage(to, subject, body, att)
	if err != nil {
		return fmt.Errorf("failed to build report e-mail: %w", err)
	}

	result, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.from),
		Destinations: []string{to},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	metrics.ReportEmailsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		m.logger.Error("failed to send report e-mail via SES",
			slog.String("attachment", att.Filename),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("report e-mail sent",
		slog.String("attachment", att.Filename),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

func (m *SESReportMailer) buildMessage(to, subject, body string, att Attachment) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	text, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", att.ContentType, att.Filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64Lines(part, att.Data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64Lines encodes data with 76-character lines
func writeBase64Lines(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}
