package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/notify"
)

func successPayload() domain.SuccessNotification {
	return domain.SuccessNotification{
		JobID:    "job-1",
		Success:  true,
		FileInfo: domain.FileInfo{Name: "parts.csv", Size: 120},
		ProcessingStats: domain.ProcessingStats{
			TotalRows: 3, ValidRows: 2, InvalidRows: 1, Inserted: 2,
			Errors: []domain.ValidationError{{Row: 4, Messages: []string{"price is required"}}},
		},
		ValidationSummary: domain.ValidationSummary{DataQualityScore: 61.67},
	}
}

func failurePayload() domain.FailureNotification {
	return domain.FailureNotification{
		JobID:    "job-2",
		FileName: "parts.csv",
		Error:    "import exceeded the time budget of 10m0s",
		FailedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newSMTP(t *testing.T, err error) (*notify.SMTPNotifier, *[]sentMail) {
	t.Helper()

	n, cerr := notify.NewSMTPNotifier(notify.SMTPConfig{Host: "mail.local", Username: "imports@example.com", Password: "x"})
	require.NoError(t, cerr)

	var sent []sentMail
	n.SetSendMail(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	})
	return n, &sent
}

func TestSMTPNotifierSuccess(t *testing.T) {
	t.Parallel()

	n, sent := newSMTP(t, nil)
	require.NoError(t, n.NotifySuccess(context.Background(), "ops@example.com", successPayload()))

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "mail.local:587", mail.addr)
	assert.Equal(t, "imports@example.com", mail.from)
	assert.Equal(t, []string{"ops@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Inventory import completed: parts.csv\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/plain")
	assert.Contains(t, mail.msg, "Inserted: 2")
	assert.Contains(t, mail.msg, "Data quality score: 61.67")
	assert.Contains(t, mail.msg, "row 4: price is required")
}

func TestSMTPNotifierFailure(t *testing.T) {
	t.Parallel()

	n, sent := newSMTP(t, nil)
	require.NoError(t, n.NotifyFailure(context.Background(), "ops@example.com", failurePayload()))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "Subject: Inventory import failed: parts.csv")
	assert.Contains(t, (*sent)[0].msg, "time budget")
}

func TestSMTPNotifierRejectsHeaderInjection(t *testing.T) {
	t.Parallel()

	n, sent := newSMTP(t, nil)
	err := n.NotifyFailure(context.Background(), "ops@example.com\r\nBcc: x@example.com", failurePayload())
	require.Error(t, err)
	assert.Empty(t, *sent)
}

func TestSMTPNotifierFlattensLineBreaksInFileName(t *testing.T) {
	t.Parallel()

	n, sent := newSMTP(t, nil)
	failure := failurePayload()
	failure.FileName = "p.csv\r\nBcc: victim@example.com"
	require.NoError(t, n.NotifyFailure(context.Background(), "ops@example.com", failure))

	success := successPayload()
	success.FileInfo.Name = "q.csv\nBcc: victim@example.com"
	require.NoError(t, n.NotifySuccess(context.Background(), "ops@example.com", success))

	require.Len(t, *sent, 2)
	for _, mail := range *sent {
		headers, _, ok := strings.Cut(mail.msg, "\r\n\r\n")
		require.True(t, ok)
		assert.NotContains(t, headers, "\r\nBcc:")
		assert.NotContains(t, headers, "\nBcc:")
	}
	assert.Contains(t, (*sent)[0].msg, "Subject: Inventory import failed: p.csv Bcc: victim@example.com\r\n")
	assert.Contains(t, (*sent)[1].msg, "Subject: Inventory import completed: q.csv Bcc: victim@example.com\r\n")
}

func TestSMTPNotifierSendError(t *testing.T) {
	t.Parallel()

	n, _ := newSMTP(t, errors.New("connection refused"))
	err := n.NotifySuccess(context.Background(), "ops@example.com", successPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewSMTPNotifierRequiresHost(t *testing.T) {
	t.Parallel()

	_, err := notify.NewSMTPNotifier(notify.SMTPConfig{})
	assert.Error(t, err)
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

func TestSNSNotifierPublishesTemplateAttribute(t *testing.T) {
	t.Parallel()

	client := &fakeSNS{}
	n, err := notify.NewSNSNotifier(client, "arn:aws:sns:eu-central-1:1:imports")
	require.NoError(t, err)

	require.NoError(t, n.NotifySuccess(context.Background(), "ops@example.com", successPayload()))
	require.NoError(t, n.NotifyFailure(context.Background(), "ops@example.com", failurePayload()))
	require.Len(t, client.inputs, 2)

	first := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:eu-central-1:1:imports", aws.ToString(first.TopicArn))
	assert.Equal(t, notify.SuccessTemplate, aws.ToString(first.MessageAttributes["template"].StringValue))
	assert.Equal(t, notify.FailureTemplate, aws.ToString(client.inputs[1].MessageAttributes["template"].StringValue))

	var msg struct {
		Template string          `json:"template"`
		To       string          `json:"to"`
		Data     json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(first.Message)), &msg))
	assert.Equal(t, "ops@example.com", msg.To)
	assert.True(t, strings.Contains(string(msg.Data), `"job_id":"job-1"`))
}

func TestSNSNotifierError(t *testing.T) {
	t.Parallel()

	n, err := notify.NewSNSNotifier(&fakeSNS{err: errors.New("throttled")}, "arn")
	require.NoError(t, err)
	assert.Error(t, n.NotifyFailure(context.Background(), "ops@example.com", failurePayload()))

	_, err = notify.NewSNSNotifier(&fakeSNS{}, "")
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	n := notify.NewLogNotifier(zap.New(core))

	require.NoError(t, n.NotifySuccess(context.Background(), "ops@example.com", successPayload()))
	require.NoError(t, n.NotifyFailure(context.Background(), "ops@example.com", failurePayload()))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, notify.SuccessTemplate, entries[0].ContextMap()["template"])
	assert.Equal(t, "job-2", entries[1].ContextMap()["job_id"])
}
