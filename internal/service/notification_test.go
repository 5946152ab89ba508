package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/lib/email"
	"github.com/deppfellow/inquiry-intake/internal/lib/job"
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      string
	subject string
	text    string
}

// fakeMailer renders messages the way the real client does and fails for
// the inquiry ids listed in fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]error
}

func (m *fakeMailer) SendInquiryReceived(_ context.Context, admin string, inquiry model.Inquiry) (string, error) {
	if err := m.fail[inquiry.ID]; err != nil {
		return "", err
	}

	msg := email.ComposeInquiryReceived(inquiry)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: admin, subject: msg.Subject, text: msg.Text})
	return "email-" + inquiry.ID, nil
}

func (m *fakeMailer) byText() map[string]sentMail {
	out := map[string]sentMail{}
	for _, s := range m.sent {
		out[s.text] = s
	}
	return out
}

func record(t *testing.T, id, inquiryType string, items ...string) job.Record {
	t.Helper()

	body, err := json.Marshal(model.NotificationMessage{
		Inquiry: model.Inquiry{ID: id, InquiryType: inquiryType, InquiryItems: items},
		Admin:   "admin@example.com",
	})
	require.NoError(t, err)
	return job.Record{Body: body}
}

func newTestNotificationService(mailer Mailer) *NotificationService {
	logger := zerolog.Nop()
	return NewNotificationService(mailer, &logger)
}

func TestProcessBatchSendsOneEmailPerRecord(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestNotificationService(mailer)

	records := []job.Record{
		record(t, "a", "wholesale", "apples", "pears"),
		record(t, "b", "retail", "plums"),
		record(t, "c", "wholesale"),
	}

	results := svc.ProcessBatch(context.Background(), records)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.NoError(t, res.Err)
		assert.Equal(t, records[i], res.Record)
	}
	assert.Equal(t, "a", results[0].InquiryID)

	require.Len(t, mailer.sent, 3)
	sent := mailer.byText()
	for _, text := range []string{
		"New inquiry received: wholesale Items: apples, pears",
		"New inquiry received: retail Items: plums",
		"New inquiry received: wholesale Items: ",
	} {
		mail, ok := sent[text]
		require.True(t, ok, text)
		assert.Equal(t, "admin@example.com", mail.to)
		assert.Equal(t, "New inquiry received", mail.subject)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	mailer := &fakeMailer{}
	results := newTestNotificationService(mailer).ProcessBatch(context.Background(), nil)

	assert.Empty(t, results)
	assert.Empty(t, mailer.sent)
}

func TestProcessBatchPartialFailure(t *testing.T) {
	sendErr := errors.New("provider unavailable")
	mailer := &fakeMailer{fail: map[string]error{"b": sendErr}}
	svc := newTestNotificationService(mailer)

	results := svc.ProcessBatch(context.Background(), []job.Record{
		record(t, "a", "wholesale", "apples"),
		record(t, "b", "wholesale", "pears"),
		record(t, "c", "wholesale", "plums"),
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, sendErr)
	assert.False(t, job.IsPermanent(results[1].Err))
	assert.Equal(t, "b", results[1].InquiryID)
	assert.NoError(t, results[2].Err)

	assert.Len(t, mailer.sent, 2)
}

func TestProcessBatchUndecodableRecord(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestNotificationService(mailer)

	results := svc.ProcessBatch(context.Background(), []job.Record{
		{Body: []byte("not json")},
		record(t, "a", "wholesale", "apples"),
	})

	require.Len(t, results, 2)
	assert.True(t, job.IsPermanent(results[0].Err))
	assert.NoError(t, results[1].Err)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessBatchMissingRecipient(t *testing.T) {
	body, err := json.Marshal(model.NotificationMessage{
		Inquiry: model.Inquiry{ID: "a", InquiryType: "wholesale"},
	})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	results := newTestNotificationService(mailer).ProcessBatch(context.Background(), []job.Record{{Body: body}})

	require.Len(t, results, 1)
	assert.True(t, job.IsPermanent(results[0].Err))
	assert.Empty(t, mailer.sent)
}

// barrierMailer only lets sends through once want of them are in flight.
type barrierMailer struct {
	mu       sync.Mutex
	inFlight int
	want     int
	release  chan struct{}
}

func (m *barrierMailer) SendInquiryReceived(ctx context.Context, _ string, inquiry model.Inquiry) (string, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight == m.want {
		close(m.release)
	}
	m.mu.Unlock()

	select {
	case <-m.release:
		return "email-" + inquiry.ID, nil
	case <-time.After(2 * time.Second):
		return "", errors.New("sends were not issued concurrently")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestProcessBatchSendsConcurrently(t *testing.T) {
	const size = 10

	mailer := &barrierMailer{want: size, release: make(chan struct{})}
	logger := zerolog.Nop()
	svc := NewNotificationService(mailer, &logger)

	records := make([]job.Record, size)
	for i := range records {
		records[i] = record(t, fmt.Sprintf("inq-%d", i), "wholesale", "widget-A")
	}

	results := svc.ProcessBatch(context.Background(), records)
	require.Len(t, results, size)
	for _, res := range results {
		assert.NoError(t, res.Err, res.InquiryID)
	}
}
