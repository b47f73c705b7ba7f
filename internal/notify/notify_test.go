package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/mailersend/mailersend-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
)

var aino = model.Recipient{Firstname: "Aino", Lastname: "Virtanen", Email: "aino@example.com"}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) NewMessage() *mailersend.Message {
	return &mailersend.Message{}
}

func (m *MockEmailService) Send(ctx context.Context, message *mailersend.Message) (*mailersend.Response, error) {
	args := m.Called(ctx, message)
	res, _ := args.Get(0).(*mailersend.Response)
	return res, args.Error(1)
}

func TestMailerSendsPlainText(t *testing.T) {
	svc := new(MockEmailService)
	res := &mailersend.Response{Response: &http.Response{Header: http.Header{"X-Message-Id": {"m-1"}}}}
	svc.On("Send", mock.Anything, mock.MatchedBy(func(m *mailersend.Message) bool {
		return m.Subject == "Fuksisitsit" && m.Text == "Tervetuloa!" &&
			len(m.Recipients) == 1 && m.Recipients[0].Email == "aino@example.com" &&
			m.Recipients[0].Name == "Aino Virtanen" && m.From.Email == "noreply@example.com"
	})).Return(res, nil)

	m := &Mailer{email: svc, fromEmail: "noreply@example.com", fromName: "Ilmo"}
	require.NoError(t, m.Notify(context.Background(), aino, "Fuksisitsit", "Tervetuloa!"))
	svc.AssertExpectations(t)
}

func TestMailerWrapsSendError(t *testing.T) {
	svc := new(MockEmailService)
	svc.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	m := &Mailer{email: svc, fromEmail: "noreply@example.com"}
	err := m.Notify(context.Background(), aino, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aino@example.com")
	assert.Contains(t, err.Error(), "rate limited")
}

type fakeQueue struct {
	bodies [][]byte
	err    error
}

func (q *fakeQueue) Publish(_ context.Context, body []byte) error {
	if q.err != nil {
		return q.err
	}
	q.bodies = append(q.bodies, body)
	return nil
}

func TestQueueNotifierPublishesMessage(t *testing.T) {
	q := &fakeQueue{}
	n := &QueueNotifier{queue: q, newID: func() string { return "n1" }}

	require.NoError(t, n.Notify(context.Background(), aino, "Fuksisitsit", "Tervetuloa!"))
	require.Len(t, q.bodies, 1)

	var msg Message
	require.NoError(t, json.Unmarshal(q.bodies[0], &msg))
	assert.Equal(t, Message{ID: "n1", Recipient: aino, Subject: "Fuksisitsit", Body: "Tervetuloa!"}, msg)
}

func TestQueueNotifierReturnsPublishError(t *testing.T) {
	n := &QueueNotifier{queue: &fakeQueue{err: errors.New("channel closed")}, newID: func() string { return "n1" }}
	assert.Error(t, n.Notify(context.Background(), aino, "s", "b"))
}

type ackCall struct {
	ack, requeue bool
}

type fakeAcknowledger struct {
	calls []ackCall
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.calls = append(a.calls, ackCall{ack: true})
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.calls = append(a.calls, ackCall{requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	a.calls = append(a.calls, ackCall{requeue: requeue})
	return nil
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Notify(ctx context.Context, to model.Recipient, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func delivery(t *testing.T, ack amqp.Acknowledger, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(Message{ID: "n1", Recipient: aino, Subject: "Fuksisitsit", Body: "Tervetuloa!"})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func TestConsumerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("acks sent message", func(t *testing.T) {
		s := new(MockSender)
		s.On("Notify", mock.Anything, aino, "Fuksisitsit", "Tervetuloa!").Return(nil)
		ack := &fakeAcknowledger{}
		NewConsumer(s).handle(ctx, delivery(t, ack, false))
		assert.Equal(t, []ackCall{{ack: true}}, ack.calls)
		s.AssertExpectations(t)
	})

	t.Run("requeues first failure", func(t *testing.T) {
		s := new(MockSender)
		s.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))
		ack := &fakeAcknowledger{}
		NewConsumer(s).handle(ctx, delivery(t, ack, false))
		assert.Equal(t, []ackCall{{requeue: true}}, ack.calls)
	})

	t.Run("drops redelivered failure", func(t *testing.T) {
		s := new(MockSender)
		s.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))
		ack := &fakeAcknowledger{}
		NewConsumer(s).handle(ctx, delivery(t, ack, true))
		assert.Equal(t, []ackCall{{requeue: false}}, ack.calls)
	})

	t.Run("drops malformed message", func(t *testing.T) {
		s := new(MockSender)
		ack := &fakeAcknowledger{}
		NewConsumer(s).handle(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte("{")})
		assert.Equal(t, []ackCall{{requeue: false}}, ack.calls)
		s.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewConsumer(LogNotifier{}).Run(ctx, make(chan amqp.Delivery))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumerRunDeliversUntilClosed(t *testing.T) {
	s := new(MockSender)
	s.On("Notify", mock.Anything, aino, "Fuksisitsit", "Tervetuloa!").Return(nil).Twice()
	ack := &fakeAcknowledger{}

	ch := make(chan amqp.Delivery, 2)
	ch <- delivery(t, ack, false)
	ch <- delivery(t, ack, false)
	close(ch)

	err := NewConsumer(s).Run(context.Background(), ch)
	assert.Error(t, err)
	assert.Len(t, ack.calls, 2)
	s.AssertExpectations(t)
}
