package quoteintake

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const testSecret = "unit-test-signing-secret"

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	args := m.Called(ctx, key, data, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) Get(ctx context.Context, key string) (*Object, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Object), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg *EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, filename string, r io.Reader) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) SubmissionAccepted(ctx context.Context, event *SubmissionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func fullSettings() Settings {
	return Settings{
		EmailAPIKey:   "re_test",
		ContactFrom:   "Quotes <quotes@example.com>",
		ContactTo:     "owner@example.com, office@example.com",
		SigningSecret: testSecret,
	}
}

type testDeps struct {
	store  *MockObjectStore
	sender *MockEmailSender
	logs   *bytes.Buffer
}

func newTestService(settings Settings, opts ...Option) (*Service, *testDeps) {
	deps := &testDeps{
		store:  new(MockObjectStore),
		sender: new(MockEmailSender),
		logs:   new(bytes.Buffer),
	}
	base := []Option{
		WithSettings(settings),
		WithObjectStore(deps.store),
		WithEmailSender(deps.sender),
		WithClock(func() time.Time { return testNow }),
		WithLogger(slog.New(slog.NewTextHandler(deps.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}
	svc, err := New(append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return svc, deps
}

func validFields() Fields {
	return Fields{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "Need a quote",
	}
}

func image(name string, size int) Attachment {
	return NewAttachment(name, "image/jpeg", bytes.Repeat([]byte{0xff}, size))
}
