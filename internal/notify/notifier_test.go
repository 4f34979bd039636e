package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name   string
	fail   bool
	titles []string
}

func (s *fakeSender) Send(_ context.Context, title, _ string) error {
	if s.fail {
		return errors.New("boom")
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *fakeSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEventType(t *testing.T) {
	sender := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"exit"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "fill", "Order filled", "..."))
	require.NoError(t, n.Notify(context.Background(), "exit", "Position exit", "..."))

	assert.Equal(t, []string{"Position exit"}, sender.titles)
}

func TestNotifyEmptyFilterAllowsEverything(t *testing.T) {
	sender := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), "fill", "Order filled", "..."))
	assert.Len(t, sender.titles, 1)
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	failing := &fakeSender{name: "telegram", fail: true}
	working := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{failing, working}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "Order filled", "...")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
	assert.Len(t, working.titles, 1)
}

func TestAlertClassification(t *testing.T) {
	event, title := classify(executionAlert{Status: "REJECTED"})
	assert.Equal(t, "reject", event)
	assert.Equal(t, "Order rejected", title)

	event, title = classify(executionAlert{Status: "FILLED", IsExit: true})
	assert.Equal(t, "exit", event)
	assert.Equal(t, "Position exit", title)

	event, title = classify(executionAlert{Status: "FILLED"})
	assert.Equal(t, "fill", event)
	assert.Equal(t, "Order filled", title)
}

func TestAlertsHandleFormatsAndDelivers(t *testing.T) {
	sender := &fakeSender{name: "telegram"}
	notifier := NewNotifier([]Sender{sender}, nil, testLogger())
	alerts := NewAlerts(nil, notifier, testLogger())

	payload := []byte(`{"market_id":"mkt-1","side":"YES","strategy":"LADDER_COMPRESSION",` +
		`"status":"FILLED","filled_shares":10,"filled_price":0.65,"filled_usdc":6.5}`)
	alerts.handle(context.Background(), payload)

	require.Len(t, sender.titles, 1)
	assert.Equal(t, "Order filled", sender.titles[0])
}
