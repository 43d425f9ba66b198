package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/logging"
	"github.com/onexay/travis-notify/internal/types"
)

const passedPayload = `{
	"id": 1,
	"number": "1",
	"status": 0,
	"started_at": "2011-11-11T11:11:12Z",
	"finished_at": "2011-11-11T11:11:13Z",
	"status_message": "Passed",
	"commit": "62aae5f70ceee39123ef",
	"branch": "master",
	"message": "the commit message",
	"compare_url": "https://github.com/owner/repo/compare/master...develop",
	"committed_at": "2011-11-11T11:11:11Z",
	"committer_name": "J. Random Hacker",
	"committer_email": "jrandom@example.com",
	"author_name": "J. Random Hacker",
	"author_email": "jrandom@example.com",
	"type": "push",
	"build_url": "https://travis-ci.org/owner/repo/builds/1",
	"repository": {"id": 1, "name": "repo", "owner_name": "owner"}
}`

type settings map[string]any

func (s settings) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

var defaultSettings = settings{RecipientsKey: "zope-tests@example.com"}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func intPtr(n int) *int { return &n }

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		payload types.BuildPayload
		want    Verdict
	}{
		{"passed", types.BuildPayload{Status: intPtr(0), StatusMessage: "Passed"}, VerdictOK},
		{"fixed", types.BuildPayload{Status: intPtr(0), StatusMessage: "Fixed"}, VerdictOK},
		{"broken", types.BuildPayload{Status: intPtr(1), StatusMessage: "Broken"}, VerdictFailed},
		{"failed", types.BuildPayload{Status: intPtr(1), StatusMessage: "FAILED"}, VerdictFailed},
		{"still failing", types.BuildPayload{Status: intPtr(1), StatusMessage: "Still Failing"}, VerdictFailed},
		{"pending", types.BuildPayload{Status: intPtr(1), StatusMessage: "Pending"}, VerdictUnknown},
		{"no status", types.BuildPayload{StatusMessage: "Errored"}, VerdictUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.payload))
		})
	}
}

func TestComposeSubjects(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{`{"type":"push","status":0,"status_message":"Passed","repository":{"name":"repo"}}`, "OK: repo [Travis-CI]"},
		{`{"type":"push","status":1,"status_message":"Still Failing","repository":{"name":"repo"}}`, "FAILED: repo [Travis-CI]"},
		{`{"type":"push","status":1,"status_message":"Pending","repository":{"name":"repo"}}`, "UNKNOWN: repo [Travis-CI]"},
	}
	for _, tc := range cases {
		msg, ok, err := Compose(Event{Owner: "owner", Repo: "repo", Payload: json.RawMessage(tc.payload), Settings: defaultSettings})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tc.want, msg.Subject)
		assert.Equal(t, DefaultSender, msg.From)
		assert.Equal(t, []string{"zope-tests@example.com"}, msg.To)
	}
}

func TestComposeSkipsPullRequests(t *testing.T) {
	_, ok, err := Compose(Event{Payload: json.RawMessage(`{"type":"pull_request","status":0}`), Settings: defaultSettings})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComposeSkipsWithoutRecipients(t *testing.T) {
	_, ok, err := Compose(Event{Payload: json.RawMessage(passedPayload), Settings: settings{}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComposeUsesConfiguredSender(t *testing.T) {
	s := settings{RecipientsKey: "dev@example.com", SenderKey: "ci@example.com"}
	msg, ok, err := Compose(Event{Payload: json.RawMessage(passedPayload), Settings: s})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ci@example.com", msg.From)
}

func TestBodyGolden(t *testing.T) {
	msg, ok, err := Compose(Event{Owner: "owner", Repo: "repo", Payload: json.RawMessage(passedPayload), Settings: defaultSettings})
	require.NoError(t, err)
	require.True(t, ok)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "push_passed", []byte(msg.Body))
}

func TestMessageBytes(t *testing.T) {
	raw := string(Message{
		From:    "a@example.com",
		To:      []string{"b@example.com", "c@example.com"},
		Subject: "OK: repo [Travis-CI]",
		Body:    "line one\nline two\n",
	}.Bytes())

	assert.Contains(t, raw, "From: a@example.com\r\n")
	assert.Contains(t, raw, "To: b@example.com, c@example.com\r\n")
	assert.Contains(t, raw, "Subject: OK: repo [Travis-CI]\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestNotifySendsPushMail(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, logging.Nop())

	err := n.Notify(context.Background(), Event{Owner: "owner", Repo: "repo", Payload: json.RawMessage(passedPayload), Settings: defaultSettings})
	require.NoError(t, err)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "OK: repo [Travis-CI]", sent[0].Subject)
}

func TestNotifySkipsPullRequest(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, logging.Nop())

	err := n.Notify(context.Background(), Event{Payload: json.RawMessage(`{"type":"pull_request"}`), Settings: defaultSettings})
	require.NoError(t, err)
	assert.Empty(t, mailer.Sent())
}

func TestNotifyWrapsTransportFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("connection refused")}
	n := NewNotifier(mailer, logging.Nop())

	err := n.Notify(context.Background(), Event{Owner: "owner", Repo: "repo", Payload: json.RawMessage(passedPayload), Settings: defaultSettings})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.TextNotifyFailure))
}

func TestLogMailerNeverFails(t *testing.T) {
	m := &LogMailer{Logger: logging.Nop()}
	require.NoError(t, m.Send(context.Background(), Message{Subject: "x"}))
}

func TestSMTPMailerRejectsEmptyRecipients(t *testing.T) {
	m := &SMTPMailer{Addr: "localhost:25"}
	require.Error(t, m.Send(context.Background(), Message{From: "a@example.com"}))
}
