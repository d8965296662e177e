package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"unity-within-go/internal/model"
	"unity-within-go/internal/ws"
)

// ---- 测试替身 ----

type fakeMessageRepo struct {
	created []*model.ChatMessage
	names   map[uint]string
}

func (r *fakeMessageRepo) Create(msg *model.ChatMessage) error {
	msg.ID = uint(len(r.created) + 1)
	r.created = append(r.created, msg)
	return nil
}

func (r *fakeMessageRepo) FindByID(msgID uint) (*model.ChatMessage, error) { return nil, nil }

func (r *fakeMessageRepo) FindByRoom(roomID *uint, offset, limit int) ([]model.ChatMessage, int64, error) {
	var out []model.ChatMessage
	for _, msg := range r.created {
		if (roomID == nil) == (msg.RoomID == nil) {
			out = append(out, *msg)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMessageRepo) FindRecent(offset, limit int) ([]model.ChatMessage, int64, error) {
	return nil, 0, nil
}

func (r *fakeMessageRepo) Count() (int64, error) { return int64(len(r.created)), nil }

func (r *fakeMessageRepo) Delete(msgID uint) error { return nil }

func (r *fakeMessageRepo) SenderName(userID uint) (string, error) {
	return r.names[userID], nil
}

type fakeRoomRepo struct {
	rooms []model.ChatRoom
}

func (r *fakeRoomRepo) Create(room *model.ChatRoom) error          { return nil }
func (r *fakeRoomRepo) FindByID(id uint) (*model.ChatRoom, error)  { return nil, nil }
func (r *fakeRoomRepo) FindAll() ([]model.ChatRoom, error)         { return r.rooms, nil }
func (r *fakeRoomRepo) Count() (int64, error)                      { return int64(len(r.rooms)), nil }
func (r *fakeRoomRepo) Delete(id uint) error                       { return nil }

type fakeReportRepo struct {
	reports []*model.Report
}

func (r *fakeReportRepo) Create(report *model.Report) error { r.reports = append(r.reports, report); return nil }
func (r *fakeReportRepo) FindWithPagination(offset, limit int) ([]model.Report, int64, error) {
	return nil, 0, nil
}
func (r *fakeReportRepo) Count() (int64, error) { return int64(len(r.reports)), nil }

type fakeModerationRepo struct {
	entries []*model.ModerationLog
}

func (r *fakeModerationRepo) Create(entry *model.ModerationLog) error {
	r.entries = append(r.entries, entry)
	return nil
}
func (r *fakeModerationRepo) FindWithPagination(offset, limit int) ([]model.ModerationLog, int64, error) {
	return nil, 0, nil
}
func (r *fakeModerationRepo) FindByFlagType(flagType string, offset, limit int) ([]model.ModerationLog, int64, error) {
	return nil, 0, nil
}
func (r *fakeModerationRepo) Count() (int64, error)                       { return 0, nil }
func (r *fakeModerationRepo) CountByFlagType(ft string) (int64, error)    { return 0, nil }

// fakeClassifier 返回预设结论并统计调用次数。
type fakeClassifier struct {
	verdict Verdict
	calls   int
}

func (c *fakeClassifier) Classify(ctx context.Context, content string) Verdict {
	c.calls++
	return c.verdict
}

type broadcastRecord struct {
	roomID  uint
	msgType string
	data    interface{}
}

type fakeBroadcaster struct {
	sent []broadcastRecord
}

func (b *fakeBroadcaster) BroadcastRoom(roomID uint, msgType string, data interface{}) {
	b.sent = append(b.sent, broadcastRecord{roomID: roomID, msgType: msgType, data: data})
}

type chatFixture struct {
	svc        ChatService
	messages   *fakeMessageRepo
	moderation *fakeModerationRepo
	classifier *fakeClassifier
	broadcasts *fakeBroadcaster
}

func newChatFixture(verdict Verdict) *chatFixture {
	f := &chatFixture{
		messages:   &fakeMessageRepo{names: map[uint]string{7: "Wanjiru"}},
		moderation: &fakeModerationRepo{},
		classifier: &fakeClassifier{verdict: verdict},
		broadcasts: &fakeBroadcaster{},
	}
	f.svc = NewChatService(
		f.messages, &fakeRoomRepo{}, &fakeReportRepo{}, f.moderation,
		f.classifier, f.broadcasts,
		[]string{"badword", "abuse", "hate"}, false,
	)
	return f
}

func uintPtr(v uint) *uint { return &v }

// TestSubmitMessage_DenylistShortCircuits verifies a denylist hit rejects the
// message before the classifier is ever consulted.
func TestSubmitMessage_DenylistShortCircuits(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})

	broadcast, rejection, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		Content: "I really HATE this", Source: "websocket",
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Nil(t, broadcast)
	assert.Equal(t, "Contains prohibited words.", rejection.Reason)
	assert.False(t, rejection.IsCrisis)

	assert.Zero(t, f.classifier.calls, "classifier must not run after a fast-filter hit")
	assert.Empty(t, f.messages.created)
	assert.Empty(t, f.moderation.entries, "fast-filter rejections are not audit-logged")
	assert.Empty(t, f.broadcasts.sent)
}

// TestSubmitMessage_CrisisRejection verifies a CRISIS verdict produces the
// crisis rejection, writes exactly one audit entry, and persists nothing.
func TestSubmitMessage_CrisisRejection(t *testing.T) {
	f := newChatFixture(Verdict{Safe: false, FlagType: model.FlagCrisis})

	broadcast, rejection, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		UserID: uintPtr(7), Content: "...", IPAddress: "10.0.0.1", Source: "websocket",
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Nil(t, broadcast)
	assert.True(t, rejection.IsCrisis)
	assert.Contains(t, rejection.Reason, "Crisis Shield")

	require.Len(t, f.moderation.entries, 1)
	entry := f.moderation.entries[0]
	assert.Equal(t, model.FlagCrisis, entry.FlagType)
	assert.Equal(t, "AI Detection", entry.Reason)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(7), *entry.UserID)

	assert.Empty(t, f.messages.created)
	assert.Empty(t, f.broadcasts.sent)
}

// TestSubmitMessage_UnsafeRejection verifies the UNSAFE rejection has no
// crisis marker and is audit-logged with the UNSAFE flag.
func TestSubmitMessage_UnsafeRejection(t *testing.T) {
	f := newChatFixture(Verdict{Safe: false, FlagType: model.FlagUnsafe})

	_, rejection, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{Content: "..."})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.False(t, rejection.IsCrisis)

	require.Len(t, f.moderation.entries, 1)
	assert.Equal(t, model.FlagUnsafe, f.moderation.entries[0].FlagType)
}

// TestSubmitMessage_AdmittedAndBroadcast verifies a safe message is persisted
// once and broadcast to its room only.
func TestSubmitMessage_AdmittedAndBroadcast(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})

	broadcast, rejection, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		RoomID: uintPtr(3), UserID: uintPtr(7), Content: "hello room", IsAnonymous: true, Source: "websocket",
	})
	require.NoError(t, err)
	assert.Nil(t, rejection)
	require.NotNil(t, broadcast)

	require.Len(t, f.messages.created, 1)
	require.Len(t, f.broadcasts.sent, 1)
	sent := f.broadcasts.sent[0]
	assert.Equal(t, uint(3), sent.roomID)
	assert.Equal(t, "receive_message", sent.msgType)
	assert.Equal(t, 1, f.classifier.calls)
}

// TestSubmitMessage_AnonymousRedaction verifies the hard rule: anonymous
// broadcasts carry a nil user name even when the sender has a profile.
func TestSubmitMessage_AnonymousRedaction(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})

	broadcast, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		UserID: uintPtr(7), Content: "hi", IsAnonymous: true, UserName: "Wanjiru",
	})
	require.NoError(t, err)
	assert.Nil(t, broadcast.UserName)
	assert.True(t, broadcast.IsAnonymous)
}

// TestSubmitMessage_NamedSender verifies non-anonymous broadcasts resolve the
// display name from the sender's stored profile.
func TestSubmitMessage_NamedSender(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})
	anonymous := false

	broadcast, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		UserID: uintPtr(7), Content: "hi", IsAnonymous: anonymous,
	})
	require.NoError(t, err)
	require.NotNil(t, broadcast.UserName)
	assert.Equal(t, "Wanjiru", *broadcast.UserName)
}

// TestSubmitMessage_ProfileNameOverridesClientName verifies a signed-in sender
// cannot spoof a display name: the stored profile name always wins.
func TestSubmitMessage_ProfileNameOverridesClientName(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})
	anonymous := false

	broadcast, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		UserID: uintPtr(7), Content: "hi", IsAnonymous: anonymous, UserName: "Impostor",
	})
	require.NoError(t, err)
	require.NotNil(t, broadcast.UserName)
	assert.Equal(t, "Wanjiru", *broadcast.UserName)
}

// TestSubmitMessage_ClientNameForUserlessSender verifies the client-supplied
// name is used only when the sender has no account.
func TestSubmitMessage_ClientNameForUserlessSender(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})
	anonymous := false

	broadcast, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		Content: "hi", IsAnonymous: anonymous, UserName: "Guest",
	})
	require.NoError(t, err)
	require.NotNil(t, broadcast.UserName)
	assert.Equal(t, "Guest", *broadcast.UserName)
}

// TestSubmitMessage_GlobalFeedRoom verifies a nil room routes the broadcast to
// the global feed room.
func TestSubmitMessage_GlobalFeedRoom(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})

	_, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{Content: "into the void"})
	require.NoError(t, err)
	require.Len(t, f.broadcasts.sent, 1)
	assert.Equal(t, ws.GlobalFeedRoom, f.broadcasts.sent[0].roomID)
}

// TestSubmitMessage_FailOpenAdmits verifies a failed-open verdict behaves like
// SAFE at the gateway: the message goes through.
func TestSubmitMessage_FailOpenAdmits(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true, FailedOpen: true})

	broadcast, rejection, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{Content: "hello"})
	require.NoError(t, err)
	assert.Nil(t, rejection)
	assert.NotNil(t, broadcast)
	assert.Empty(t, f.moderation.entries)
}

// TestRoomHistory_AnonymousRedaction verifies history reads re-apply the
// anonymity rule instead of trusting stored rows.
func TestRoomHistory_AnonymousRedaction(t *testing.T) {
	f := newChatFixture(Verdict{Safe: true})

	_, _, err := f.svc.SubmitMessage(context.Background(), SubmitMessageInput{
		RoomID: uintPtr(2), UserID: uintPtr(7), Content: "secret", IsAnonymous: true,
	})
	require.NoError(t, err)

	history, total, err := f.svc.RoomHistory(uintPtr(2), 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].UserName)
}
