package syncgateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venuebook/internal/config"
	"venuebook/internal/domain"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Send(ctx context.Context, ev Event) error {
	return m.Called(ctx, ev).Error(0)
}

func sampleEntry() domain.UnavailabilityEntry {
	sourceID := int64(4)
	return domain.UnavailabilityEntry{
		StableID: "e-1", VenueID: 2, Date: day,
		StartTime: domain.NewClock(9, 0), EndTime: domain.NewClock(10, 0),
		SourceKind: domain.SourceOneOff, SourceID: &sourceID, Description: domain.OneOffDescription,
	}
}

func TestNewEvent_DeletedCarriesIdentityOnly(t *testing.T) {
	ev := NewEvent(domain.ActionDeleted, sampleEntry(), "+1")
	raw, err := ev.Marshal()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "e-1", m["stableId"])
	assert.Equal(t, "2026-04-09", m["date"])
	assert.NotContains(t, m, "sourceKind")
	assert.NotContains(t, m, "sourceId")
	assert.NotContains(t, m, "description")
}

func TestPublisher_WrapsSinkFailure(t *testing.T) {
	sink := &MockSink{}
	sink.On("Send", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.StableID == "e-1" && ev.Action == domain.ActionCreated && ev.OwnerPhone == "+1"
	})).Return(errors.New("stream unavailable")).Once()
	p := NewPublisher(sink, nil)

	err := p.Publish(context.Background(), domain.ActionCreated, sampleEntry(), "+1")
	assert.ErrorIs(t, err, domain.ErrSync)
	var serr *domain.SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "publish", serr.Op)
	sink.AssertExpectations(t)
}

func TestFanoutSink_SendsEverywhere(t *testing.T) {
	ok, failing := &MockSink{}, &MockSink{}
	ok.On("Send", mock.Anything, mock.Anything).Return(nil)
	failing.On("Send", mock.Anything, mock.Anything).Return(errors.New("down"))

	err := FanoutSink{failing, ok}.Send(context.Background(), NewEvent(domain.ActionCreated, sampleEntry(), ""))
	assert.EqualError(t, err, "down")
	ok.AssertNumberOfCalls(t, "Send", 1)
}

type fakeAdder struct {
	args *redis.XAddArgs
}

func (f *fakeAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1-0", nil)
}

func TestRedisStreamSink_Send(t *testing.T) {
	adder := &fakeAdder{}
	sink := NewRedisStreamSink(adder, "out", 1000)

	require.NoError(t, sink.Send(context.Background(), NewEvent(domain.ActionUpdated, sampleEntry(), "+1")))
	require.NotNil(t, adder.args)
	assert.Equal(t, "out", adder.args.Stream)
	assert.True(t, adder.args.Approx)

	values := adder.args.Values.(map[string]interface{})
	assert.Equal(t, "updated", values["action"])
	assert.Equal(t, "2", values["venue_id"])

	in, err := Decode([]byte(values["payload"].(string)))
	require.NoError(t, err)
	assert.Equal(t, "e-1", in.StableID)
}

func TestHub_SendReachesVenueWatchersOnly(t *testing.T) {
	hub := NewHub(nil)
	watcher := &feedClient{venueID: 2, send: make(chan []byte, 1)}
	other := &feedClient{venueID: 3, send: make(chan []byte, 1)}
	hub.register(watcher)
	hub.register(other)
	assert.Equal(t, 1, hub.Watchers(2))

	require.NoError(t, hub.Send(context.Background(), NewEvent(domain.ActionCreated, sampleEntry(), "")))
	require.NoError(t, hub.Send(context.Background(), NewEvent(domain.ActionDeleted, sampleEntry(), "")))

	select {
	case msg := <-watcher.send:
		assert.Contains(t, string(msg), `"action":"created"`)
	default:
		t.Fatal("watcher got nothing")
	}
	assert.Empty(t, watcher.send, "second event is dropped for a full client")
	assert.Empty(t, other.send)

	hub.unregister(watcher)
	assert.Zero(t, hub.Watchers(2))
	hub.Close()
	assert.Zero(t, hub.Watchers(3))
}

func TestHTTPNotifier_SyncDone(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Method + " " + r.URL.Path
		if strings.Contains(r.URL.Path, "/13/") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(config.RemoteConfig{BaseURL: srv.URL + "/", SyncDonePath: "sync/{venueId}/done/", Timeout: time.Second})

	require.NoError(t, n.SyncDone(context.Background(), 7))
	assert.Equal(t, "GET /sync/7/done/", got)

	err := n.SyncDone(context.Background(), 13)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
