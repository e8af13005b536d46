package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"type":"Feature"}`),
		Topic:     "raw-quake-features",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("usgs")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"type":"Feature"}`, string(raw.Value))
	assert.Equal(t, "raw-quake-features", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "usgs", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2015, 8, 7, 12, 0, 0, 0, time.UTC)
	event := domain.EventRecord{
		ID:           "us7000abcd",
		Location:     domain.GeoPoint{Lat: 38.32, Lon: 142.37},
		Magnitude:    6.1,
		Kind:         domain.LandEvent,
		RegionName:   "Japan",
		DepthTier:    domain.DepthShallow,
		ClassifiedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("us7000abcd"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"land"`)
	assert.Contains(t, string(msg.Value), `"region":"Japan"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "classified_at", msg.Headers[0].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[0].Value)
	assert.Equal(t, "depth_tier", msg.Headers[1].Key)
	assert.Equal(t, []byte("shallow"), msg.Headers[1].Value)
	assert.Equal(t, "kind", msg.Headers[2].Key)
	assert.Equal(t, []byte("land"), msg.Headers[2].Value)
}
