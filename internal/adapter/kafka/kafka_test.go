package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

func TestSerializeJob(t *testing.T) {
	job := domain.EnrichmentJob{
		PropertyID: "p-7",
		Address:    "123+Main+St+Madison+WI",
		RunID:      "run-42",
	}

	msg, err := serializeJob(job)
	require.NoError(t, err)

	assert.Equal(t, []byte("p-7"), msg.Key)
	assert.JSONEq(t,
		`{"property_id":"p-7","address":"123+Main+St+Madison+WI","run_id":"run-42"}`,
		string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-42"), msg.Headers[0].Value)
}

func TestDeserializeJob(t *testing.T) {
	msg := kafkago.Message{
		Key:   []byte("p-7"),
		Value: []byte(`{"property_id":"p-7","address":"123+Main+St","run_id":"run-42"}`),
	}

	job, err := deserializeJob(msg)
	require.NoError(t, err)

	assert.Equal(t, "p-7", job.PropertyID)
	assert.Equal(t, "123+Main+St", job.Address)
	assert.Equal(t, "run-42", job.RunID)
}

func TestDeserializeJob_MalformedPayload(t *testing.T) {
	msg := kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")}

	_, err := deserializeJob(msg)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	job := domain.EnrichmentJob{PropertyID: "p-1", Address: "400+W+Gorham+St", RunID: "run-1"}

	msg, err := serializeJob(job)
	require.NoError(t, err)

	got, err := deserializeJob(msg)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}
