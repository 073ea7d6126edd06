package insar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishConversion(t *testing.T) {
	client := NewMockClient()
	p := NewPublisher(client, "survey")

	before := time.Now().Unix()
	require.NoError(t, p.PublishConversion(ConversionEvent{Datestamp: "20210101", Points: 1234}))

	messages := client.PublishedMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "survey/conversions", messages[0].Topic)
	assert.Equal(t, byte(0), messages[0].QoS)
	assert.True(t, messages[0].Retain)

	var got ConversionEvent
	require.NoError(t, json.Unmarshal(messages[0].Payload, &got))
	assert.Equal(t, "20210101", got.Datestamp)
	assert.Equal(t, 1234, got.Points)
	assert.GreaterOrEqual(t, got.Timestamp, before, "events are stamped at publish time")
}

func TestPublishConversionFailureEvent(t *testing.T) {
	client := NewMockClient()
	p := NewPublisher(client, "")

	ev := ConversionEvent{Datestamp: "20210113", Error: "reading sidecar header: file missing"}
	require.NoError(t, p.PublishConversion(ev))

	messages := client.PublishedMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "defocloud/conversions", messages[0].Topic, "empty prefix falls back to the default")

	var got ConversionEvent
	require.NoError(t, json.Unmarshal(messages[0].Payload, &got))
	assert.Equal(t, ev.Error, got.Error)
	assert.Zero(t, got.Points)
}

func TestPublishSummary(t *testing.T) {
	client := NewMockClient()
	p := NewPublisher(client, "survey")

	require.NoError(t, p.PublishSummary(Summary{Found: 5, Converted: 4, Failed: 1}))

	messages := client.PublishedMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "survey/summary", messages[0].Topic)
	assert.JSONEq(t, `{"found":5,"converted":4,"failed":1}`, string(messages[0].Payload))
}

func TestPublisherNilSafe(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishConversion(ConversionEvent{}))
	assert.NoError(t, p.PublishSummary(Summary{}))
	p.Disconnect()

	p = NewPublisher(nil, "survey")
	assert.NoError(t, p.PublishConversion(ConversionEvent{}))
	assert.NoError(t, p.PublishSummary(Summary{}))
	p.Disconnect()
}

func TestPublisherReportsClientErrors(t *testing.T) {
	client := NewMockClient()
	client.SetPublishError(assert.AnError)
	p := NewPublisher(client, "survey")

	err := p.PublishConversion(ConversionEvent{Datestamp: "20210101"})
	assert.Error(t, err)
	assert.Empty(t, client.PublishedMessages())
}

func TestConnectBrokerDisabled(t *testing.T) {
	client, err := ConnectBroker(MQTTConfig{})
	require.NoError(t, err)
	assert.Nil(t, client, "no broker configured means MQTT stays off")
}
