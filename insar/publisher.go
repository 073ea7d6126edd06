package insar

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ConversionEvent is published once per raster pair, reporting either the
// converted point count or the failure message.
type ConversionEvent struct {
	Datestamp string `json:"datestamp"`
	Points    int    `json:"points"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher streams conversion progress to an MQTT broker so dashboards can
// follow long runs. A nil Publisher (or one built on a nil client) is a
// no-op, which is also how tests run without a broker.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	retain bool
}

// NewPublisher creates a conversion event publisher. An empty prefix
// defaults to "defocloud". If client is nil, publishing is disabled.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "defocloud"
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		qos:    0,
		retain: true, // retain so dashboards see the latest state on subscribe
	}
}

// ConnectBroker opens an MQTT connection from config. Returns nil (MQTT
// disabled) when no broker is configured.
func ConnectBroker(cfg MQTTConfig) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "defocloud"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("MQTT connection timeout to %s", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	log.Printf("Connected to MQTT broker %s", cfg.Broker)
	return client, nil
}

// PublishConversion publishes a per-pair event to <prefix>/conversions.
func (p *Publisher) PublishConversion(ev ConversionEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	ev.Timestamp = time.Now().Unix()
	return p.publish(fmt.Sprintf("%s/conversions", p.prefix), ev)
}

// PublishSummary publishes the run summary to <prefix>/summary.
func (p *Publisher) PublishSummary(s Summary) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.publish(fmt.Sprintf("%s/summary", p.prefix), s)
}

func (p *Publisher) publish(topic string, payload interface{}) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, data)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect gracefully closes the broker connection, if any.
func (p *Publisher) Disconnect() {
	if p == nil || p.client == nil {
		return
	}
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
