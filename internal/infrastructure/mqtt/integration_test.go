//go:build integration

package mqtt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// Integration tests for broker connectivity.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "gpiobridge-integration-test",
		},
		QoS:       1,
		KeepAlive: 10,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_Connect(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestIntegration_ConnectWithRetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectWithRetry(ctx, integrationConfig(), nil)
	if err != nil {
		t.Fatalf("ConnectWithRetry() error = %v", err)
	}
	defer client.Close()
}

func TestIntegration_SubscribePublishRoundtrip(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "gpiobridge-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var received atomic.Int32
	topic := "gpiobridge/int/test/roundtrip"

	err = client.Subscribe(topic, 1, func(gotTopic string, payload []byte) error {
		if gotTopic == topic && string(payload) == "ON" {
			received.Add(1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Publish(topic, []byte("ON"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for received.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if received.Load() != 1 {
		t.Errorf("received %d messages, want 1", received.Load())
	}
}
