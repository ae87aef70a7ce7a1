// Package mqtt provides MQTT client connectivity for the bridge daemon.
//
// This package manages:
//   - Connection to the broker, with an indefinite exponential-backoff
//     retry loop for the initial connection
//   - Topic subscriptions, restored automatically after a reconnect
//   - Message publishing for the daemon's own status topic
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The daemon is a pure subscriber: inbound messages on the configured topic
// patterns drive GPIO lines and managed processes. The only outbound traffic
// is the retained status message on gpiobridge/system/status.
//
// Reconnection after a connection drop is delegated to the paho client's
// auto-reconnect; this package only implements the startup retry loop, which
// doubles its delay from 1s up to a 60s cap and never gives up.
//
// # Usage
//
//	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, logger)
//	if err != nil {
//	    return err // only on context cancellation
//	}
//	defer client.Close()
//
//	err = client.Subscribe("home/lights/0", 1,
//	    func(topic string, payload []byte) error {
//	        // dispatch
//	        return nil
//	    })
package mqtt
