// Package mqtt provides MQTT client connectivity for the simulator.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The simulator publishes retained point-state messages and accepts
// priority writes over the same broker, so any workstation or test rig on
// the bench can observe and command the virtual device without a direct
// connection:
//
//	VAV simulator ↔ MQTT Broker ↔ Bench tooling / supervisors
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to write commands for every point
//	err = client.Subscribe(mqtt.Topics{}.AllPointWrites(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a point state
//	topic := mqtt.Topics{}.PointState("SpaceTemperature")
//	client.Publish(topic, []byte(`{"value":22.4}`), 1, true)
package mqtt
