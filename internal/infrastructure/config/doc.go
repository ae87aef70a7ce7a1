// Package config loads the two configuration inputs of the bridge daemon.
//
// The bindings file is the required, line-oriented mapping loaded once at
// startup. It declares the broker address, GPIO output lines, managed
// commands, and topic subscriptions:
//
//	MQTT <broker-host> <broker-port>
//	GPIO <linkID> <chip-name> <pin-offset>
//	CMD  <linkID> <executable-path> [oneshot]
//	SUB  <topic-pattern> <linkID> <qos 0|1|2> [INV]
//
// Blank lines and lines starting with '#' are skipped. The last MQTT line
// wins; GPIO, CMD and SUB lines accumulate. A recognised line with a missing
// or unparsable required field, or a line with an unknown leading keyword,
// fails the load with the offending line number.
//
// Daemon settings (logging and MQTT client tuning) are a separate, optional
// YAML file located via the GPIOBRIDGE_SETTINGS environment variable. The
// loading order is defaults, then file values, then environment overrides,
// then validation.
package config
