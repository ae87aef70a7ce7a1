// Package bridge joins MQTT subscriptions to GPIO lines and managed
// commands.
//
// The Router is the dispatch core: given an inbound topic and payload it
// decodes the ON/OFF state, selects every subscription whose topic pattern
// prefixes the inbound topic, applies per-subscription inversion, and fans
// the resulting state out to the GPIO table and the process supervisor
// through the link identifier.
//
// The Bridge owns subscription setup: it subscribes each distinct topic
// pattern exactly once and routes all inbound messages through the Router.
// Message handling is sequential; ordering between messages on the same
// topic is preserved by the MQTT client.
package bridge
