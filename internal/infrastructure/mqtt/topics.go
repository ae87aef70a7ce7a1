package mqtt

// Topics builds the daemon's own topic names. Subscription topics come from
// the bindings file verbatim and are not built here.
type Topics struct{}

// SystemStatus is the retained online/offline status topic, also used as the
// LWT target.
func (Topics) SystemStatus() string {
	return "gpiobridge/system/status"
}
