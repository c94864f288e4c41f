// Package telephony talks to the telephony service on the D-Bus session bus.
package telephony

import (
	"github.com/godbus/dbus/v5"
)

// EventType represents the type of telephony bus event.
type EventType int

// Event types for call lifecycle notifications.
const (
	EventCallAdded EventType = iota
	EventCallRemoved
	EventCallStateChanged
)

// Signal names emitted by the telephony service.
const (
	signalInterfacesAdded   = "org.freedesktop.DBus.ObjectManager.InterfacesAdded"
	signalInterfacesRemoved = "org.freedesktop.DBus.ObjectManager.InterfacesRemoved"
	signalPropertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// Property names on the per-call interface.
const (
	propState              = "State"
	propLineIdentification = "LineIdentification"
)

// Event is a normalized call notification. Raw bus signals are validated
// and converted into this form at the boundary; the registry never sees
// variant maps.
type Event struct {
	Type     EventType
	Path     string // call object path
	CallerID string // only for EventCallAdded, may be empty
	State    string // bus-reported state, empty for EventCallRemoved
}

// Normalize converts a raw bus signal into an Event. It returns false for
// signals that don't concern callInterface or are missing required fields;
// those are dropped without further processing.
func Normalize(sig *dbus.Signal, callInterface string) (Event, bool) {
	switch sig.Name {
	case signalInterfacesAdded:
		return normalizeAdded(sig, callInterface)
	case signalInterfacesRemoved:
		return normalizeRemoved(sig, callInterface)
	case signalPropertiesChanged:
		return normalizePropertiesChanged(sig, callInterface)
	}
	return Event{}, false
}

func normalizeAdded(sig *dbus.Signal, callInterface string) (Event, bool) {
	if len(sig.Body) < 2 {
		return Event{}, false
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return Event{}, false
	}
	interfaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return Event{}, false
	}
	props, ok := interfaces[callInterface]
	if !ok {
		return Event{}, false
	}

	return Event{
		Type:     EventCallAdded,
		Path:     string(path),
		CallerID: stringProp(props, propLineIdentification),
		State:    stringProp(props, propState),
	}, true
}

func normalizeRemoved(sig *dbus.Signal, callInterface string) (Event, bool) {
	if len(sig.Body) < 2 {
		return Event{}, false
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return Event{}, false
	}
	interfaces, ok := sig.Body[1].([]string)
	if !ok {
		return Event{}, false
	}
	for _, iface := range interfaces {
		if iface == callInterface {
			return Event{Type: EventCallRemoved, Path: string(path)}, true
		}
	}
	return Event{}, false
}

func normalizePropertiesChanged(sig *dbus.Signal, callInterface string) (Event, bool) {
	if len(sig.Body) < 2 {
		return Event{}, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != callInterface {
		return Event{}, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return Event{}, false
	}
	state := stringProp(changed, propState)
	if state == "" {
		return Event{}, false
	}
	if sig.Path == "" {
		return Event{}, false
	}

	return Event{
		Type:  EventCallStateChanged,
		Path:  string(sig.Path),
		State: state,
	}, true
}

func stringProp(props map[string]dbus.Variant, key string) string {
	variant, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := variant.Value().(string)
	return s
}
