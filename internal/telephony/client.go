package telephony

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/arcceus/phonecall-popup/internal/models"
)

// Client is a session-bus client for the telephony service. It subscribes
// to call lifecycle signals, normalizes them into Events, and invokes the
// Answer/Hangup methods on call objects.
type Client struct {
	conn   *dbus.Conn
	bus    models.BusConfig
	events chan Event
}

// Dial opens a private connection to the session bus.
func Dial(bus models.BusConfig) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Client{
		conn:   conn,
		bus:    bus,
		events: make(chan Event, 64),
	}, nil
}

// Events returns the channel of normalized call events. The channel is
// closed when the bus connection goes away.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Subscribe registers signal matches for call lifecycle notifications and
// starts delivering events. It also performs an initial GetManagedObjects
// scan so calls that were already ringing when the process started are
// picked up.
func (c *Client) Subscribe() error {
	matches := [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(c.bus.Name),
			dbus.WithMatchObjectPath(dbus.ObjectPath(c.bus.ManagerPath)),
			dbus.WithMatchInterface("org.freedesktop.DBus.ObjectManager"),
			dbus.WithMatchMember("InterfacesAdded"),
		},
		{
			dbus.WithMatchSender(c.bus.Name),
			dbus.WithMatchObjectPath(dbus.ObjectPath(c.bus.ManagerPath)),
			dbus.WithMatchInterface("org.freedesktop.DBus.ObjectManager"),
			dbus.WithMatchMember("InterfacesRemoved"),
		},
		{
			dbus.WithMatchSender(c.bus.Name),
			dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
			dbus.WithMatchMember("PropertiesChanged"),
		},
	}
	for _, match := range matches {
		if err := c.conn.AddMatchSignal(match...); err != nil {
			return fmt.Errorf("failed to add signal match: %w", err)
		}
	}

	signals := make(chan *dbus.Signal, 64)
	c.conn.Signal(signals)
	go c.pump(signals)

	c.scanExisting()
	return nil
}

// pump consumes raw signals in delivery order and forwards the ones that
// normalize into call events.
func (c *Client) pump(signals chan *dbus.Signal) {
	for sig := range signals {
		event, ok := Normalize(sig, c.bus.CallInterface)
		if !ok {
			continue
		}
		c.events <- event
	}
	close(c.events)
}

// scanExisting asks the ObjectManager for current objects and emits a
// CallAdded event for each call found. Failure is not fatal: the service
// may simply not be up yet, in which case signals cover everything.
func (c *Client) scanExisting() {
	manager := c.conn.Object(c.bus.Name, dbus.ObjectPath(c.bus.ManagerPath))

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err := manager.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objects)
	if err != nil {
		log.Debug().Err(err).Msg("initial call scan failed")
		return
	}

	for path, interfaces := range objects {
		props, ok := interfaces[c.bus.CallInterface]
		if !ok {
			continue
		}
		c.events <- Event{
			Type:     EventCallAdded,
			Path:     string(path),
			CallerID: stringProp(props, propLineIdentification),
			State:    stringProp(props, propState),
		}
	}
}

// Answer invokes the Answer method on the call object at path.
func (c *Client) Answer(path string) error {
	return c.callMethod(path, "Answer")
}

// Hangup invokes the Hangup method on the call object at path.
func (c *Client) Hangup(path string) error {
	return c.callMethod(path, "Hangup")
}

func (c *Client) callMethod(path, method string) error {
	obj := c.conn.Object(c.bus.Name, dbus.ObjectPath(path))
	call := obj.Call(c.bus.CallInterface+"."+method, 0)
	if call.Err != nil {
		return fmt.Errorf("%s on %s failed: %w", method, path, call.Err)
	}
	return nil
}

// Close tears down the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
