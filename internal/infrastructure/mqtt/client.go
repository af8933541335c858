package mqtt

import (
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lumiconnect/agent/internal/infrastructure/config"
)

// Client owns the broker session lifecycle for the LumiConnect agent.
//
// It wraps paho.mqtt.golang behind the two operations the orchestrator
// consumes - StartOrRestart and IsConnected - plus publishing. The tracked
// ConnState is owned exclusively by this type; callers only read it.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg     config.MQTTConfig
	options *pahomqtt.ClientOptions

	mu     sync.RWMutex
	client pahomqtt.Client
	state  ConnState

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex
}

// New creates a Client without attempting a connection.
//
// The first session is requested with StartOrRestart; the underlying client
// manages handshake timing itself and reports the outcome through the
// tracked state.
func New(cfg config.MQTTConfig) *Client {
	c := &Client{
		cfg:   cfg,
		state: StateDisconnected,
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})
	c.options = opts

	return c
}

// StartOrRestart (re)initializes the broker session.
//
// It is idempotent: safe to call while connected (no-op), while a handshake
// is in flight (no-op), or while disconnected (tears down any stale session
// and starts a new one). It never blocks on the handshake; the session is
// attempted asynchronously and the outcome lands in the tracked state.
func (c *Client) StartOrRestart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected:
		if c.client != nil && c.client.IsConnected() {
			return
		}
		// Tracked state is stale; fall through and restart.
	case StateConnecting:
		// A handshake is already in flight.
		return
	case StateDisconnected:
	}

	if c.client != nil {
		// Stop any background reconnect attempts from the stale session.
		c.client.Disconnect(0)
	}

	c.state = StateConnecting
	c.client = pahomqtt.NewClient(c.options)
	token := c.client.Connect()

	// A failed handshake fires no paho handler, so resolve the token in the
	// background and fall back to Disconnected, making the next restart
	// request eligible to try again.
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.mu.Lock()
			if c.state == StateConnecting {
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			c.notifyDisconnect(err)
		}
	}()
}

// handleConnect is called by paho when a session is established.
func (c *Client) handleConnect() {
	c.mu.Lock()
	c.state = StateConnected
	c.mu.Unlock()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called by paho when an established session is lost.
func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.notifyDisconnect(err)
}

func (c *Client) notifyDisconnect(err error) {
	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// IsConnected is a point-in-time, non-blocking query of the session state.
//
// The answer is best-effort: the state may change between the check and any
// subsequent use, which is acceptable at the agent's once-per-second cadence.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateConnected && c.client != nil && c.client.IsConnected()
}

// State returns the tracked connection state.
func (c *Client) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetOnConnect sets a callback invoked whenever a session is established,
// on the first connect and on every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when a session is lost or a
// handshake attempt fails. The error describes the cause.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// Close disconnects from the broker.
//
// The agent's steady-state loop never closes the session; this exists for
// the shutdown path and for tests.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.state = StateDisconnected

	return nil
}
