// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session keeps a signed-in client attached to the live board.

A [Session] owns two loops. The connection loop dials the server's WebSocket,
announces the user, fans inbound frames out to subscribers and, whenever the
socket drops, waits a fixed delay and dials again with no retry limit. The
renewal loop refreshes the access token one minute before it expires; when a
refresh fails the session logs itself out, because it cannot recover on its
own.

Both loops stop when [Session.Close] returns.
*/
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// State is the position of the connection loop.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (state State) String() string {
	switch state {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// Defaults applied by [New].
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultRenewalMargin  = time.Minute
)

var (
	// ErrNotConnected is returned by Publish while the socket is down.
	ErrNotConnected = errors.New("session: not connected")

	// ErrRenewalFailed is the cause reported by Err after a forced logout.
	ErrRenewalFailed = errors.New("session: token renewal failed")

	// ErrStarted is returned when Start is called twice.
	ErrStarted = errors.New("session: already started")
)

// Message is an inbound frame.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Listener receives every inbound message. Listeners run on the read loop
// and must not block.
type Listener func(Message)

// Renewer exchanges a refresh token for a new access token.
type Renewer interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Config tunes a [Session]. Zero values fall back to the defaults.
type Config struct {
	// BaseURL is the HTTP base of the server; the socket lives at /ws.
	BaseURL        string
	ReconnectDelay time.Duration
	RenewalMargin  time.Duration
	Dialer         *websocket.Dialer
	Logger         *slog.Logger
	// OnLogout runs once when the session ends, with nil for a regular
	// Close and an error wrapping ErrRenewalFailed for a forced logout.
	OnLogout func(cause error)
}

// Session is a live, self-renewing client session.
type Session struct {
	config  Config
	renewer Renewer
	logger  *slog.Logger

	mu          sync.RWMutex
	credentials *Credentials
	state       State
	conn        *websocket.Conn
	listeners   map[string]Listener
	started     bool
	cause       error

	writeMu sync.Mutex

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// New builds an idle session. Call [Session.Start] with the credentials of a
// successful login to bring it up.
func New(config Config, renewer Renewer) *Session {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.RenewalMargin <= 0 {
		config.RenewalMargin = DefaultRenewalMargin
	}
	if config.Dialer == nil {
		config.Dialer = websocket.DefaultDialer
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		config:    config,
		renewer:   renewer,
		logger:    config.Logger,
		listeners: make(map[string]Listener),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start adopts credentials and starts the connection and renewal loops.
func (session *Session) Start(credentials *Credentials) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.started {
		return ErrStarted
	}
	if session.ctx.Err() != nil {
		return ErrNotConnected
	}

	copied := *credentials
	session.credentials = &copied
	session.started = true

	session.wg.Add(2)
	go session.connectLoop()
	go session.renewLoop()
	return nil
}

// # Accessors

// State returns the current connection state.
func (session *Session) State() State {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.state
}

// AccessToken returns the current access token, or "" once logged out.
func (session *Session) AccessToken() string {
	session.mu.RLock()
	defer session.mu.RUnlock()
	if session.credentials == nil {
		return ""
	}
	return session.credentials.AccessToken
}

// Done is closed when the session ends.
func (session *Session) Done() <-chan struct{} {
	return session.done
}

// Err reports why the session ended: nil after Close, or an error wrapping
// [ErrRenewalFailed] after a forced logout.
func (session *Session) Err() error {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.cause
}

func (session *Session) setState(state State) {
	session.mu.Lock()
	session.state = state
	session.mu.Unlock()
}

// # Fan-in

// Subscribe registers listener under id, replacing any listener with the same
// id. The returned function removes it.
func (session *Session) Subscribe(id string, listener Listener) (unsubscribe func()) {
	session.mu.Lock()
	session.listeners[id] = listener
	session.mu.Unlock()

	return func() {
		session.mu.Lock()
		delete(session.listeners, id)
		session.mu.Unlock()
	}
}

func (session *Session) dispatch(message Message) {
	session.mu.RLock()
	listeners := make([]Listener, 0, len(session.listeners))
	for _, listener := range session.listeners {
		listeners = append(listeners, listener)
	}
	session.mu.RUnlock()

	for _, listener := range listeners {
		listener(message)
	}
}

// Publish sends data upstream as a JSON text frame.
func (session *Session) Publish(data any) error {
	session.mu.RLock()
	conn := session.conn
	session.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	return session.write(conn, data)
}

func (session *Session) write(conn *websocket.Conn, data any) error {
	session.writeMu.Lock()
	defer session.writeMu.Unlock()

	if err := conn.WriteJSON(data); err != nil {
		return fmt.Errorf("session_publish_failed: %w", err)
	}
	return nil
}

// # Connection Loop

func (session *Session) socketURL() (string, error) {
	endpoint, err := url.Parse(session.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("session_invalid_base_url: %w", err)
	}

	switch endpoint.Scheme {
	case "https", "wss":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/ws"
	return endpoint.String(), nil
}

func (session *Session) connectLoop() {
	defer session.wg.Done()
	defer session.setState(StateDisconnected)

	target, err := session.socketURL()
	if err != nil {
		session.logger.Error("session_connect_aborted", slog.Any("error", err))
		return
	}

	for {
		session.setState(StateConnecting)
		conn, _, err := session.config.Dialer.DialContext(session.ctx, target, nil)
		if err != nil {
			session.logger.Debug("session_dial_failed", slog.Any("error", err))
		} else {
			session.serve(conn)
		}
		session.setState(StateDisconnected)

		timer := time.NewTimer(session.config.ReconnectDelay)
		select {
		case <-session.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// serve announces the user and reads frames until the socket fails.
func (session *Session) serve(conn *websocket.Conn) {
	session.mu.Lock()
	if session.ctx.Err() != nil {
		session.mu.Unlock()
		_ = conn.Close()
		return
	}
	session.conn = conn
	session.state = StateOpen
	identity := session.credentials.User
	session.mu.Unlock()

	defer func() {
		session.mu.Lock()
		session.conn = nil
		session.mu.Unlock()
		_ = conn.Close()
	}()

	register := map[string]string{"type": "register", "userId": identity.ID, "userName": identity.Name}
	if err := session.write(conn, register); err != nil {
		session.logger.Debug("session_register_failed", slog.Any("error", err))
		return
	}
	session.logger.Debug("session_connected", slog.String("user_id", identity.ID))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if session.ctx.Err() == nil {
				session.logger.Info("session_connection_lost", slog.Any("error", err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			continue
		}
		session.dispatch(message)
	}
}

// # Renewal Loop

// renewalDelay is the time left on token minus the margin, floored at zero.
func (session *Session) renewalDelay(token string) time.Duration {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(claims.ExpiresAt.Time)-session.config.RenewalMargin, 0)
}

func (session *Session) renewLoop() {
	defer session.wg.Done()

	for {
		session.mu.RLock()
		if session.credentials == nil {
			session.mu.RUnlock()
			return
		}
		accessToken, refreshToken := session.credentials.AccessToken, session.credentials.RefreshToken
		session.mu.RUnlock()

		timer := time.NewTimer(session.renewalDelay(accessToken))
		select {
		case <-session.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		renewed, err := session.renewer.Refresh(session.ctx, refreshToken)
		if session.ctx.Err() != nil {
			return
		}
		if err != nil {
			session.logger.Warn("session_renewal_failed", slog.Any("error", err))
			session.stop(fmt.Errorf("%w: %w", ErrRenewalFailed, err))
			return
		}

		session.mu.Lock()
		if session.credentials != nil {
			session.credentials.AccessToken = renewed
		}
		session.mu.Unlock()
		session.logger.Debug("session_token_renewed")
	}
}

// # Teardown

// stop ends the session without waiting for the loops. It clears the
// credentials, cancels the loops and closes the socket.
func (session *Session) stop(cause error) {
	session.stopOnce.Do(func() {
		session.cancel()

		session.mu.Lock()
		session.credentials = nil
		session.cause = cause
		conn := session.conn
		session.mu.Unlock()

		if conn != nil {
			session.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
				time.Now().Add(time.Second))
			session.writeMu.Unlock()
			_ = conn.Close()
		}

		close(session.done)
		if session.config.OnLogout != nil {
			session.config.OnLogout(cause)
		}
	})
}

// Close logs out and returns once both loops have exited. It is safe to
// call more than once.
func (session *Session) Close() error {
	session.stop(nil)
	session.wg.Wait()
	return nil
}
