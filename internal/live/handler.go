// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/middleware"
)

// GaugeRecorder tracks the number of open connections.
type GaugeRecorder interface {
	SetLiveConnections(count int)
}

// Handler accepts WebSocket connections and keeps the [Registry] in sync
// with their lifetime.
type Handler struct {
	registry *Registry
	upgrader websocket.Upgrader
	gauge    GaugeRecorder
	logger   *slog.Logger
	ack      []byte
}

// NewHandler builds the upgrade endpoint. Origins are checked against
// policy the same way CORS is; gauge may be nil.
func NewHandler(registry *Registry, policy middleware.AppConfig, gauge GaugeRecorder, logger *slog.Logger) *Handler {
	frame, _ := json.Marshal(ack{Type: TypeRegistered, Message: RegisteredMessage})

	return &Handler{
		registry: registry,
		gauge:    gauge,
		logger:   logger,
		ack:      frame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(request *http.Request) bool {
				origin := request.Header.Get(constants.HeaderOrigin)
				return origin == "" || policy.IsDevelopment() || strings.EqualFold(origin, policy.AllowedOrigin())
			},
		},
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		handler.logger.Debug("live_upgrade_failed", slog.Any("error", err))
		return
	}

	peer := newClient(conn)
	handler.registry.Open(peer)
	handler.updateGauge()
	handler.logger.Debug("live_connection_opened", slog.String("remote", middleware.RealIP(request)))

	go peer.writePump()
	handler.readPump(peer)

	identity, registered := handler.registry.Unregister(peer)
	peer.Close()
	handler.updateGauge()

	if registered {
		handler.logger.Info("live_client_disconnected", slog.String("user_id", identity.UserID))
	}
}

// readPump handles inbound frames until the peer goes away.
func (handler *Handler) readPump(peer *client) {
	conn := peer.conn
	conn.SetReadLimit(constants.LiveMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(constants.LivePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.LivePongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				handler.logger.Debug("live_read_failed", slog.Any("error", err))
			}
			return
		}

		var message inbound
		if err := json.Unmarshal(data, &message); err != nil || message.Type != TypeRegister {
			continue
		}

		handler.registry.Register(peer, message.UserID, message.UserName)
		peer.Send(handler.ack)
		handler.logger.Info("live_client_registered",
			slog.String("user_id", message.UserID),
			slog.String("user_name", message.UserName),
		)
	}
}

func (handler *Handler) updateGauge() {
	if handler.gauge != nil {
		handler.gauge.SetLiveConnections(handler.registry.Len())
	}
}

// Shutdown closes every open connection with a normal close frame.
func (handler *Handler) Shutdown() {
	for _, peer := range handler.registry.Snapshot() {
		if closer, ok := peer.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
