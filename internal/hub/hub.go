package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/clinical"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/escalation"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/notify"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/repo"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundMessage struct {
	env    event.Envelope
	client *Client
}

// Hub owns the connection lifecycle: it accepts websocket endpoints,
// registers them, and fans inbound frames out to a worker pool for route
// dispatch. Registry, router and reaper are constructed and wired here.
type Hub struct {
	registry    *Registry
	router      *Router
	reaper      *Reaper
	escalations *escalation.Controller
	assignments clinical.AssignmentLookup
	analyzer    clinical.Analyzer
	audit       repo.AuditStore
	events      notify.Dispatcher
	logger      *zap.Logger

	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader

	inbound chan inboundMessage
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub wires the routing core and starts the inbound worker pool. The
// analyzer may be nil when no clinical analysis service is configured.
func NewHub(
	escalations *escalation.Controller,
	assignments clinical.AssignmentLookup,
	analyzer clinical.Analyzer,
	audit repo.AuditStore,
	events notify.Dispatcher,
	allowedOrigins []string,
	logger *zap.Logger,
) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		registry:       NewRegistry(logger),
		escalations:    escalations,
		assignments:    assignments,
		analyzer:       analyzer,
		audit:          audit,
		events:         events,
		logger:         logger,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		inbound:        make(chan inboundMessage, 4096), // buffer for burst handling
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, origin := range allowedOrigins {
		h.allowedOrigins[origin] = struct{}{}
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	h.router = NewRouter(h.registry, logger)
	h.reaper = NewReaper(h.registry, events, logger)
	h.router.SetReaper(h.reaper)
	h.reaper.SetRouter(h.router)

	if h.escalations != nil {
		h.escalations.SetBroadcaster(h)
	}

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.env, in.client)
				}
			}
		}()
	}

	return h
}

// Registry exposes the connection registry to the monitor service
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Router exposes the message router
func (h *Hub) Router() *Router {
	return h.router
}

// BroadcastAlert fans an alert frame out to every provider and admin
// connection. Implements escalation.Broadcaster.
func (h *Hub) BroadcastAlert(frame []byte, tier int) (delivered int, failed int) {
	report, err := h.router.Route(Delivery{
		Mode:  ModeRole,
		Roles: []model.Role{model.RoleProvider, model.RoleAdmin},
		Frame: frame,
	})
	if err != nil {
		h.logger.Error("alert broadcast failed", zap.Int("tier", tier), zap.Error(err))
		return 0, 0
	}
	return report.DeliveredCount(), report.FailedCount()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := h.allowedOrigins[origin]
	return ok
}

// ServeWS upgrades the request and registers the resulting connection.
// When user_id and user_type arrive with the handshake the connection is
// identified immediately; otherwise it stays unidentified and may not join
// rooms or receive role-addressed broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, role model.Role) {
	if userID != "" && !model.ValidRole(role) {
		http.Error(w, "invalid user_type", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, h)

	now := time.Now()
	record := model.Connection{
		ID:           client.ID,
		ConnectedAt:  now,
		LastActivity: now,
	}
	if userID != "" {
		record.UserID = userID
		record.Role = role
	}

	if err := h.registry.Register(record, client); err != nil {
		h.logger.Error("failed to register connection",
			zap.String("connection_id", client.ID),
			zap.Error(err),
		)
		conn.Close()
		return
	}

	go client.ReadMessages()
	go client.WriteMessages()

	h.logger.Info("connection accepted",
		zap.String("connection_id", client.ID),
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)
}

// Stop shuts the hub down: workers drain, then every client is closed.
// The inbound channel is never closed; read pumps may still be sending to
// it while their clients wind down, and workers exit on the context.
func (h *Hub) Stop() {
	h.cancel()
	h.wg.Wait()

	for _, target := range h.registry.All("") {
		if client, ok := target.Sink.(*Client); ok {
			client.Close()
		}
		h.registry.Remove(target.Conn.ID)
	}
}
