package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/clinical"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/triage"

	"go.uber.org/zap"
)

const analysisTimeout = 15 * time.Second

// handleEvent dispatches one inbound frame by its route key. The route set
// is closed: unknown keys earn the sender an error envelope, never a silent
// drop. Every request ends in either a confirmation or an error.
func (h *Hub) handleEvent(env event.Envelope, c *Client) {
	switch env.Action {
	case event.RouteSendMessage:
		h.handleSendMessage(env, c)
	case event.RouteJoinRoom:
		h.handleJoinRoom(env, c)
	case event.RouteLeaveRoom:
		h.handleLeaveRoom(c)
	case event.RouteBroadcast:
		h.handleBroadcast(env, c)
	case event.RouteHealthData:
		h.handleHealthData(env, c)
	case event.RouteEmergencyAlert:
		h.handleEmergencyAlert(env, c)
	default:
		h.logger.Warn("unknown route",
			zap.String("action", env.Action),
			zap.String("connection_id", c.ID),
		)
		h.sendError(c, "Unknown route: "+env.Action)
	}
}

// handleSendMessage delivers a payload to every live connection of one user
func (h *Hub) handleSendMessage(env event.Envelope, c *Client) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.TargetUserID == "" {
		h.sendError(c, "Invalid payload for route: "+event.RouteSendMessage)
		return
	}

	sender, _ := h.registry.Get(c.ID)

	frame := event.Marshal(event.DirectMessage{
		Type:        event.TypeDirectMessage,
		FromUserID:  sender.UserID,
		Message:     payload.Message,
		MessageType: payload.Type,
		Timestamp:   time.Now().Unix(),
	})

	report, err := h.router.Route(Delivery{
		Mode:         ModeDirect,
		SenderConnID: c.ID,
		TargetUserID: payload.TargetUserID,
		Frame:        frame,
	})
	if err != nil {
		h.sendError(c, "Invalid payload for route: "+event.RouteSendMessage)
		return
	}

	if report.TargetCount() == 0 {
		h.sendError(c, "Target user not connected")
		return
	}

	c.send(event.MessageSentAck{
		Type:                   event.TypeMessageSent,
		TargetUserID:           payload.TargetUserID,
		DeliveredToConnections: report.DeliveredCount(),
		Timestamp:              time.Now().Unix(),
	})
}

// handleJoinRoom moves the sender into a room and announces it to the
// existing members
func (h *Hub) handleJoinRoom(env event.Envelope, c *Client) {
	var payload event.JoinRoomPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.RoomID == "" {
		h.sendError(c, "Invalid payload for route: "+event.RouteJoinRoom)
		return
	}

	if err := h.registry.JoinRoom(c.ID, payload.RoomID); err != nil {
		switch err {
		case ErrUnidentifiedConnection:
			h.sendError(c, "Connection must be identified to join a room")
		default:
			h.sendError(c, "Failed to join room")
		}
		return
	}

	sender, _ := h.registry.Get(c.ID)

	// Notify existing members, never the joiner itself
	notice := event.Marshal(event.RoomMembershipNotice{
		Type:      event.TypeUserJoinedRoom,
		RoomID:    payload.RoomID,
		UserID:    sender.UserID,
		UserType:  sender.Role,
		Timestamp: time.Now().Unix(),
	})
	if _, err := h.router.Route(Delivery{
		Mode:         ModeRoom,
		SenderConnID: c.ID,
		RoomID:       payload.RoomID,
		Frame:        notice,
	}); err != nil {
		h.logger.Warn("room join notification failed",
			zap.String("room_id", payload.RoomID),
			zap.Error(err),
		)
	}

	c.send(event.RoomJoinedAck{
		Type:        event.TypeRoomJoined,
		RoomID:      payload.RoomID,
		MemberCount: len(h.registry.ByRoom(payload.RoomID, "")),
		Timestamp:   time.Now().Unix(),
	})
}

// handleLeaveRoom clears the sender's room membership. Leaving a room the
// connection is not in is a no-op, confirmed all the same.
func (h *Hub) handleLeaveRoom(c *Client) {
	roomID := h.registry.LeaveRoom(c.ID)

	if roomID != "" {
		sender, _ := h.registry.Get(c.ID)
		notice := event.Marshal(event.RoomMembershipNotice{
			Type:      event.TypeUserLeftRoom,
			RoomID:    roomID,
			UserID:    sender.UserID,
			UserType:  sender.Role,
			Timestamp: time.Now().Unix(),
		})
		if _, err := h.router.Route(Delivery{
			Mode:         ModeRoom,
			SenderConnID: c.ID,
			RoomID:       roomID,
			Frame:        notice,
		}); err != nil {
			h.logger.Warn("room leave notification failed",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
		}
	}

	c.send(event.RoomJoinedAck{
		Type:        event.TypeRoomLeft,
		RoomID:      roomID,
		MemberCount: len(h.registry.ByRoom(roomID, "")),
		Timestamp:   time.Now().Unix(),
	})
}

// handleBroadcast fans a payload out by room, role, or to everyone.
// Self-exclusion is mandatory: a sender never receives its own broadcast.
func (h *Hub) handleBroadcast(env event.Envelope, c *Client) {
	var payload event.BroadcastPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		h.sendError(c, "Invalid payload for route: "+event.RouteBroadcast)
		return
	}

	sender, _ := h.registry.Get(c.ID)

	delivery := Delivery{
		SenderConnID: c.ID,
		Frame: event.Marshal(event.BroadcastMessage{
			Type:          event.TypeBroadcast,
			FromUserID:    sender.UserID,
			FromUserType:  sender.Role,
			Message:       payload.Message,
			BroadcastType: payload.BroadcastType,
			RoomID:        payload.RoomID,
			Timestamp:     time.Now().Unix(),
		}),
	}

	switch payload.BroadcastType {
	case event.BroadcastRoom:
		delivery.Mode = ModeRoom
		delivery.RoomID = payload.RoomID
		if delivery.RoomID == "" {
			delivery.RoomID = sender.RoomID
		}
	case event.BroadcastAll:
		delivery.Mode = ModeAll
	case event.BroadcastUserType:
		delivery.Mode = ModeRole
		delivery.Roles = []model.Role{payload.TargetUserType}
	default:
		h.sendError(c, "Unknown broadcast_type: "+payload.BroadcastType)
		return
	}

	report, err := h.router.Route(delivery)
	if err != nil {
		h.sendError(c, "Invalid payload for route: "+event.RouteBroadcast)
		return
	}

	c.send(event.BroadcastSentAck{
		Type:                   event.TypeBroadcastSent,
		DeliveredToConnections: report.DeliveredCount(),
		Timestamp:              time.Now().Unix(),
	})
}

// handleHealthData scores inbound clinical data, streams it to the
// patient's monitoring providers, and raises an alert when the composite
// emergency risk crosses the critical threshold.
func (h *Hub) handleHealthData(env event.Envelope, c *Client) {
	var payload event.HealthDataPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.PatientID == "" {
		h.sendError(c, "Invalid payload for route: "+event.RouteHealthData)
		return
	}

	assessment := triage.Score(
		payload.HealthData.VitalSigns,
		payload.HealthData.Symptoms,
		payload.HealthData.MedicalHistory,
	)

	// Audit and clinical analysis run off the routing path; their failures
	// are logged and isolated.
	go h.recordAssessment(payload, assessment)

	providers, err := h.assignments.ProvidersForPatient(h.ctx, payload.PatientID)
	if err != nil {
		h.sendError(c, "Provider lookup failed")
		return
	}

	report := DeliveryReport{}
	if len(providers) > 0 {
		frame := event.Marshal(event.VitalsUpdate{
			Type:       event.TypeVitalsUpdate,
			PatientID:  payload.PatientID,
			DataType:   payload.DataType,
			HealthData: payload.HealthData,
			Risk:       assessment,
			Timestamp:  time.Now().Unix(),
		})

		report, err = h.router.Route(Delivery{
			Mode:          ModeDirect,
			SenderConnID:  c.ID,
			TargetUserIDs: providers,
			Frame:         frame,
		})
		if err != nil {
			h.logger.Warn("vitals fan-out failed",
				zap.String("patient_id", payload.PatientID),
				zap.Error(err),
			)
		}
	}

	if assessment.Urgency.AtLeast(model.UrgencyCritical) && h.escalations != nil {
		alertData, _ := json.Marshal(payload.HealthData)
		h.escalations.Create(payload.PatientID, assessment.Urgency, alertData)
	}

	c.send(event.VitalsReceivedAck{
		Type:                 event.TypeVitalsReceived,
		PatientID:            payload.PatientID,
		UrgencyLevel:         assessment.Urgency,
		DeliveredToProviders: report.DeliveredCount(),
		Timestamp:            time.Now().Unix(),
	})
}

// handleEmergencyAlert raises an alert explicitly on behalf of a patient
func (h *Hub) handleEmergencyAlert(env event.Envelope, c *Client) {
	var payload event.EmergencyAlertPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.PatientID == "" {
		h.sendError(c, "Invalid payload for route: "+event.RouteEmergencyAlert)
		return
	}

	urgency := payload.UrgencyLevel
	if urgency == "" {
		urgency = model.UrgencyCritical
	}

	if h.escalations == nil {
		h.sendError(c, "Escalation is not configured")
		return
	}

	alert, delivered := h.escalations.Create(payload.PatientID, urgency, payload.AlertData)

	c.send(event.AlertRaisedAck{
		Type:                   event.TypeAlertRaised,
		AlertID:                alert.ID,
		Tier:                   alert.Tier,
		DeliveredToConnections: delivered,
		Timestamp:              time.Now().Unix(),
	})
}

// recordAssessment appends the scored assessment to the audit trail and,
// when an analyzer is configured, requests a structured clinical analysis
func (h *Hub) recordAssessment(payload event.HealthDataPayload, assessment model.RiskAssessment) {
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	if h.audit != nil {
		if err := h.audit.AppendAssessment(ctx, &model.AssessmentRecord{
			PatientID:  payload.PatientID,
			DataType:   payload.DataType,
			Vitals:     payload.HealthData.VitalSigns,
			Symptoms:   payload.HealthData.Symptoms,
			Assessment: assessment,
		}); err != nil {
			h.logger.Warn("assessment audit append failed",
				zap.String("patient_id", payload.PatientID),
				zap.Error(err),
			)
		}
	}

	if h.analyzer == nil {
		return
	}

	result, err := h.analyzer.Analyze(ctx, clinicalRequest(payload))
	if err != nil {
		h.logger.Warn("clinical analysis failed",
			zap.String("patient_id", payload.PatientID),
			zap.Error(err),
		)
		return
	}

	if h.events != nil {
		h.events.Emit("analysis_completed", map[string]interface{}{
			"patient_id": payload.PatientID,
			"summary":    result.Summary,
			"confidence": result.Confidence,
		})
	}
}

func clinicalRequest(payload event.HealthDataPayload) clinical.AnalysisRequest {
	return clinical.AnalysisRequest{
		PatientID:   payload.PatientID,
		Symptoms:    payload.HealthData.Symptoms,
		VitalSigns:  payload.HealthData.VitalSigns,
		History:     payload.HealthData.MedicalHistory,
		Medications: payload.HealthData.Medications,
	}
}

func (h *Hub) sendError(c *Client, message string) {
	c.send(event.ErrorNotice{
		Type:      event.TypeError,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}
