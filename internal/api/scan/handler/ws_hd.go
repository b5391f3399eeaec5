package scanHandler

import (
	"errors"
	"heimdall/internal/api/scan"
	"heimdall/internal/middleware"
	contextPkg "heimdall/pkg/context"
	"heimdall/pkg/response"
	"net/http"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	wsZoneLocalsKey     = "zone_id"
	wsClientIPLocalsKey = "client_ip"
	wsMaxReadTimeout    = 60 * time.Second
	wsWriteTimeout      = 10 * time.Second
)

type wsErrorMessage struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// handleScanWebSocket treats every binary message as a frame and every text message as a
// base64 frame, answering each with the same JSON the POST endpoint returns.
func (h *ScanHandler) handleScanWebSocket(c *websocket.Conn) {
	zoneID, _ := c.Locals(wsZoneLocalsKey).(string)
	requestID, _ := c.Locals(contextPkg.RequestIDHeaderKey).(string)
	clientIP, _ := c.Locals(wsClientIPLocalsKey).(string)

	fields := logrus.Fields{
		"request_id": requestID,
		"zone_id":    zoneID,
		"client_ip":  clientIP,
	}
	h.log.WithFields(fields).Info("Scan WebSocket client connected")
	defer h.log.WithFields(fields).Info("Scan WebSocket client disconnected")

	if zoneID != "" {
		if err := h.validator.Struct(scan.ScanRequest{ZoneID: zoneID}); err != nil {
			_ = h.writeJSON(c, wsErrorMessage{Error: "Validation failed: " + err.Error(), Code: http.StatusBadRequest})
			return
		}
	}

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsMaxReadTimeout)); err != nil {
			h.log.WithFields(fields).Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Errorf("Scan WebSocket error: %v", err)
			}
			break
		}

		input := scan.ScanInput{ZoneID: zoneID}
		switch messageType {
		case websocket.BinaryMessage:
			input.ImageBytes = message
		case websocket.TextMessage:
			input.ImageBase64 = string(message)
		default:
			continue
		}

		if !h.middleware.AllowFrame(clientIP) {
			h.log.WithFields(fields).Warn("Too many frames")
			if err := h.writeJSON(c, wsErrorMessage{Error: middleware.ErrTooManyRequests.Error(), Code: http.StatusTooManyRequests}); err != nil {
				break
			}
			continue
		}

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), h.timeout)
		result, err := h.scanService.Scan(ctx, input)
		cancel()

		var reply interface{}
		if err != nil {
			h.log.WithFields(fields).WithError(err).Warn("Error processing scan frame")
			reply = wsErrorMessage{
				Error: publicMessage(err),
				Code:  response.CodeOf(err, http.StatusInternalServerError),
			}
		} else {
			reply = toScanResponse(result)
		}

		if err := h.writeJSON(c, reply); err != nil {
			h.log.WithFields(fields).Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func (h *ScanHandler) writeJSON(c *websocket.Conn, v interface{}) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := c.WriteJSON(v); err != nil {
		return err
	}
	return c.SetWriteDeadline(time.Time{})
}

func publicMessage(err error) string {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Error()
	}
	return "Internal Server Error"
}
