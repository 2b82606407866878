package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tkogut/scalebridge/internal/types"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health())
}

func (h *handler) listDevices(w http.ResponseWriter, r *http.Request) {
	summaries := h.svc.ListDevices()
	devices := make([][3]string, 0, len(summaries))
	for _, s := range summaries {
		devices = append(devices, [3]string{s.DeviceID, s.Name, s.Model})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"devices": devices,
	})
}

type scaleCmdRequest struct {
	DeviceID string `json:"device_id"`
	Command  string `json:"command"`
}

func (h *handler) scaleCmd(w http.ResponseWriter, r *http.Request) {
	var req scaleCmdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed request body"})
		return
	}

	result, err := h.svc.Execute(req.DeviceID, req.Command)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, map[string]any{
			"success":   false,
			"device_id": req.DeviceID,
			"command":   req.Command,
			"error":     err.Error(),
		})
		return
	}

	var resultPayload any
	switch {
	case result.Reading != nil:
		resultPayload = result.Reading
	case result.Ack != nil:
		resultPayload = map[string]string{"message": result.Ack.Message}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"device_id": req.DeviceID,
		"command":   req.Command,
		"result":    resultPayload,
	})
}

func (h *handler) listConfigs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListConfigs())
}

type saveConfigRequest struct {
	DeviceID string              `json:"device_id"`
	Config   types.DeviceConfig `json:"config"`
}

func (h *handler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed request body"})
		return
	}
	if err := h.svc.SaveConfig(req.DeviceID, req.Config); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "device config saved"})
}

func (h *handler) deleteConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteConfig(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "device config deleted"})
}

func (h *handler) shutdown(w http.ResponseWriter, r *http.Request) {
	h.svc.Shutdown()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "shutting down"})
}
