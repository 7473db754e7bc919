package logging

import "github.com/sirupsen/logrus"

// AssetFields is the common field set for asset-scoped log entries.
func AssetFields(action, assetID string) logrus.Fields {
	return logrus.Fields{
		"action":   action,
		"asset_id": assetID,
	}
}

// RequestFields describes one served HTTP request.
func RequestFields(requestID, method, path string, status int, latencyMs int64, clientIP string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
		"latency_ms": latencyMs,
		"client_ip":  clientIP,
	}
}
