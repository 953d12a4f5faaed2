package api

import (
	"encoding/json"
	"net/http"
	"time"

	"storekit-relay/internal/models"
	"storekit-relay/internal/response"
	"storekit-relay/internal/services"
	"storekit-relay/pkg/logging"

	"github.com/gin-gonic/gin"
)

// AppStoreNotificationHandler adapts the storefront webhook POST to the
// processing pipeline. The path environment only labels logs and the
// heartbeat reply; the trusted environment comes from the verified
// payload.
func AppStoreNotificationHandler(pipeline *services.Pipeline, pathEnvironment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		body, err := c.GetRawData()
		if err != nil {
			logging.Errorf("Failed to read request body: %v", err)
			response.ErrorJSON(c, http.StatusBadRequest, "Failed to read request body")
			return
		}

		// Apple probes endpoints with empty POSTs.
		if len(body) == 0 {
			logging.Infof("AppStore heartbeat - environment: %s", pathEnvironment)
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"status":  "heartbeat_ok",
			})
			return
		}

		var envelope models.NotificationEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			logging.Errorf("Failed to parse notification wrapper: %v, body length: %d", err, len(body))
			response.ErrorJSON(c, http.StatusBadRequest, "Invalid notification format")
			return
		}

		outcome := pipeline.Process(c.Request.Context(), envelope.SignedPayload)

		uuid, notificationType, environment := "", "", ""
		if n := outcome.Notification; n != nil {
			uuid, notificationType, environment = n.NotificationUUID, n.NotificationType, n.Environment
		}
		if outcome.Err != nil {
			logging.Errorf("AppStore notification %s - uuid: %s, type: %s, environment: %s, error: %v",
				outcome.Result, uuid, notificationType, environment, outcome.Err)
		} else {
			logging.Infof("AppStore notification %s - uuid: %s, type: %s, environment: %s, time: %v",
				outcome.Result, uuid, notificationType, environment, time.Since(startTime))
		}

		switch outcome.Result {
		case services.ResultPushed, services.ResultIgnored, services.ResultDeduped:
			response.SuccessJSON(c, gin.H{"result": string(outcome.Result)})
		case services.ResultInvalidPayload:
			response.ErrorJSON(c, http.StatusBadRequest, "Invalid notification payload")
		case services.ResultInvalidSignature:
			response.ErrorJSON(c, http.StatusUnauthorized, "Signature verification failed")
		default:
			// INFRA_ERROR and CONFIGURATION_ERROR: non-2xx so the
			// storefront re-delivers once the condition clears.
			response.ErrorJSON(c, http.StatusInternalServerError, "Failed to process notification")
		}
	}
}
