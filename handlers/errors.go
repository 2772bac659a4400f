package handlers

import (
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// apiError sends a uniform JSON error body. Handlers log the underlying
// cause themselves; the client only ever sees the message.
func apiError(e *core.RequestEvent, statusCode int, message string) error {
	return e.JSON(statusCode, map[string]string{"error": message})
}

// apiErrorLog logs the cause with a component prefix and sends the
// client-facing message.
func apiErrorLog(e *core.RequestEvent, statusCode int, component, message string, cause error) error {
	log.Printf("%s: %s: %v", component, message, cause)
	return apiError(e, statusCode, message)
}
