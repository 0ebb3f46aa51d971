package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by callers of the agency core app's sync endpoints.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
