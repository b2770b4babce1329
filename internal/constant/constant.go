package constant

import "time"

const (
	DefaultShipmentTableName     = "scm-shipments"
	DefaultNotificationTableName = "scm-notifications"
	DefaultRetryMaxAttempts      = 10
	DefaultPollingInterval       = time.Second
	DefaultConcurrency           = 3
	DefaultEnvPrefix             = "SCM"
)
