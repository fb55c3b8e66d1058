package models

// QueueStatus is the aggregate gating verdict for a transfer queue
type QueueStatus string

const (
	QueueRunning               QueueStatus = "running"
	QueueEmpty                 QueueStatus = "empty"
	QueueSuspended             QueueStatus = "suspended"
	QueueNotRegisteredAndReady QueueStatus = "not_registered_and_ready"
	QueueNoWifiReachability    QueueStatus = "no_wifi_reachability"
	QueueNoReachability        QueueStatus = "no_reachability"
	QueueLowBattery            QueueStatus = "low_battery"
	QueueLowDiskSpace          QueueStatus = "low_disk_space"
	QueueAppBackgrounded       QueueStatus = "app_backgrounded"
	QueueHasConsumedCapacity   QueueStatus = "has_consumed_capacity"
)

// QueueKind names one of the two transfer queues
type QueueKind string

const (
	QueueDownload QueueKind = "download"
	QueueUpload   QueueKind = "upload"
)
