// Package scheduler runs deferred work through asynq: follow-up reminder
// delivery and the periodic reminder sweep.
package scheduler

import "encoding/json"

const (
	// TaskFollowUpReminder delivers one scheduled follow-up reminder.
	TaskFollowUpReminder = "notification:followup"
	// TaskReminderSweep flushes every due reminder; enqueued periodically as
	// a safety net for reminders whose individual task was lost.
	TaskReminderSweep = "notification:sweep"
)

// FollowUpPayload identifies the notification to deliver.
type FollowUpPayload struct {
	NotificacionID int64 `json:"notificacion_id"`
}

func (p FollowUpPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func UnmarshalFollowUp(data []byte) (FollowUpPayload, error) {
	var p FollowUpPayload
	err := json.Unmarshal(data, &p)
	return p, err
}
