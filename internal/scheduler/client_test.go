package scheduler

import (
	"context"
	"testing"
	"time"

	"crm_viajes_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	url string
}

func (c testConfig) GetRedisURL() string       { return c.url }
func (c testConfig) GetAsynqQueueName() string { return "default" }

func TestNewClientDisabledWithoutRedis(t *testing.T) {
	client, err := NewClient(testConfig{}, logger.New("development"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatal("empty redis url must disable scheduling")
	}
}

func TestEnqueueFollowUpReminder(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testConfig{url: "redis://" + mr.Addr()}, logger.New("development"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("client must be enabled")
	}
	defer client.Close()

	at := time.Now().Add(time.Hour)
	if err := client.EnqueueFollowUpReminder(context.Background(), 42, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("default")
	if err != nil {
		t.Fatalf("listar tareas: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(scheduled))
	}
	if scheduled[0].Type != TaskFollowUpReminder {
		t.Errorf("task type = %q", scheduled[0].Type)
	}
	payload, err := UnmarshalFollowUp(scheduled[0].Payload)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.NotificacionID != 42 {
		t.Errorf("notificacion_id = %d, want 42", payload.NotificacionID)
	}
}
