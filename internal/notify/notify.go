// Package notify dispatches best-effort notifications to recipients who
// have no live session, through a Redis-backed task queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"fitlink/server/internal/chat"
	"fitlink/server/internal/models"
	"fitlink/server/internal/store"
)

// TypeMessageNotify is the task type for a new-message notification.
const TypeMessageNotify = "message:notify"

// MessagePayload is the task payload for TypeMessageNotify.
type MessagePayload struct {
	MessageID   string `json:"messageId"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

// Notifier enqueues notification tasks.
type Notifier struct {
	client *asynq.Client
}

// NewNotifier creates a task queue client from a Redis URL.
func NewNotifier(redisURL string) (*Notifier, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("notify: parse redis url: %w", err)
	}
	return &Notifier{client: asynq.NewClient(opt)}, nil
}

// Close releases the queue client.
func (n *Notifier) Close() {
	if n != nil && n.client != nil {
		_ = n.client.Close()
	}
}

// NotifyOffline enqueues a notification for a message whose recipient has
// no live session. Queue failures are logged and never fail the send.
func (n *Notifier) NotifyOffline(ctx context.Context, msg models.Message) {
	if n == nil || n.client == nil {
		return
	}
	payload, err := json.Marshal(MessagePayload{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
	})
	if err != nil {
		log.Printf("notify: marshal payload: %v", err)
		return
	}
	task := asynq.NewTask(TypeMessageNotify, payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("notify"), asynq.MaxRetry(3)); err != nil {
		log.Printf("notify: enqueue message %s: %v", msg.ID, err)
	}
}

// Worker processes notification tasks in-process.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	profiles store.ProfileDirectory
}

// NewWorker creates a queue worker consuming the notify queue.
func NewWorker(redisURL string, profiles store.ProfileDirectory) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("notify: parse redis url: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"notify": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Printf("notify: task %s failed: %v", task.Type(), err)
		}),
	})

	w := &Worker{server: srv, mux: asynq.NewServeMux(), profiles: profiles}
	w.mux.HandleFunc(TypeMessageNotify, w.handleMessageNotify)
	return w, nil
}

// Start begins consuming tasks. It returns once the server is running.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("notify: start worker: %w", err)
	}
	return nil
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleMessageNotify(ctx context.Context, task *asynq.Task) error {
	var p MessagePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	senderName := chat.PlaceholderName(p.SenderID)
	if w.profiles != nil {
		if name, err := w.profiles.ResolveDisplayName(ctx, p.SenderID); err == nil && name != "" {
			senderName = name
		}
	}

	// Delivery channels (push, email) belong to the main application; this
	// service hands the event off via its log-structured output.
	log.Printf("notify: message %s for %s from %s", p.MessageID, p.RecipientID, senderName)
	return nil
}
