package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/coinkeeper/backend/internal/config"
)

// Notification is an outcome message for one account. The chat transport
// subscribes to the redis channel and handles actual delivery (DMs, embeds).
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Kind      string    `json:"kind"`
	ClaimID   int64     `json:"claim_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationSink is what the workflow needs from a dispatcher.
type NotificationSink interface {
	Enqueue(n Notification)
}

// Notifier delivers notifications best-effort: at most one attempt per job,
// any failure logged and discarded. Enqueue never blocks the caller and
// never surfaces an error, so the claim workflow cannot be slowed down or
// failed by delivery problems.
type Notifier struct {
	redis   *redis.Client
	channel string
	queue   chan Notification
	done    chan struct{}
}

func NewNotifier(redisClient *redis.Client, policy *config.ClaimPolicy) *Notifier {
	if policy == nil {
		policy = config.LoadClaimPolicy()
	}
	n := &Notifier{
		redis:   redisClient,
		channel: policy.NotifyChannel,
		queue:   make(chan Notification, policy.NotifyQueueSize),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Enqueue hands a job to the worker. If the queue is full the job is
// dropped, not the caller blocked.
func (n *Notifier) Enqueue(job Notification) {
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now()

	select {
	case n.queue <- job:
	default:
		log.Printf("[NOTIFY] Queue full, dropping notification %s for account %s", job.ID, job.AccountID)
	}
}

// Close drains the queue and stops the worker.
func (n *Notifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *Notifier) run() {
	for job := range n.queue {
		n.publish(job)
	}
	close(n.done)
}

func (n *Notifier) publish(job Notification) {
	if n.redis == nil {
		log.Printf("[NOTIFY] No transport configured, dropping notification %s", job.ID)
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("[NOTIFY] Failed to encode notification %s: %v", job.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.redis.Publish(ctx, n.channel, string(payload)).Err(); err != nil {
		log.Printf("[NOTIFY] Delivery failed for notification %s (account %s): %v", job.ID, job.AccountID, err)
		return
	}

	log.Printf("[NOTIFY] Published %s notification %s for account %s", job.Kind, job.ID, job.AccountID)
}
