package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"uniBlocAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher persists notifications and pushes them to devices
// through a small worker pool, so validation requests never wait on FCM.
type NotificationDispatcher struct {
	db           DB
	profiles     *ProfileService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *dispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type dispatchJob struct {
	notification *notification.Notification
	tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(db DB, profiles *ProfileService) *NotificationDispatcher {
	d := &NotificationDispatcher{
		db:       db,
		profiles: profiles,
		workers:  5,
		jobQueue: make(chan *dispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	d.startWorkers()
	go d.cleanupOldNotifications()

	return d
}

// SetPushProvider injects the real FCM provider from main.go. Without a
// provider notifications are stored but never pushed.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if d.pushProvider == nil || len(job.tokens) == 0 {
		return
	}

	n := job.notification
	if err := d.pushProvider.SendPush(ctx, job.tokens, n.Title, n.Body, n.Data); err != nil {
		log.Printf("Push failed for notification %s: %v", n.ID, err)
	}
}

// NotifyUser stores a notification for one user and pushes it to their
// registered devices.
func (d *NotificationDispatcher) NotifyUser(ctx context.Context, userID uuid.UUID, typ notification.NotificationType, title, body string, data map[string]any) error {
	n, err := d.storeNotification(ctx, userID, typ, title, body, data)
	if err != nil {
		return err
	}

	tokens, err := d.userTokens(ctx, userID)
	if err != nil {
		log.Printf("Failed to load device tokens for user %s: %v", userID, err)
		return nil
	}

	d.enqueue(n, tokens)
	return nil
}

// NotifyOthers stores nothing and pushes to every device except the given
// user's. Used for new validation requests, which address no one in
// particular and are served from the pending list, not the inbox.
func (d *NotificationDispatcher) NotifyOthers(ctx context.Context, exclude uuid.UUID, title, body string, data map[string]any) {
	tokens, err := d.profiles.DeviceTokensExcept(ctx, exclude)
	if err != nil {
		log.Printf("Failed to load reviewer device tokens: %v", err)
		return
	}

	n := &notification.Notification{
		ID:    uuid.New(),
		Type:  notification.NotificationValidationRequest,
		Title: title,
		Body:  body,
		Data:  data,
	}
	d.enqueue(n, tokens)
}

func (d *NotificationDispatcher) enqueue(n *notification.Notification, tokens []notification.DeviceToken) {
	job := &dispatchJob{notification: n, tokens: tokens}
	select {
	case d.jobQueue <- job:
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue notification %s: queue full", n.ID)
	}
}

func (d *NotificationDispatcher) storeNotification(ctx context.Context, userID uuid.UUID, typ notification.NotificationType, title, body string, data map[string]any) (*notification.Notification, error) {
	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO notifications (id, user_id, type, title, body, is_read, data, created_at)
	VALUES ($1, $2, $3, $4, $5, false, $6, $7)
	`

	if _, err := d.db.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Body, dataJSON, n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotifications returns the user's inbox, newest first.
func (d *NotificationDispatcher) GetNotifications(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, user_id, type, title, body, is_read, data, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.IsRead, &dataJSON, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				log.Printf("Failed to decode notification data for %s: %v", n.ID, err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (d *NotificationDispatcher) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	_, err := d.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, notificationID, userID)
	return err
}

func (d *NotificationDispatcher) userTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := d.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// cleanupOldNotifications prunes read notifications daily.
func (d *NotificationDispatcher) cleanupOldNotifications() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tag, err := d.db.Exec(context.Background(), `
				DELETE FROM notifications
				WHERE is_read = true AND created_at < NOW() - INTERVAL '90 days'`)
			if err != nil {
				log.Printf("Failed to clean up notifications: %v", err)
				continue
			}
			if tag.RowsAffected() > 0 {
				log.Printf("Cleaned up %d old notifications", tag.RowsAffected())
			}
		case <-d.stopChan:
			return
		}
	}
}

// Stop drains the worker pool.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}
