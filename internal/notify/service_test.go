package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryNotifyRepo struct {
	notifications map[int64]Notification
	vendorUsers   map[int64]struct {
		userID int64
		email  string
	}
	nextID int64
}

func newMemoryNotifyRepo() *memoryNotifyRepo {
	return &memoryNotifyRepo{
		notifications: make(map[int64]Notification),
		vendorUsers: make(map[int64]struct {
			userID int64
			email  string
		}),
	}
}

func (r *memoryNotifyRepo) addVendorUser(vendorID, userID int64, email string) {
	r.vendorUsers[vendorID] = struct {
		userID int64
		email  string
	}{userID: userID, email: email}
}

func (r *memoryNotifyRepo) Insert(ctx context.Context, n Notification) (int64, error) {
	r.nextID++
	n.ID = r.nextID
	r.notifications[n.ID] = n
	return n.ID, nil
}

func (r *memoryNotifyRepo) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int, error) {
	var out []Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (r *memoryNotifyRepo) MarkRead(ctx context.Context, id, userID int64) error {
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

func (r *memoryNotifyRepo) FindVendorUser(ctx context.Context, vendorID int64) (int64, string, error) {
	user, ok := r.vendorUsers[vendorID]
	if !ok {
		return 0, "", ErrNotFound
	}
	return user.userID, user.email, nil
}

type recordingMailQueue struct {
	sent []string
	err  error
}

func (q *recordingMailQueue) EnqueueSendEmail(ctx context.Context, to, subject, body string) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, to)
	return nil
}

func TestEmitRecordsAndMails(t *testing.T) {
	repo := newMemoryNotifyRepo()
	repo.addVendorUser(3, 7, "portal@acme.example")
	mail := &recordingMailQueue{}
	svc := NewService(repo, mail, nil)

	err := svc.Emit(context.Background(), "bill.created", 3, "bill", 11, "Bill INV-11 has been issued")
	require.NoError(t, err)

	list, total, err := svc.ListForUser(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "bill.created", list[0].EventType)
	require.Equal(t, int64(11), list[0].EntityID)
	require.False(t, list[0].Read)

	require.Equal(t, []string{"portal@acme.example"}, mail.sent)
}

func TestEmitSkipsVendorsWithoutPortalUser(t *testing.T) {
	repo := newMemoryNotifyRepo()
	mail := &recordingMailQueue{}
	svc := NewService(repo, mail, nil)

	err := svc.Emit(context.Background(), "order.approved", 99, "purchase_order", 5, "Order approved")
	require.NoError(t, err)
	require.Empty(t, repo.notifications)
	require.Empty(t, mail.sent)
}

func TestEmitSurvivesMailFailure(t *testing.T) {
	repo := newMemoryNotifyRepo()
	repo.addVendorUser(3, 7, "portal@acme.example")
	mail := &recordingMailQueue{err: errors.New("broker down")}
	svc := NewService(repo, mail, nil)

	err := svc.Emit(context.Background(), "bill.paid", 3, "bill", 11, "Bill paid")
	require.NoError(t, err)
	require.Len(t, repo.notifications, 1)
}

func TestMarkReadScopedToUser(t *testing.T) {
	repo := newMemoryNotifyRepo()
	repo.addVendorUser(3, 7, "portal@acme.example")
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Emit(context.Background(), "bill.created", 3, "bill", 11, "msg"))

	list, _, err := svc.ListForUser(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, svc.MarkRead(context.Background(), list[0].ID, 8), ErrNotFound)
	require.NoError(t, svc.MarkRead(context.Background(), list[0].ID, 7))

	list, _, err = svc.ListForUser(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.True(t, list[0].Read)
}
