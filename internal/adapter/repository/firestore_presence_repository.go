package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type firestorePresenceRepository struct {
	client *firestore.Client
}

func NewFirestorePresenceRepository(client *firestore.Client) repository.PresenceRepository {
	return &firestorePresenceRepository{
		client: client,
	}
}

func (r *firestorePresenceRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(presenceCollection).Doc(userID)
}

func (r *firestorePresenceRepository) SetOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	data := map[string]interface{}{
		"online":   online,
		"lastSeen": firestore.ServerTimestamp,
	}
	if online {
		data["lastUpdate"] = at.UnixMilli()
	}

	if _, err := r.doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to update presence", err)
	}
	return nil
}

func (r *firestorePresenceRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	data := map[string]interface{}{
		"lastUpdate": at.UnixMilli(),
	}
	if _, err := r.doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to refresh presence heartbeat", err)
	}
	return nil
}

func (r *firestorePresenceRepository) Get(ctx context.Context, userID string) (*entity.Presence, error) {
	doc, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &entity.Presence{UserID: userID}, nil
		}
		return nil, errors.Internal("Failed to get presence", err)
	}
	return decodePresence(userID, doc), nil
}

func (r *firestorePresenceRepository) Watch(ctx context.Context, userID string, fn func(*entity.Presence)) error {
	iter := r.doc(userID).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if streamClosed(ctx, err) {
				return nil
			}
			return errors.Internal("Presence snapshot stream failed", err)
		}
		fn(decodePresence(userID, snap))
	}
}

func decodePresence(userID string, snap *firestore.DocumentSnapshot) *entity.Presence {
	presence := &entity.Presence{UserID: userID}
	if snap == nil || !snap.Exists() {
		return presence
	}
	data := snap.Data()
	presence.Online = toBool(data["online"])
	presence.LastSeen = toTime(data["lastSeen"])
	presence.LastUpdate = toInt64(data["lastUpdate"])
	return presence
}
