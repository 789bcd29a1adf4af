package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
)

type firestoreBlockRepository struct {
	client *firestore.Client
}

func NewFirestoreBlockRepository(client *firestore.Client) repository.BlockRepository {
	return &firestoreBlockRepository{
		client: client,
	}
}

func (r *firestoreBlockRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(blockedUsersCollection).Doc(userID)
}

func (r *firestoreBlockRepository) Get(ctx context.Context, userID string) (*entity.BlockList, error) {
	doc, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &entity.BlockList{UserID: userID}, nil
		}
		return nil, errors.Internal("Failed to get block list", err)
	}

	return &entity.BlockList{
		UserID:       userID,
		BlockedUsers: toStringSlice(doc.Data()["blockedUsers"]),
	}, nil
}

func (r *firestoreBlockRepository) Add(ctx context.Context, userID, targetID string) error {
	data := map[string]interface{}{
		"blockedUsers": firestore.ArrayUnion(targetID),
	}
	if _, err := r.doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to block user", err)
	}
	return nil
}

func (r *firestoreBlockRepository) Remove(ctx context.Context, userID, targetID string) error {
	data := map[string]interface{}{
		"blockedUsers": firestore.ArrayRemove(targetID),
	}
	if _, err := r.doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to unblock user", err)
	}
	return nil
}
