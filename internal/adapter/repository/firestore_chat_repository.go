package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(chatsCollection).Doc(id)
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	_, err := r.doc(chat.ID).Create(ctx, encodeChat(chat))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Chat already exists", err)
		}
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	return decodeChat(doc.Ref.ID, doc.Data()), nil
}

func (r *firestoreChatRepository) participantQuery(userID string) firestore.Query {
	return r.client.Collection(chatsCollection).Where("userIds", "array-contains", userID)
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	iter := r.participantQuery(userID).Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing chats for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to list chats", err)
		}
		chats = append(chats, decodeChat(doc.Ref.ID, doc.Data()))
	}

	sortChats(chats)
	return chats, nil
}

func (r *firestoreChatRepository) UpdateLastMessage(ctx context.Context, chatID string, update entity.LastMessageUpdate) error {
	// Only the sender's own snapshot is touched so a concurrent write by the
	// other participant is not lost.
	updates := []firestore.Update{
		{Path: "lastMessage", Value: update.Text},
		{Path: "lastMessageTime", Value: update.Time},
		{Path: "lastSender", Value: update.Sender.ID},
		{FieldPath: firestore.FieldPath{"users", update.Sender.ID}, Value: encodeProfile(update.Sender)},
	}

	return r.update(ctx, chatID, updates, "Failed to update last message")
}

func (r *firestoreChatRepository) SetLastRead(ctx context.Context, chatID, userID string, at int64) error {
	updates := []firestore.Update{
		{FieldPath: firestore.FieldPath{entity.LastReadField(userID)}, Value: at},
	}
	return r.update(ctx, chatID, updates, "Failed to mark chat as read")
}

func (r *firestoreChatRepository) SetTyping(ctx context.Context, chatID, userID string, typing bool, at time.Time) error {
	updates := []firestore.Update{
		{FieldPath: firestore.FieldPath{entity.TypingField(userID)}, Value: typing},
		{FieldPath: firestore.FieldPath{entity.TypingAtField(userID)}, Value: at},
	}
	return r.update(ctx, chatID, updates, "Failed to update typing status")
}

func (r *firestoreChatRepository) SetDisabled(ctx context.Context, chatID string, disabled bool) error {
	updates := []firestore.Update{
		{Path: "chat_disabled", Value: disabled},
	}
	return r.update(ctx, chatID, updates, "Failed to update chat")
}

func (r *firestoreChatRepository) update(ctx context.Context, chatID string, updates []firestore.Update, message string) error {
	_, err := r.doc(chatID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal(message, err)
	}
	return nil
}

func (r *firestoreChatRepository) Watch(ctx context.Context, chatID string, fn func(*entity.Chat)) error {
	iter := r.doc(chatID).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if streamClosed(ctx, err) {
				return nil
			}
			return errors.Internal("Chat snapshot stream failed", err)
		}
		if !snap.Exists() {
			fn(nil)
			continue
		}
		fn(decodeChat(snap.Ref.ID, snap.Data()))
	}
}

func (r *firestoreChatRepository) WatchByUserID(ctx context.Context, userID string, fn func([]*entity.Chat)) error {
	iter := r.participantQuery(userID).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if streamClosed(ctx, err) {
				return nil
			}
			return errors.Internal("Chat list snapshot stream failed", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return errors.Internal("Failed to read chat list snapshot", err)
		}

		chats := make([]*entity.Chat, 0, len(docs))
		for _, doc := range docs {
			chats = append(chats, decodeChat(doc.Ref.ID, doc.Data()))
		}
		sortChats(chats)
		fn(chats)
	}
}

func sortChats(chats []*entity.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastMessageTime.After(chats[j].LastMessageTime)
	})
}

// streamClosed reports whether a snapshot iterator stopped because its
// listener was torn down rather than because the stream failed.
func streamClosed(ctx context.Context, err error) bool {
	if ctx.Err() != nil || err == iterator.Done {
		return true
	}
	return status.Code(err) == codes.Canceled
}
