package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(chatID string) *firestore.CollectionRef {
	return r.client.Collection(chatsCollection).Doc(chatID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) roomMessages(showID string) *firestore.CollectionRef {
	return r.client.Collection(chatsCollection).Doc(showID).Collection(roomMessagesCollection)
}

// Dates are fixed-width epoch-millis strings, so ordering by the string
// field orders chronologically.
func (r *firestoreMessageRepository) orderedMessages(chatID string) firestore.Query {
	return r.messages(chatID).OrderBy("date", firestore.Asc)
}

func (r *firestoreMessageRepository) Create(ctx context.Context, chatID string, message *entity.Message) error {
	data := map[string]interface{}{
		"message":          message.Message,
		"sender":           message.Sender,
		"senderName":       message.SenderName,
		"senderProfileUrl": message.SenderProfileURL,
		"date":             message.Date,
		"seen":             message.Seen,
	}
	if len(message.Mentions) > 0 {
		data["mentions"] = encodeMentions(message.Mentions)
	}

	_, err := r.messages(chatID).Doc(message.ID).Set(ctx, data)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) ListByChat(ctx context.Context, chatID string) ([]*entity.Message, error) {
	docs, err := r.orderedMessages(chatID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.Internal("Failed to fetch messages", err)
	}

	return decodeMessages(docs), nil
}

func (r *firestoreMessageRepository) WatchByChat(ctx context.Context, chatID string, fn func([]*entity.Message)) error {
	iter := r.orderedMessages(chatID).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if streamClosed(ctx, err) {
				return nil
			}
			return errors.Internal("Message snapshot stream failed", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return errors.Internal("Failed to read message snapshot", err)
		}
		fn(decodeMessages(docs))
	}
}

func (r *firestoreMessageRepository) CreateRoomMessage(ctx context.Context, showID string, message *entity.RoomMessage) error {
	data := map[string]interface{}{
		"message":          message.Message,
		"sender":           message.Sender,
		"senderName":       message.SenderName,
		"senderProfileUrl": message.SenderProfileURL,
		"date":             message.Date,
		"mentions":         encodeMentions(message.Mentions),
	}

	_, err := r.roomMessages(showID).Doc(message.ID).Set(ctx, data)
	if err != nil {
		return errors.Internal("Failed to create room message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) ListRoomMessages(ctx context.Context, showID string) ([]entity.RawRoomMessage, error) {
	docs, err := r.roomMessages(showID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching room messages for show %s: %v", showID, err)
		return nil, errors.Internal("Failed to fetch room messages", err)
	}
	return rawRoomMessages(docs), nil
}

func (r *firestoreMessageRepository) WatchRoom(ctx context.Context, showID string, fn func([]entity.RawRoomMessage)) error {
	iter := r.roomMessages(showID).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if streamClosed(ctx, err) {
				return nil
			}
			return errors.Internal("Room snapshot stream failed", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return errors.Internal("Failed to read room snapshot", err)
		}
		fn(rawRoomMessages(docs))
	}
}

func decodeMessages(docs []*firestore.DocumentSnapshot) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, decodeMessage(doc.Ref.ID, doc.Data()))
	}
	return messages
}

func rawRoomMessages(docs []*firestore.DocumentSnapshot) []entity.RawRoomMessage {
	raw := make([]entity.RawRoomMessage, 0, len(docs))
	for _, doc := range docs {
		raw = append(raw, entity.RawRoomMessage{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return raw
}
