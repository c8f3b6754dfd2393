//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-live/domain"
)

// seqBandwidth is the number of ids a Badger sequence leases at once.
const seqBandwidth = 128

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository opens the message id sequence on top of an already
// opened Badger database. Ids handed out by the sequence are unique and
// strictly increasing across the whole store, so they reflect true
// persistence order regardless of the channel written to.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:messages"), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message id sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

// Close releases unconsumed sequence ids back to the database.
func (r *MessageRepository) Close() error {
	return r.seq.Release()
}

// storedMessage is the at-rest record. It shares the JSON shape used on the
// wire so the store needs no second codec.
type storedMessage struct {
	ID        uint64    `json:"id"`
	ContextID string    `json:"context_id,omitempty"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Append persists a message and returns it with its assigned id and
// timestamp. The key is formatted as "msg:{channel}:{id_padded}" to:
//  1. Group a conversation under one prefix. The channel already encodes the
//     sorted identity pair plus the context, which makes retrieval symmetric
//     in sender/recipient for free.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order follows the monotonic id).
func (r *MessageRepository) Append(contextID string, sender, recipient domain.Identity, content string) (domain.Message, error) {
	channel, err := domain.ResolveChannel(sender, recipient, contextID)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := r.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id assignment: %w", err)
	}
	message := domain.Message{
		ID:        id,
		ContextID: contextID,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	key := fmt.Sprintf("msg:%s:%019d", channel, message.ID)
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// History retrieves up to limit messages exchanged between a and b under the
// given context, chronological ascending. The scan walks the channel prefix
// backwards to find the most recent page first, then reverses it for
// display order. limit <= 0 means no cap.
func (r *MessageRepository) History(contextID string, a, b domain.Identity, limit int) ([]domain.Message, error) {
	channel, err := domain.ResolveChannel(a, b, contextID)
	if err != nil {
		return nil, err
	}
	var byteMessages [][]byte
	err = r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", channel))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(byteMessages) == limit {
				r.log.Debug(fmt.Sprintf("History page of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected newest-first; reorder chronologically.
	messages := make([]domain.Message, 0, len(byteMessages))
	for i := len(byteMessages) - 1; i >= 0; i-- {
		var record storedMessage
		if err = json.Unmarshal(byteMessages[i], &record); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(record))
	}
	return messages, nil
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:        message.ID,
		ContextID: message.ContextID,
		Sender:    string(message.Sender),
		Recipient: string(message.Recipient),
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		Read:      message.Read,
	}
}

func toMessage(record storedMessage) domain.Message {
	return domain.Message{
		ID:        record.ID,
		ContextID: record.ContextID,
		Sender:    domain.Identity(record.Sender),
		Recipient: domain.Identity(record.Recipient),
		Content:   record.Content,
		CreatedAt: record.CreatedAt,
		Read:      record.Read,
	}
}
