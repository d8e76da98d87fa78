package chatrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"multichat/internal/domain/chat"
	"multichat/internal/infrastructure/database/dbschema"
	"multichat/internal/infrastructure/database/transaction"
	"multichat/internal/utils/functional"
)

type MessageGormRepository struct {
	db *transaction.Database
}

var _ chat.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) chat.MessageRepository {
	return &MessageGormRepository{db}
}

// Append implements chat.MessageRepository. The chat row is touched first so
// concurrent appends to one chat queue on its row lock.
func (repo *MessageGormRepository) Append(ctx context.Context, msg *chat.Message) error {
	err := repo.db.RunInTx(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)

		touched := tx.Model(&dbschema.Chat{}).
			Where("public_id = ?", msg.ChatID).
			Update("updated_at", gorm.Expr("CASE WHEN created_at > ? THEN created_at ELSE ? END", msg.CreatedAt, msg.CreatedAt))
		if touched.Error != nil {
			return touched.Error
		}
		if touched.RowsAffected == 0 {
			return chatNotFound(ctx)
		}

		return tx.Create(dbschema.NewSchemaMessage(msg)).Error
	})
	if err != nil {
		return dbError(ctx, err, "failed to append message")
	}
	return nil
}

// FindByChatID implements chat.MessageRepository.
func (repo *MessageGormRepository) FindByChatID(ctx context.Context, chatID string) ([]*chat.Message, error) {
	var rows []*dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(ctx, err, "failed to list messages")
	}
	return functional.Map(rows, func(row *dbschema.Message) *chat.Message {
		return row.EtoD()
	}), nil
}

// FindByID implements chat.MessageRepository.
func (repo *MessageGormRepository) FindByID(ctx context.Context, id string) (*chat.Message, error) {
	var row dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("public_id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, messageNotFound(ctx)
	}
	if err != nil {
		return nil, dbError(ctx, err, "failed to find message by ID")
	}
	return row.EtoD(), nil
}

// Update implements chat.MessageRepository.
func (repo *MessageGormRepository) Update(ctx context.Context, msg *chat.Message) error {
	result := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("public_id = ?", msg.ID).
		Updates(map[string]any{
			"role":       string(msg.Role),
			"content":    msg.Content,
			"updated_at": msg.UpdatedAt,
		})
	if result.Error != nil {
		return dbError(ctx, result.Error, "failed to update message")
	}
	if result.RowsAffected == 0 {
		return messageNotFound(ctx)
	}
	return nil
}

// Delete implements chat.MessageRepository.
func (repo *MessageGormRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := repo.db.GetTx(ctx).WithContext(ctx).
		Where("public_id = ?", id).
		Delete(&dbschema.Message{})
	if result.Error != nil {
		return false, dbError(ctx, result.Error, "failed to delete message")
	}
	return result.RowsAffected > 0, nil
}
