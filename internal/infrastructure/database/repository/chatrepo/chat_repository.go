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
	"multichat/internal/utils/platformerrors"
)

type ChatGormRepository struct {
	db *transaction.Database
}

var _ chat.ChatRepository = (*ChatGormRepository)(nil)

func NewChatGormRepository(db *transaction.Database) chat.ChatRepository {
	return &ChatGormRepository{db}
}

// Create implements chat.ChatRepository.
func (repo *ChatGormRepository) Create(ctx context.Context, c *chat.Chat) error {
	model := dbschema.NewSchemaChat(c)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return dbError(ctx, err, "failed to create chat")
	}
	return nil
}

// FindByID implements chat.ChatRepository. It reads from the primary so a chat is
// visible right after it was written.
func (repo *ChatGormRepository) FindByID(ctx context.Context, id string) (*chat.Chat, error) {
	var row dbschema.Chat
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("public_id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chatNotFound(ctx)
	}
	if err != nil {
		return nil, dbError(ctx, err, "failed to find chat by ID")
	}
	return row.EtoD(), nil
}

// FindAll implements chat.ChatRepository.
func (repo *ChatGormRepository) FindAll(ctx context.Context) ([]*chat.Chat, error) {
	var rows []*dbschema.Chat
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(ctx, err, "failed to list chats")
	}
	return functional.Map(rows, func(row *dbschema.Chat) *chat.Chat {
		return row.EtoD()
	}), nil
}

// Update implements chat.ChatRepository.
func (repo *ChatGormRepository) Update(ctx context.Context, c *chat.Chat) error {
	result := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Chat{}).
		Where("public_id = ?", c.ID).
		Updates(map[string]any{
			"title":      c.Title,
			"updated_at": c.UpdatedAt,
		})
	if result.Error != nil {
		return dbError(ctx, result.Error, "failed to update chat")
	}
	if result.RowsAffected == 0 {
		return chatNotFound(ctx)
	}
	return nil
}

// Delete implements chat.ChatRepository. Messages are removed in the same
// transaction, so the cascade does not depend on the driver enforcing foreign keys.
func (repo *ChatGormRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := repo.db.RunInTx(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)
		if err := tx.Where("chat_id = ?", id).Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("public_id = ?", id).Delete(&dbschema.Chat{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, dbError(ctx, err, "failed to delete chat")
	}
	return deleted, nil
}

func chatNotFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Chat not found", chat.ErrChatNotFound, "9d2f5a60-1b7c-4e3d-a846-0c5e7f2b9a11")
}

func messageNotFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Message not found", chat.ErrMessageNotFound, "9d2f5a60-1b7c-4e3d-a846-0c5e7f2b9a12")
}

func dbError(ctx context.Context, err error, message string) error {
	if platformerrors.GetPlatformError(err) != nil {
		return err
	}
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, "")
}
