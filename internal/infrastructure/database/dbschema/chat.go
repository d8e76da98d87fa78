package dbschema

import (
	"multichat/internal/domain/chat"
	"multichat/internal/domain/llm"
	"multichat/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Chat{}, Message{})
}

// Chat represents the database schema for chats
type Chat struct {
	BaseModel
	PublicID string `gorm:"type:varchar(50);uniqueIndex:idx_chats_public_id;not null"`
	Title    string `gorm:"type:varchar(255);not null"`
}

// Message represents the database schema for chat messages
type Message struct {
	BaseModel
	PublicID string `gorm:"type:varchar(50);uniqueIndex:idx_messages_public_id;not null"`
	ChatID   string `gorm:"type:varchar(50);index:idx_messages_chat_id;not null"`
	Chat     *Chat  `gorm:"foreignKey:ChatID;references:PublicID;constraint:OnDelete:CASCADE"`
	Role     string `gorm:"type:varchar(20);not null;check:chk_messages_role,role IN ('user','assistant','system')"`
	Content  string `gorm:"type:text;not null"`
}

func NewSchemaChat(c *chat.Chat) *Chat {
	return &Chat{
		BaseModel: BaseModel{
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		PublicID: c.ID,
		Title:    c.Title,
	}
}

// EtoD converts database schema to domain chat (Entity to Domain)
func (c *Chat) EtoD() *chat.Chat {
	return &chat.Chat{
		ID:        c.PublicID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func NewSchemaMessage(m *chat.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PublicID: m.ID,
		ChatID:   m.ChatID,
		Role:     string(m.Role),
		Content:  m.Content,
	}
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *chat.Message {
	return &chat.Message{
		ID:        m.PublicID,
		ChatID:    m.ChatID,
		Role:      llm.Role(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
