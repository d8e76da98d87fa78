package repository

import (
	"github.com/google/wire"

	"multichat/internal/infrastructure/database/repository/chatrepo"
)

var RepositoryProvider = wire.NewSet(
	chatrepo.NewChatGormRepository,
	chatrepo.NewMessageGormRepository,
)
