package repository

import (
	"github.com/google/wire"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/infrastructure/database/repository/blogrepo"
	"ruleout-server/internal/infrastructure/database/repository/conversationrepo"
	"ruleout-server/internal/infrastructure/database/repository/projectrepo"
	"ruleout-server/internal/infrastructure/database/repository/recordingrepo"
	"ruleout-server/internal/infrastructure/database/repository/userrepo"
)

var RepositoryProvider = wire.NewSet(
	conversationrepo.NewConversationGormRepository,
	projectrepo.NewProjectGormRepository,
	wire.Bind(new(project.Repository), new(*projectrepo.ProjectGormRepository)),
	wire.Bind(new(conversation.ProjectDetacher), new(*projectrepo.ProjectGormRepository)),
	recordingrepo.NewRecordingGormRepository,
	userrepo.NewUserGormRepository,
	blogrepo.NewBlogGormRepository,
)
