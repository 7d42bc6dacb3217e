package wire

import (
	"Atelier/internal/api"
	"Atelier/internal/api/config"
	"Atelier/internal/api/handler"
	"Atelier/internal/job"
	"Atelier/internal/pkg/comfy"
	"Atelier/internal/pkg/cron"
	"Atelier/internal/pkg/es"
	pkgmongo "Atelier/internal/pkg/mongo"
	"Atelier/internal/pkg/taskqueue"
	"Atelier/internal/repository"
	"Atelier/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	TaskProducer taskqueue.Producer
	TaskManager  *taskqueue.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	creditRepo := repository.NewCreditRepo(db)
	mediaRepo := repository.NewMediaRepo(db)
	tagRepo := repository.NewTagRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	generationRepo := repository.NewGenerationRepo(db)

	esMediaRepo := es.NewMediaRepo(es.Client)
	auditRepo := pkgmongo.NewJobAuditRepo(mongoDB, cfg.Mongo.Collection)

	statusStore := taskqueue.NewStatusStore()
	producer, err := taskqueue.NewProducer(cfg, statusStore)
	if err != nil {
		return nil, err
	}

	generator := comfy.NewGenerator(cfg.Comfy)
	store := service.NewMinioArtifactStore()

	userService := service.NewUserService(userRepo)
	creditService := service.NewCreditService(creditRepo)
	mediaService := service.NewMediaService(mediaRepo, tagRepo, commentRepo, esMediaRepo, store)
	generationService := service.NewGenerationService(
		generator, store, generationRepo, creditService, producer, statusStore, auditRepo,
	)

	handlers := &api.HandlersGroup{
		UserHandler:     handler.NewUserHandler(userService),
		MediaHandler:    handler.NewMediaHandler(mediaService),
		GenerateHandler: handler.NewGenerateHandler(generationService),
		CreditHandler:   handler.NewCreditHandler(creditService, generationService),
	}

	router := api.SetupRouter(handlers)

	taskMgr, err := taskqueue.NewConsumerManager(cfg, generationService, statusStore)
	if err != nil {
		return nil, err
	}

	viewFlushJob := job.NewViewFlushJob(mediaService)
	historyTrimJob := job.NewHistoryTrimJob(creditRepo, generationRepo)
	cronMgr := cron.NewCronManager(viewFlushJob, historyTrimJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		TaskProducer: producer,
		TaskManager:  taskMgr,
		CronMgr:      cronMgr,
	}, nil
}
