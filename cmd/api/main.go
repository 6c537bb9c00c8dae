package main

import (
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/idp"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	//.envは無くても動く（本番は環境変数で渡す）
	_ = godotenv.Load()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("config load failed")
	}
	if cfg.GoEnv == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.WithError(err).Fatal("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.ChangeRequest{},
		&model.OrgUnit{},
		&model.PortalMenu{},
		&model.SystemConfig{},
		&model.AdminWhitelist{},
		&model.AuditLog{},
	); err != nil {
		logger.WithError(err).Fatal("auto migrate failed")
	}

	//Repository（GORM実装）生成
	crRepo := infraRepo.NewChangeRequestGormRepository(gormDB)
	orgRepo := infraRepo.NewOrgUnitGormRepository(gormDB)
	menuRepo := infraRepo.NewPortalMenuGormRepository(gormDB)
	configRepo := infraRepo.NewSystemConfigGormRepository(gormDB)
	whitelistRepo := infraRepo.NewAdminWhitelistGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//IdPクライアント
	provider := idp.NewKeycloakClient(cfg.IdPBaseURL, cfg.IdPRealm, cfg.IdPClientID, cfg.IdPClientSecret, logger)

	//Usecase生成
	policy := usecase.NewPolicyEngine(provider)
	executor := usecase.NewChangeExecutor(provider, policy, orgRepo, menuRepo, configRepo)
	audit := usecase.NewAuditRecorder(auditRepo, logger)
	crUC := usecase.NewChangeRequestUsecase(crRepo, executor, audit)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler生成
	crH := handler.NewChangeRequestHandler(cfg, whitelistRepo, crUC)
	auditH := handler.NewAuditHandler(cfg, whitelistRepo, auditUC)
	whoamiH := handler.NewWhoamiHandler(cfg, whitelistRepo)

	//Server起動
	e := server.New(crH, auditH, whoamiH)
	addr := ":" + cfg.Port

	logger.WithField("addr", addr).Info("starting server")
	if err := e.Start(addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
