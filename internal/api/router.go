package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/permitology/permit-system/internal/api/handler"
	"github.com/permitology/permit-system/internal/api/middleware"
	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/service"
	mongodb "github.com/permitology/permit-system/internal/infrastructure/db/mongo"
	redisdb "github.com/permitology/permit-system/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, exporter service.AuditExporter, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("permit"))

	// --- Dependencies ---
	actorRepo := mongodb.NewActorRepository(db)
	caseRepo := mongodb.NewCaseRepository(db)
	actionRepo := mongodb.NewActionRepository(db)
	authRepo := mongodb.NewAuthRepository(db)
	dedup := redisdb.NewAppendDedup(rdb)

	directory := service.NewDirectoryService(actorRepo, log)
	caseSvc := service.NewCaseService(caseRepo, actionRepo, directory, dedup, exporter, log)
	docSvc := service.NewDocumentService(caseSvc, actionRepo, log)
	authSvc := service.NewAuthService(authRepo, directory, jwtSecret, 24*time.Hour)

	authHandler := handler.NewAuthHandler(authSvc)
	caseHandler := handler.NewCaseHandler(caseSvc)
	docHandler := handler.NewDocumentHandler(docSvc)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Case routes ---
	applicant := middleware.RBAC(string(domain.RoleApplicant))
	approver := middleware.RBAC(string(domain.RoleApprover))

	v1 := e.Group("/v1", middleware.Auth(jwtSecret))

	v1.POST("/cases", caseHandler.Create, applicant)
	v1.GET("/cases", caseHandler.List)
	v1.GET("/cases/review-queue", caseHandler.ReviewQueue, approver)
	v1.GET("/cases/:id", caseHandler.Get)
	v1.GET("/cases/:id/actions", caseHandler.Actions)
	v1.GET("/cases/:id/blockers", caseHandler.Blockers)
	v1.GET("/cases/:id/reviewer", caseHandler.Reviewer)
	v1.GET("/cases/:id/last-modified", caseHandler.LastModified)

	v1.POST("/cases/:id/submit", caseHandler.Submit, applicant)
	v1.POST("/cases/:id/review", caseHandler.Review, approver)
	v1.POST("/cases/:id/comment", caseHandler.Comment, approver)
	v1.POST("/cases/:id/approve", caseHandler.Approve, approver)
	v1.POST("/cases/:id/deny", caseHandler.Deny, approver)

	v1.POST("/cases/:id/documents", docHandler.Upload, applicant)
	v1.GET("/cases/:id/documents/:purpose", docHandler.Get)

	return e
}
