package router

import (
	"time"

	"notaentrada/internal/config"
	"notaentrada/internal/handler"
	"notaentrada/internal/infra"
	"notaentrada/internal/middleware"
	"notaentrada/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the services and clients the HTTP layer needs. The composition
// root in cmd/server builds them.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	QueueBreaker *infra.Breaker
	Notes        service.NoteService
	Triage       service.TriageService
	// Departments is optional; without it the department query routes are
	// not mounted.
	Departments  service.DepartmentService
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute))

	notasH := handler.NewNotasHandler(deps.Notes, deps.Triage)

	if deps.DB != nil && deps.Redis != nil {
		r.GET("/health", handler.Health(deps.DB, deps.Redis, deps.QueueBreaker))
	}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	registerNotaRoutes(v1, notasH)

	if deps.Departments != nil {
		registerDepartamentoRoutes(v1, handler.NewDepartamentosHandler(deps.Departments))
	}

	if deps.Redis != nil {
		adminH := handler.NewAdminHandler(deps.Redis)
		v1.POST("/admin/dlq/:queue/requeue", middleware.RequireRole(middleware.RoleAdmin), adminH.ReenfileirarDLQ)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// registerNotaRoutes declares the note routes with the department allowed to
// call each one. Admins pass every role check.
func registerNotaRoutes(v1 *gin.RouterGroup, h *handler.NotasHandler) {
	anyDept := middleware.RequireRole(middleware.RoleStock, middleware.RoleFinance)
	stock := middleware.RequireRole(middleware.RoleStock)
	finance := middleware.RequireRole(middleware.RoleFinance)

	notas := v1.Group("/notas")
	{
		notas.POST("", anyDept, h.Criar)
		notas.GET("", anyDept, h.Listar)
		notas.GET("/:id", anyDept, h.ObterPorID)
		notas.GET("/:id/timeline", anyDept, h.Timeline)
		notas.POST("/:id/dispatch", anyDept, h.Despachar)

		notas.POST("/:id/pagamentos", finance, h.RegistrarPagamento)

		notas.POST("/:id/produtos", stock, h.AdicionarProdutos)
		notas.POST("/:id/produtos/collapse", stock, h.Reagrupar)
		notas.POST("/:id/produtos/:lineId/explode", stock, h.Explodir)
		notas.PUT("/:id/produtos/:lineId/campos", stock, h.InformarCampos)
		notas.POST("/:id/conferencia", stock, h.Conferir)
		notas.POST("/:id/migracao", stock, h.Migrar)
		notas.POST("/:id/triagem", stock, h.Triar)
	}

	v1.GET("/imei/:imei", stock, h.ConsultarIMEI)
}

func registerDepartamentoRoutes(v1 *gin.RouterGroup, h *handler.DepartamentosHandler) {
	v1.GET("/estoque", middleware.RequireRole(middleware.RoleStock), h.ListarEstoque)
	v1.GET("/assistencia/lotes/:batchId", middleware.RequireRole(middleware.RoleStock), h.LoteAssistencia)
	v1.GET("/notas/:id/nota-credito", middleware.RequireRole(middleware.RoleFinance), h.NotaDeCredito)
}
