package v1

import (
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/middleware"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/auth"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Log         *zap.Logger
	Metrics     *metrics.Collector
	JWT         *auth.JWTManager
	CORS        config.CORSConfig
	Limiter     *middleware.IPRateLimiter
	AuthLimiter *middleware.IPRateLimiter

	Auth      *AuthHandler
	Profiles  *ProfileHandler
	Illnesses *IllnessHandler
	Messages  *MessageHandler
	Documents *DocumentHandler
	Health    *HealthHandler
}

func NewRouter(rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(rc.Log),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(rc.Metrics),
		middleware.Logger(rc.Log),
		middleware.CORS(rc.CORS),
	)

	r.GET("/healthz", rc.Health.Live)
	r.GET("/readyz", rc.Health.Ready)
	r.GET("/metrics", gin.WrapH(rc.Metrics.Handler()))

	api := r.Group("/api/v1")
	if rc.Limiter != nil {
		api.Use(rc.Limiter.Handler())
	}

	authRoutes := api.Group("/auth")
	if rc.AuthLimiter != nil {
		authRoutes.Use(rc.AuthLimiter.Handler())
	}
	authRoutes.POST("/register", rc.Auth.Register)
	authRoutes.POST("/token", rc.Auth.Login)
	authRoutes.POST("/token/refresh", rc.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(rc.JWT))

	protected.GET("/auth/me", rc.Auth.Me)

	protected.POST("/profiles/physician", rc.Profiles.CreatePhysician)
	protected.PATCH("/profiles/physician", rc.Profiles.UpdatePhysician)
	protected.POST("/profiles/patient", rc.Profiles.CreatePatient)
	protected.PATCH("/profiles/patient", rc.Profiles.UpdatePatient)

	protected.GET("/physicians", rc.Profiles.ListPhysicians)
	protected.GET("/physicians/:id", rc.Profiles.GetPhysician)
	protected.GET("/physicians/:id/patients", rc.Profiles.ListPhysicianPatients)
	protected.GET("/physicians/:id/illnesses", rc.Illnesses.ListForPhysician)

	protected.GET("/patients/:id", rc.Profiles.GetPatient)
	protected.GET("/patients/:id/illnesses", rc.Illnesses.ListForPatient)

	protected.POST("/illnesses", rc.Illnesses.Create)
	protected.PATCH("/illnesses/:id", rc.Illnesses.Update)

	protected.POST("/messages", rc.Messages.Create)
	protected.GET("/messages/recent", rc.Messages.ListRecent)
	protected.GET("/messages/:patient_id/:physician_id", rc.Messages.ListConversation)

	protected.POST("/documents", rc.Documents.Upload)
	protected.GET("/documents/owner/:owner_id", rc.Documents.ListForOwner)
	protected.GET("/documents/:id", rc.Documents.Get)
	protected.DELETE("/documents/:id", rc.Documents.Delete)

	return r
}
