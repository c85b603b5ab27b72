// Package api HTTP 서버 및 라우팅
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/weatherdeck/weatherdeck/internal/api/handlers"
	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/services"
	"github.com/weatherdeck/weatherdeck/pkg/database"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// Server API 서버
type Server struct {
	router        *gin.Engine
	db            *database.DB
	jwtSecret     []byte
	flowHandler   *handlers.FlowHandler
	sensorHandler *handlers.SensorHandler
	authHandler   *handlers.AuthHandler
}

// NewServer 새 서버 생성
func NewServer(db *database.DB, sim *services.Simulator, kafkaService *services.KafkaService, redisService *services.RedisService, mailer services.Mailer, jwtSecret string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:        gin.New(),
		db:            db,
		jwtSecret:     []byte(jwtSecret),
		flowHandler:   handlers.NewFlowHandler(db.Flows),
		sensorHandler: handlers.NewSensorHandler(db.Readings, sim, kafkaService, redisService),
		authHandler:   handlers.NewAuthHandler(db.Users, mailer, jwtSecret),
	}

	s.setupRoutes()
	return s
}

// setupRoutes 라우트 설정
func (s *Server) setupRoutes() {
	// 미들웨어
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware())
	s.router.Use(middleware.RequestIDMiddleware())

	// 헬스체크 (인증 불필요)
	s.router.GET("/health", s.health)
	s.router.GET("/ready", s.ready)

	// 플로우 CRUD
	flow := s.router.Group("/flow")
	{
		flow.POST("/save", s.flowHandler.SaveFlow)
		flow.GET("/load/:weatherType", s.flowHandler.LoadFlowsByType)
		flow.GET("/:id", s.flowHandler.GetFlow)
		flow.PUT("/update/:id", s.flowHandler.UpdateFlow)
		flow.DELETE("/delete/:id", s.flowHandler.DeleteFlow)
		flow.PUT("/:id/delete-node/:nodeId", s.flowHandler.DeleteNode)
	}

	// 센서 스트림
	s.router.GET("/sse", s.sensorHandler.StreamSSE)

	apiGroup := s.router.Group("/api")
	{
		apiGroup.POST("/control", s.sensorHandler.Control)
		apiGroup.GET("/historical", s.sensorHandler.Historical)
		apiGroup.GET("/status", s.sensorHandler.Status)
		apiGroup.GET("/latest", s.sensorHandler.Latest)

		// 인증 (인증 불필요)
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/signup", s.authHandler.Signup)
			auth.POST("/send-otp", s.authHandler.SendOTP)
			auth.POST("/verify-otp", s.authHandler.VerifyOTP)
			auth.POST("/login", s.authHandler.Login)
		}

		// 인증 필요한 라우트
		authenticated := apiGroup.Group("/auth")
		authenticated.Use(middleware.AuthMiddleware(s.jwtSecret))
		{
			authenticated.GET("/profile", s.authHandler.GetProfile)
			authenticated.PUT("/profile", s.authHandler.UpdateProfile)
		}
	}
}

// health 헬스체크
func (s *Server) health(c *gin.Context) {
	c.JSON(200, types.HealthStatus{
		Status: "healthy",
	})
}

// ready 준비 상태 확인
func (s *Server) ready(c *gin.Context) {
	if err := s.db.Health(c.Request.Context()); err != nil {
		c.JSON(503, types.HealthStatus{
			Status: "not ready",
			Checks: map[string]string{
				"database": err.Error(),
			},
		})
		return
	}

	c.JSON(200, types.HealthStatus{
		Status: "ready",
		Checks: map[string]string{
			"database": "ok",
		},
	})
}

// Run 서버 실행
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router 라우터 반환
func (s *Server) Router() *gin.Engine {
	return s.router
}
