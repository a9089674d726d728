package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/auth"
	"github.com/outly-dev/outly/internal/handlers"
	"github.com/outly-dev/outly/internal/middleware"
	"github.com/outly-dev/outly/internal/types"
	"github.com/outly-dev/outly/internal/ws"
	"gorm.io/gorm"
)

func New(conn *gorm.DB, jwtManager *auth.JWTManager, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(conn, jwtManager)
	societyHandler := handlers.NewSocietyHandler(conn)
	memberHandler := handlers.NewMemberHandler(conn)
	outingHandler := handlers.NewOutingHandler(conn)
	participantHandler := handlers.NewParticipantHandler(conn)
	instanceHandler := handlers.NewInstanceHandler(conn, hub)
	balanceHandler := handlers.NewBalanceHandler(conn)
	socketHandler := handlers.NewSocketHandler(conn, hub)

	authRequired := middleware.Auth(conn, jwtManager)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:society_id", authRequired, socketHandler.Subscribe)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", authRequired, authHandler.Me)
		}

		societies := api.Group("/societies", authRequired)
		{
			societies.POST("", societyHandler.Create)
			societies.GET("", societyHandler.List)
			societies.GET("/:society_id", societyHandler.Get)
			societies.PUT("/:society_id", societyHandler.Update)
			societies.DELETE("/:society_id", societyHandler.Delete)

			societies.GET("/:society_id/balances", balanceHandler.Get)

			societies.GET("/:society_id/members", memberHandler.List)
			societies.POST("/:society_id/members", memberHandler.Add)
			societies.PUT("/:society_id/members/:user_id", memberHandler.UpdateRole)
			societies.DELETE("/:society_id/members/:user_id", memberHandler.Remove)

			societies.POST("/:society_id/outings", outingHandler.Create)
			societies.GET("/:society_id/outings", outingHandler.List)
			societies.GET("/:society_id/outings/:outing_id", outingHandler.Get)
			societies.PUT("/:society_id/outings/:outing_id", outingHandler.Update)
			societies.DELETE("/:society_id/outings/:outing_id", outingHandler.Delete)

			societies.GET("/:society_id/outings/:outing_id/participants", participantHandler.List)
			societies.POST("/:society_id/outings/:outing_id/participants", participantHandler.Join)
			societies.PUT("/:society_id/outings/:outing_id/participants/:user_id", participantHandler.UpdateStatus)
			societies.DELETE("/:society_id/outings/:outing_id/participants/:user_id", participantHandler.Remove)

			societies.POST("/:society_id/outings/:outing_id/instances", instanceHandler.Create)
			societies.GET("/:society_id/outings/:outing_id/instances", instanceHandler.List)
		}
	}

	return r
}
