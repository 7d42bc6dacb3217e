package api

import (
	"Atelier/internal/api/middleware"
	"Atelier/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
				authGroup.PUT("/password", group.UserHandler.UpdatePassword)
				authGroup.DELETE("", group.UserHandler.DeleteAccount)
			}
		}

		mediaGroup := apiGroup.Group("/media")
		{
			authOptGroup := mediaGroup.Group("")
			authOptGroup.Use(middleware.AuthOptionalMiddleware())
			{
				authOptGroup.GET("/search", group.MediaHandler.SearchMedia)
				authOptGroup.GET("/detail/:media_id", group.MediaHandler.GetMedia)
				authOptGroup.GET("/comments/:media_id", group.MediaHandler.ListComments)
			}

			authGroup := mediaGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/upload", group.MediaHandler.Upload)
				authGroup.GET("/list", group.MediaHandler.ListMedia)
				authGroup.PUT("/detail/:media_id", group.MediaHandler.UpdateMedia)
				authGroup.DELETE("/detail/:media_id", group.MediaHandler.DeleteMedia)
				authGroup.POST("/rate/:media_id", group.MediaHandler.RateMedia)
				authGroup.POST("/comments/:media_id", group.MediaHandler.AddComment)
				authGroup.DELETE("/comment/:comment_id", group.MediaHandler.DeleteComment)

				authGroup.POST("/generate/text", group.GenerateHandler.GenerateText)
				authGroup.POST("/generate/media", group.GenerateHandler.GenerateMedia)
				authGroup.GET("/task/:task_id", group.GenerateHandler.GetTaskStatus)
			}
		}

		creditGroup := apiGroup.Group("/credits")
		creditGroup.Use(middleware.AuthMiddleware())
		{
			creditGroup.GET("/balance", group.CreditHandler.GetBalance)
			creditGroup.POST("/topup", group.CreditHandler.TopUp)
			creditGroup.GET("/transactions", group.CreditHandler.ListTransactions)
		}

		jobGroup := apiGroup.Group("/jobs")
		jobGroup.Use(middleware.AuthMiddleware())
		{
			jobGroup.GET("/list", group.CreditHandler.ListJobs)
			jobGroup.GET("/detail/:job_id", group.CreditHandler.GetJob)
		}
	}

	return r
}
