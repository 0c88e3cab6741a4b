package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	checkInService service.CheckInService,
	adaptationService service.AdaptationService,
	proposalService service.ProposalService,
	insightService service.InsightService,
	workoutService service.WorkoutService,
) {

	authHandler := NewAuthHandler(authService, profileService)
	checkInHandler := NewCheckInHandler(checkInService, adaptationService, insightService)
	workoutHandler := NewWorkoutHandler(workoutService, checkInService)
	proposalHandler := NewProposalHandler(proposalService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/profile", authHandler.GetProfile)
		protected.PUT("/profile/settings", RoleMiddleware(domain.RoleAthlete), authHandler.UpdateSettings)

		// --- Daily Check-In Routes ---
		// The whole decision flow is athlete-facing; coaches read the audit
		// trail and insights through their own tooling.
		checkInGroup := protected.Group("/checkins")
		checkInGroup.Use(RoleMiddleware(domain.RoleAthlete))
		{
			checkInGroup.POST("/wellness", checkInHandler.SubmitWellness)
			checkInGroup.POST("/standard", checkInHandler.SubmitStandard)
			checkInGroup.GET("/today", checkInHandler.GetToday)
			checkInGroup.GET("/series", checkInHandler.GetSeries)

			checkInGroup.POST("/:id/accept", checkInHandler.Accept)
			checkInGroup.POST("/:id/override", checkInHandler.Override)
			checkInGroup.POST("/:id/undo", checkInHandler.Undo)
			checkInGroup.POST("/:id/conflict/accept", checkInHandler.AcceptConflict)
			checkInGroup.POST("/:id/conflict/decline", checkInHandler.DeclineConflict)
		}

		// --- Scheduled Session Routes ---
		workoutGroup := protected.Group("/workouts")
		workoutGroup.Use(RoleMiddleware(domain.RoleAthlete))
		{
			workoutGroup.POST("", workoutHandler.Schedule)
			workoutGroup.GET("", workoutHandler.GetCalendar)
			workoutGroup.GET("/:id/gate", workoutHandler.GetGateStatus)
			workoutGroup.POST("/:id/start", workoutHandler.Start)
			workoutGroup.POST("/:id/complete", workoutHandler.Complete)
		}

		// --- Proposal Routes ---
		proposalGroup := protected.Group("/proposals")
		proposalGroup.Use(RoleMiddleware(domain.RoleAthlete))
		{
			proposalGroup.GET("", proposalHandler.List)
			proposalGroup.POST("/:id/accept", proposalHandler.Accept)
			proposalGroup.POST("/:id/decline", proposalHandler.Decline)
		}

		// --- Insight Routes ---
		// Coaches may also read an athlete's stats later; for now the
		// athlete's own view.
		protected.GET("/insights/overrides", RoleMiddleware(domain.RoleAthlete), checkInHandler.GetOverrideStats)
	}
}
