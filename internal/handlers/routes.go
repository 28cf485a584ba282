package handlers

import "github.com/gin-gonic/gin"

// Guards are the middlewares the routes are wrapped in. Throttle returns the
// write limiter for a named scope.
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	Throttle     func(scope string) gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, feed *FeedHandler, users *UserHandler, g Guards) {
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", users.SignUp)
		auth.POST("/sign-in", users.SignIn)
		auth.POST("/sign-out", g.Auth, users.SignOut)
	}

	api.GET("/feed", g.OptionalAuth, feed.GetFeed)
	api.GET("/leaderboard", users.GetLeaderboard)

	posts := api.Group("/posts")
	{
		posts.POST("", g.Auth, g.Throttle("posts"), feed.CreatePost)
		posts.DELETE("/:id", g.Auth, feed.DeletePost)
		posts.POST("/:id/like", g.Auth, g.Throttle("likes"), feed.ToggleLike)
		posts.GET("/:id/comments", feed.GetComments)
		posts.POST("/:id/comments", g.Auth, g.Throttle("comments"), feed.CreateComment)
	}

	profile := api.Group("/users")
	{
		profile.PUT("/profile", g.Auth, users.UpdateProfile)
		profile.GET("/:id/stats", users.GetUserStats)
	}
}
