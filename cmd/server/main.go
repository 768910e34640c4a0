package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tweet-agent/internal/auth"
	"tweet-agent/internal/database"
	"tweet-agent/internal/handlers"
	"tweet-agent/internal/services"
	"tweet-agent/internal/store"
	"tweet-agent/internal/twitter"
	"tweet-agent/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Wire the collaborators once and hand them to each component
	source := twitter.NewClient(twitter.LoadConfig())
	tweetStore := store.NewTweetStore(database.DB)

	mentionsService := services.NewMentionsService(tweetStore, source, loadFilterConfig())
	tweetsService := services.NewTweetsService(tweetStore, source)
	replyService := services.NewReplyService(tweetStore, source)
	actionsService := services.NewActionsService(tweetStore, source, os.Getenv("AGENT_USERNAME"))

	// Initialize and start background workers
	workerService := worker.NewService(mentionsService, worker.LoadConfig())
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	setupGracefulShutdown(workerService)
	setupServer(mentionsService, tweetsService, replyService, actionsService)
}

// loadFilterConfig reads the abuse-filter tunables from the environment
func loadFilterConfig() services.FilterConfig {
	config := services.DefaultFilterConfig()
	if raw := os.Getenv("ABUSE_BLOCK_THRESHOLD"); raw != "" {
		if threshold, err := strconv.Atoi(raw); err == nil && threshold > 0 {
			config.BlockThreshold = threshold
		}
	}
	if raw := os.Getenv("ABUSE_BUFFER_MULTIPLIER"); raw != "" {
		if multiplier, err := strconv.Atoi(raw); err == nil && multiplier > 0 {
			config.BufferMultiplier = multiplier
		}
	}
	return config
}

func setupGracefulShutdown(workerService *worker.Service) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(
	mentionsService *services.MentionsService,
	tweetsService *services.TweetsService,
	replyService *services.ReplyService,
	actionsService *services.ActionsService,
) {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	agentHandler := handlers.NewAgentHandler(mentionsService, tweetsService, replyService, actionsService)
	docsHandler := handlers.NewDocsHandler()
	verifier := auth.NewVerifier(os.Getenv("API_JWT_SECRET"))

	r.GET("/health", agentHandler.Health)
	r.GET("/docs/:doc", docsHandler.ServeMarkdownAsHTML)

	api := r.Group("/api/v1")
	api.Use(verifier.Middleware())
	{
		api.POST("/mentions/unanswered", agentHandler.ListUnansweredMentions)
		api.POST("/tweets/unanswered", agentHandler.ListUnansweredTweets)
		api.POST("/reply", agentHandler.Reply)
		api.POST("/post", agentHandler.PostTweet)
		api.POST("/retweet", agentHandler.Retweet)
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Tweet agent listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("Server failed:", err)
	}
}
