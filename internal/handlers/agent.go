package handlers

import (
	"errors"
	"net/http"

	"tweet-agent/internal/services"
	"tweet-agent/internal/twitter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgentHandler handles HTTP requests for the agent's core operations
type AgentHandler struct {
	mentions *services.MentionsService
	tweets   *services.TweetsService
	replies  *services.ReplyService
	actions  *services.ActionsService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(
	mentions *services.MentionsService,
	tweets *services.TweetsService,
	replies *services.ReplyService,
	actions *services.ActionsService,
) *AgentHandler {
	return &AgentHandler{
		mentions: mentions,
		tweets:   tweets,
		replies:  replies,
		actions:  actions,
	}
}

// UnansweredMentionsRequest is the body of POST /api/v1/mentions/unanswered
type UnansweredMentionsRequest struct {
	Count    int    `json:"count"`
	Username string `json:"username,omitempty"`
}

// ListUnansweredMentions handles POST /api/v1/mentions/unanswered
func (h *AgentHandler) ListUnansweredMentions(c *gin.Context) {
	var req UnansweredMentionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = 5
	}

	mentions, err := h.mentions.IngestAndListUnanswered(c.Request.Context(), req.Count, req.Username)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mentions": mentions,
		"count":    len(mentions),
	})
}

// UnansweredTweetsRequest is the body of POST /api/v1/tweets/unanswered
type UnansweredTweetsRequest struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// ListUnansweredTweets handles POST /api/v1/tweets/unanswered
func (h *AgentHandler) ListUnansweredTweets(c *gin.Context) {
	var req UnansweredTweetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = 5
	}

	tweets, err := h.tweets.IngestAndListUnanswered(c.Request.Context(), req.Username, req.Count)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tweets": tweets,
		"count":  len(tweets),
	})
}

// ReplyRequest is the body of POST /api/v1/reply
type ReplyRequest struct {
	IDTweet string `json:"id_tweet"`
	Text    string `json:"text"`
	Quoted  bool   `json:"quoted"`
}

// Reply handles POST /api/v1/reply
func (h *AgentHandler) Reply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	idTweet, err := uuid.Parse(req.IDTweet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id_tweet format"})
		return
	}

	result, err := h.replies.Resolve(c.Request.Context(), idTweet, req.Text, req.Quoted)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if !result.Success && result.ErrorCode == services.CodeAlreadyReplied {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostTweetRequest is the body of POST /api/v1/post
type PostTweetRequest struct {
	Text string `json:"text"`
}

// PostTweet handles POST /api/v1/post
func (h *AgentHandler) PostTweet(c *gin.Context) {
	var req PostTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	tweet, err := h.actions.PostTweet(c.Request.Context(), req.Text)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tweet": tweet})
}

// RetweetRequest is the body of POST /api/v1/retweet
type RetweetRequest struct {
	IDTweet string `json:"id_tweet"`
}

// Retweet handles POST /api/v1/retweet
func (h *AgentHandler) Retweet(c *gin.Context) {
	var req RetweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	idTweet, err := uuid.Parse(req.IDTweet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id_tweet format"})
		return
	}

	tweet, err := h.actions.Repost(c.Request.Context(), idTweet)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tweet": tweet})
}

// Health handles GET /health
func (h *AgentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderError maps service errors onto HTTP status codes
func (h *AgentHandler) renderError(c *gin.Context, err error) {
	var sourceErr *twitter.SourceError

	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &sourceErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Platform action failed",
			"details":   sourceErr.Error(),
			"retryable": sourceErr.Retryable,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}
