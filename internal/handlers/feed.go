package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/internal/services"
)

type FeedService interface {
	CreatePost(ctx context.Context, viewer services.Viewer, content string) (*models.Post, error)
	GetFeed(ctx context.Context, viewer services.Viewer, page, pageSize int) ([]*services.FeedPost, error)
	DeletePost(ctx context.Context, viewer services.Viewer, postID string) error
}

type LikeService interface {
	ToggleLike(ctx context.Context, viewer services.Viewer, postID string) (bool, error)
}

type CommentService interface {
	CreateComment(ctx context.Context, viewer services.Viewer, postID, content string) (*models.Comment, error)
	GetComments(ctx context.Context, postID string) ([]*services.CommentView, error)
}

type FeedHandler struct {
	feedService    FeedService
	likeService    LikeService
	commentService CommentService
}

func NewFeedHandler(feedService FeedService, likeService LikeService, commentService CommentService) *FeedHandler {
	return &FeedHandler{
		feedService:    feedService,
		likeService:    likeService,
		commentService: commentService,
	}
}

func (h *FeedHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), viewer(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetFeed serves anonymous and signed-in readers alike.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	feed, err := h.feedService.GetFeed(c.Request.Context(), viewer(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": feed,
		"page":  page,
	})
}

func (h *FeedHandler) DeletePost(c *gin.Context) {
	if err := h.feedService.DeletePost(c.Request.Context(), viewer(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *FeedHandler) ToggleLike(c *gin.Context) {
	liked, err := h.likeService.ToggleLike(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *FeedHandler) CreateComment(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), viewer(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

func (h *FeedHandler) GetComments(c *gin.Context) {
	comments, err := h.commentService.GetComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
