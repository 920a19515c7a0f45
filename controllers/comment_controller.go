package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// CommentController creates and reads comments. Both require a principal.
type CommentController struct {
	comments *services.CommentService
	logger   *zap.Logger
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *services.CommentService, logger *zap.Logger) *CommentController {
	return &CommentController{comments: comments, logger: logger}
}

// CreateComment attaches a comment to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	var req struct {
		Body   string `json:"body" binding:"required"`
		PostID uint   `json:"post_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	comment, err := c.comments.Create(ctx.Request.Context(), principal, services.CommentInput{Body: req.Body, PostID: req.PostID})
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	utils.Created(ctx, gin.H{"comment": comment})
}

// GetComment returns a comment with its post and author.
func (c *CommentController) GetComment(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	id, ok := requiredID(ctx, "comment_id")
	if !ok {
		return
	}

	comment, err := c.comments.Get(ctx.Request.Context(), principal, id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}
