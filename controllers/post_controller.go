package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	posts  *services.PostService
	cache  *utils.Cache
	logger *zap.Logger
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, cache *utils.Cache, logger *zap.Logger) *PostController {
	return &PostController{posts: posts, cache: cache, logger: logger}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), principal, services.PostInput{Title: req.Title, Body: req.Body})
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), userCacheKey(principal.ID))
	utils.Created(ctx, gin.H{"post": post})
}

// GetPost returns a post with its owner.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := requiredID(ctx, "post_id")
	if !ok {
		return
	}
	if serveCached(ctx, p.cache, postCacheKey(id)) {
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}
	successCached(ctx, p.cache, postCacheKey(id), gin.H{"post": post})
}

// UpdatePost changes title and/or body of a post owned by the caller.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	id, ok := requiredID(ctx, "post_id")
	if !ok {
		return
	}
	var req struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), principal, id, services.PostPatch{Title: req.Title, Body: req.Body})
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), postCacheKey(id), userCacheKey(post.OwnerID))
	utils.Success(ctx, gin.H{"id": post.ID, "post": post})
}

// DeletePost removes a post owned by the caller.
func (p *PostController) DeletePost(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	id, ok := requiredID(ctx, "post_id")
	if !ok {
		return
	}

	deleted, err := p.posts.Delete(ctx.Request.Context(), principal, id)
	if err != nil {
		respondError(ctx, p.logger, err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), postCacheKey(id), userCacheKey(principal.ID))
	utils.Success(ctx, gin.H{"id": deleted})
}
