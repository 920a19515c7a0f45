package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// UserController manages registration and account changes.
type UserController struct {
	users  *services.UserService
	cache  *utils.Cache
	logger *zap.Logger
}

// NewUserController creates a new UserController instance.
func NewUserController(users *services.UserService, cache *utils.Cache, logger *zap.Logger) *UserController {
	return &UserController{users: users, cache: cache, logger: logger}
}

// CreateUser registers a new account.
func (u *UserController) CreateUser(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Surname  string `json:"surname" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	user, err := u.users.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, u.logger, err)
		return
	}
	utils.Created(ctx, gin.H{"user": user})
}

// GetUser returns a public profile with the user's posts.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := requiredID(ctx, "user_id")
	if !ok {
		return
	}
	if serveCached(ctx, u.cache, userCacheKey(id)) {
		return
	}

	user, err := u.users.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, u.logger, err)
		return
	}
	successCached(ctx, u.cache, userCacheKey(id), gin.H{"user": user})
}

// UpdateUser changes fields of the caller's account, or of user_id when given.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	target, ok := optionalID(ctx, "user_id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Surname  *string `json:"surname"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	user, err := u.users.Update(ctx.Request.Context(), principal, target, services.UserPatch{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, u.logger, err)
		return
	}

	u.invalidate(ctx, user.ID)
	utils.Success(ctx, gin.H{"id": user.ID, "user": user})
}

// DeleteUser deactivates the caller's account, or user_id when given.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	target, ok := optionalID(ctx, "user_id")
	if !ok {
		return
	}

	id, err := u.users.Deactivate(ctx.Request.Context(), principal, target)
	if err != nil {
		respondError(ctx, u.logger, err)
		return
	}

	u.invalidate(ctx, id)
	utils.Success(ctx, gin.H{"id": id})
}

// Posts embed their owner, so every cached post may show stale profile data.
func (u *UserController) invalidate(ctx *gin.Context, id uint) {
	u.cache.Invalidate(ctx.Request.Context(), userCacheKey(id))
	u.cache.InvalidateByPrefix(ctx.Request.Context(), "cache:post:detail:")
}
