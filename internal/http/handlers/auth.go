package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/auth"
	"github.com/greenvolt/loanhub/internal/config"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/repo/postgres"
	"github.com/greenvolt/loanhub/internal/service"
)

type AuthHandler struct {
	registration *service.Registration
	credentials  *service.Auth
	principals   *service.PrincipalResolver
	jwt          *auth.Manager
	refreshStore *postgres.RefreshTokensRepo
}

func NewAuthHandler(registration *service.Registration, credentials *service.Auth, principals *service.PrincipalResolver, jwtManager *auth.Manager, refreshStore *postgres.RefreshTokensRepo) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		credentials:  credentials,
		principals:   principals,
		jwt:          jwtManager,
		refreshStore: refreshStore,
	}
}

type LoginRequest struct {
	// Login accepts the account's username or email.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Superuser: u.Superuser,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.registration.RegisterUser(cctx, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	pair, ok := h.issueTokenPair(ctx, cctx, u)

	if !ok {
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"accessToken":  pair.access,
		"refreshToken": pair.refresh,
		"user":         u,
	})
}

func (h *AuthHandler) RegisterCustomer(ctx *gin.Context) {
	var req customer.SelfRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, c, err := h.registration.RegisterCustomer(cctx, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	pair, ok := h.issueTokenPair(ctx, cctx, u)

	if !ok {
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"accessToken":  pair.access,
		"refreshToken": pair.refresh,
		"user":         u,
		"customer":     customerView(c),
	})
}

func (h *AuthHandler) CreateInstaller(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req user.CreateInstallerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.registration.CreateInstaller(cctx, actor, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.credentials.Authenticate(cctx, req.Login, req.Password)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	pair, ok := h.issueTokenPair(ctx, cctx, u)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.access,
		"refreshToken": pair.refresh,
		"user":         u,
	})
}

// Refresh rotates the presented refresh token under a row lock and returns a
// fresh pair.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		RespondError(ctx, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	row, err := h.refreshStore.GetForUpdate(cctx, tx, claims.JTI)

	if err != nil {
		RespondError(ctx, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token.", nil)
		return
	}

	if row.RevokedAt != nil {
		RespondError(ctx, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token.", nil)
		return
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		RespondError(ctx, http.StatusUnauthorized, "expired_refresh", "Refresh token expired.", nil)
		return
	}

	// hash must match the presented token (prevents token substitution)

	if row.TokenHash != h.jwt.HashRefreshToken(req.RefreshToken) {
		RespondError(ctx, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token.", nil)
		return
	}

	id := auth.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		Role:      claims.Role,
		Superuser: claims.Superuser,
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(id)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	// revoke old, insert new

	err = h.refreshStore.Revoke(cctx, tx, row.ID, &newJTI)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	newRow := postgres.RefreshTokenRow{
		ID:        newJTI,
		UserID:    row.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(cctx, tx, newRow)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	err = tx.Commit(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(id)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": newRaw,
	})
}

// Logout revokes the presented refresh token. Idempotent; always 204.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	var req LogoutRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.RefreshToken == "" {
		ctx.Status(http.StatusNoContent)
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	_ = h.refreshStore.Revoke(cctx, tx, claims.JTI, nil)
	_ = tx.Commit(cctx)

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.registration.CurrentUser(cctx, actor)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) UpdateMe(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.registration.UpdateCurrentUser(cctx, actor, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// helpers

type tokenPair struct {
	access  string
	refresh string
}

func (h *AuthHandler) issueTokenPair(ctx *gin.Context, cctx context.Context, u user.User) (tokenPair, bool) {
	id := identityOf(u)

	accessToken, err := h.jwt.GenerateAccessToken(id)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return tokenPair{}, false
	}

	rawRefresh, jti, expiresAt, err := h.jwt.GenerateRefreshToken(id)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return tokenPair{}, false
	}

	err = h.storeRefreshToken(cctx, u.ID, jti, rawRefresh, expiresAt)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return tokenPair{}, false
	}

	return tokenPair{access: accessToken, refresh: rawRefresh}, true
}

func (h *AuthHandler) storeRefreshToken(ctx context.Context, userID, jti, raw string, expiresAt time.Time) error {
	tx, err := h.refreshStore.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    userID,
		TokenHash: h.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(ctx, tx, row)

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
