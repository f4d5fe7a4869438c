package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/http/middlewares"
	"github.com/greenvolt/loanhub/internal/service"
)

// resolvePrincipal builds the acting principal from the verified claims the
// auth middleware stashed on the context. Responds and returns false on
// failure so handlers can bail with a bare return.
func resolvePrincipal(ctx *gin.Context, resolver *service.PrincipalResolver) (authz.Principal, bool) {
	claims, ok := middlewares.ClaimsFromContext(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthenticated", "Authentication required.", nil)
		return authz.Principal{}, false
	}

	p, err := resolver.Resolve(ctx.Request.Context(), claims)

	if err != nil {
		RespondAppError(ctx, err)
		return authz.Principal{}, false
	}

	return p, true
}
