package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auth "github.com/supabase-community/auth-go"

	"github.com/engunity-ai/engunity/internal/config"
	"github.com/engunity-ai/engunity/internal/modules/serializer"
)

// CtxUserID is the gin context key carrying the authenticated user id.
const CtxUserID = "user_id"

// SupabaseAuth returns a middleware that authenticates requests with a
// Supabase access token. The token's subject becomes the owning user id for
// every downstream operation.
func SupabaseAuth(cfg *config.Config) gin.HandlerFunc {
	client := auth.New(cfg.Supabase.ProjectRef, cfg.Supabase.AnonKey)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		user, err := client.WithToken(token).GetUser()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		c.Set(CtxUserID, user.ID.String())
		c.Next()
	}
}
