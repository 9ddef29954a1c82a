package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskpilot/docs"
	"taskpilot/internal/auth"
	"taskpilot/internal/config"
	"taskpilot/internal/errors"
	"taskpilot/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	chatHandler *handler.ChatHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes: the bearer token is validated before any core logic
	// runs, and the failure reads the same no matter which part failed.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: parseToken(jwtService, tokenStore),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: errors.ErrUnauthenticated.Error(),
				Code:  "UNAUTHENTICATED",
			})
		},
	}))

	// Auth routes
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/profile", authHandler.GetProfile)
	secured.PUT("/auth/profile", authHandler.UpdateProfile)

	// Task routes
	secured.GET("/tasks", taskHandler.List)
	secured.POST("/tasks", taskHandler.Create)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.PUT("/tasks/:id", taskHandler.Update)
	secured.DELETE("/tasks/:id", taskHandler.Delete)
	secured.PATCH("/tasks/:id/complete", taskHandler.Complete)

	// Chat routes
	secured.POST("/chat/conversations", chatHandler.CreateConversation)
	secured.GET("/chat/conversations", chatHandler.ListConversations)
	secured.DELETE("/chat/conversations/:id", chatHandler.DeleteConversation)
	secured.POST("/chat/conversations/:id/messages", chatHandler.SendMessage)
	secured.GET("/chat/conversations/:id/messages", chatHandler.ListMessages)
}

// parseToken validates the access token signature and expiry, rejects
// blacklisted tokens, and hands the claims to the request context.
func parseToken(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) func(c echo.Context, tokenString string) (interface{}, error) {
	return func(c echo.Context, tokenString string) (interface{}, error) {
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			return nil, err
		}
		if claims.ID != "" {
			blacklisted, _ := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if blacklisted {
				return nil, auth.ErrInvalidToken
			}
		}
		return claims, nil
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
