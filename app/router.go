// Package app wires dependencies, middleware and handlers into the HTTP
// router
package app

import (
	"fmt"
	"strings"
	"time"

	"fashionai/avatar-api/app/ai"
	"fashionai/avatar-api/app/avatar"
	"fashionai/avatar-api/app/dashboard"
	"fashionai/avatar-api/app/files"
	"fashionai/avatar-api/app/image"
	"fashionai/avatar-api/app/root"
	"fashionai/avatar-api/app/user"
	"fashionai/avatar-api/aws"
	"fashionai/avatar-api/config"
	"fashionai/avatar-api/db"
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/middleware"
	"fashionai/avatar-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var store = persist.NewMemoryStore(time.Minute)

// Options holds the HTTP level settings that aren't dependencies
type Options struct {
	CORSOrigins []string
	// Requests per second per client IP
	RateLimit    int
	MaxBodyBytes int64
	Turnstile    middleware.TurnstileConfig
}

// OptionsFromConfig reads Options from the loaded configuration
func OptionsFromConfig() Options {
	return Options{
		CORSOrigins:  strings.Split(viper.GetString("host.cors"), ","),
		RateLimit:    viper.GetInt("security.rate_limit"),
		MaxBodyBytes: viper.GetInt64("upload.max_size_bytes"),
		Turnstile: middleware.TurnstileConfig{
			Enabled: viper.GetBool("turnstile.enabled"),
			Secret:  viper.GetString("turnstile.secret_token"),
		},
	}
}

// NewDeps builds every service from the loaded configuration
func NewDeps() (*internal.Deps, error) {
	d := &internal.Deps{}

	conn, err := db.New(viper.GetString("database.driver"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	switch viper.GetString("storage.type") {
	case "s3":
		client, err := aws.NewS3(aws.S3Options{
			AccessKey:       viper.GetString("aws.access_key"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
			Region:          viper.GetString("aws.region"),
			Bucket:          viper.GetString("aws.bucket"),
			Endpoint:        viper.GetString("aws.endpoint"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Store = storage.NewS3(client)
	default:
		local, err := storage.NewLocal(viper.GetString("storage.root"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage, %w", err)
		}

		d.Store = local
	}

	if addr := viper.GetString("redis.addr"); addr != "" {
		r, err := service.NewRedisRevoker(addr, viper.GetString("redis.password"), viper.GetInt("redis.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		d.Revoker = r
	} else {
		zap.L().Warn("No redis address set, logged out tokens are only remembered by this process")
		d.Revoker = service.NewMemoryRevoker()
	}

	d.Tokens = security.NewTokenIssuer(viper.GetString("jwt.secret"))

	d.Auth = &service.Auth{
		DB:        conn,
		Argon:     security.New(),
		Tokens:    d.Tokens,
		Revoker:   d.Revoker,
		ExposePIN: viper.GetBool("pin.expose_demo"),
	}

	if host := viper.GetString("mail.host"); host != "" {
		d.Auth.Mailer = service.NewSMTPMailer(
			host,
			viper.GetInt("mail.port"),
			viper.GetString("mail.sender_address"),
			viper.GetString("mail.password"),
		)
	}

	d.Users = &service.Users{DB: conn}

	d.Avatars = &service.Avatars{
		DB:      conn,
		Store:   d.Store,
		SDXL:    service.NewSDXLGenerator(viper.GetString("sdxl.base_url")),
		// Without a key the generator reports itself unavailable
		OpenAI:  service.NewOpenAIGenerator(viper.GetString("openai.api_key"), viper.GetString("openai.base_url")),
		Timeout: viper.GetDuration("avatar.generation_timeout"),
	}

	d.Images = &service.UserImages{DB: conn, Store: d.Store}

	d.Chat = &service.Chat{
		DB:         conn,
		Store:      d.Store,
		BaseURL:    viper.GetString("host.base_url"),
		Responders: service.DefaultResponders(),
	}

	return d, nil
}

// NewRouter builds the dependencies from config, starts background
// jobs and returns the ready engine
func NewRouter() (*gin.Engine, *internal.Deps, error) {
	d, err := NewDeps()
	if err != nil {
		return nil, nil, err
	}

	// Old PIN hashes are harmless but there's no reason to keep them
	service.PINCleanup(viper.GetDuration("pin.cleanup_interval"), d.DB)

	return NewEngine(d, OptionsFromConfig()), d, nil
}

// NewEngine registers middleware and every route on a new engine
func NewEngine(d *internal.Deps, o Options) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), !config.IsProduction()),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.SecurityHeaders(),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 8 << 20

	jwt := middleware.NewJWTMiddleware(d.Tokens, d.Revoker)
	turnstile := middleware.NewTurnstileMiddleware(o.Turnstile)
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: o.RateLimit,
		Burst:             o.RateLimit * 2,
	})
	bodyLimit := middleware.BodySizeLimiter(o.MaxBodyBytes)

	// GET /health			-> Liveness check
	router.GET("/health", root.Health)

	// GET /metrics			-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// GET /uploads/*path		-> Streams a stored avatar, user image or chat upload
	router.GET("/uploads/*path", func(c *gin.Context) { files.FileServe(c, d) })

	m := router.Group("/api", limiter.Handler(), bodyLimit)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, root.Validate)

		// GET /api/dashboard		-> Returns the user and login stats
		m.GET("/dashboard", jwt, func(c *gin.Context) { dashboard.DashboardFetch(c, d) })
	}

	u := m.Group("/user")
	{
		// POST /api/user/register	-> Registers a new user and logs them in
		u.POST("/register", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/user/login		-> Logs in with email and password
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/user/generate-pin	-> Issues a login PIN
		u.POST("/generate-pin", turnstile, func(c *gin.Context) { user.UserGeneratePIN(c, d) })

		// POST /api/user/verify-pin	-> Logs in with a PIN
		u.POST("/verify-pin", func(c *gin.Context) { user.UserVerifyPIN(c, d) })

		// POST /api/user/logout	-> Revokes the current token
		u.POST("/logout", jwt, func(c *gin.Context) { user.UserLogout(c, d) })

		// GET /api/user/profile	-> Returns the current user
		u.GET("/profile", jwt, func(c *gin.Context) { user.UserProfile(c, d) })

		// PUT /api/user/profile	-> Renames the current user
		u.PUT("/profile", jwt, func(c *gin.Context) { user.UserUpdateProfile(c, d) })
	}

	{
		// POST /api/generate-avatar	-> Generates and stores a multi-view avatar
		m.POST("/generate-avatar", jwt, func(c *gin.Context) { avatar.AvatarGenerate(c, d) })

		// GET /api/avatars		-> Lists the user's avatars
		m.GET("/avatars", jwt, func(c *gin.Context) { avatar.AvatarList(c, d) })

		// GET /api/avatars/:avatarId	-> Returns one avatar with image data
		m.GET("/avatars/:avatarId", jwt, func(c *gin.Context) { avatar.AvatarFetch(c, d) })
	}

	ui := m.Group("/user-images", jwt)
	{
		// POST /api/user-images	-> Uploads a base64 image
		ui.POST("", func(c *gin.Context) { image.ImageUpload(c, d) })

		// POST /api/user-images/upload	-> Same as above
		ui.POST("/upload", func(c *gin.Context) { image.ImageUpload(c, d) })

		// POST /api/user-images/upload-file	-> Uploads a multipart image
		ui.POST("/upload-file", func(c *gin.Context) { image.ImageUploadFile(c, d) })

		// POST /api/user-images/attach	-> Sets the male or female avatar image
		ui.POST("/attach", func(c *gin.Context) { image.ImageAttach(c, d) })

		// GET /api/user-images		-> Lists the user's images
		ui.GET("", func(c *gin.Context) { image.ImageList(c, d) })

		// DELETE /api/user-images/:id	-> Deletes an image
		ui.DELETE("/:id", func(c *gin.Context) { image.ImageDelete(c, d) })
	}

	a := m.Group("/ai", jwt)
	{
		// GET /api/ai/models		-> Lists the supported chat models
		a.GET("/models", cacheFor(5*60), func(c *gin.Context) { ai.Models(c, d) })

		// GET /api/ai/sessions		-> Lists chat sessions
		a.GET("/sessions", func(c *gin.Context) { ai.SessionList(c, d) })

		// POST /api/ai/sessions	-> Creates a chat session
		a.POST("/sessions", func(c *gin.Context) { ai.SessionCreate(c, d) })

		// PUT /api/ai/sessions/:sessionId	-> Updates a chat session
		a.PUT("/sessions/:sessionId", func(c *gin.Context) { ai.SessionUpdate(c, d) })

		// DELETE /api/ai/sessions/:sessionId	-> Deletes a chat session
		a.DELETE("/sessions/:sessionId", func(c *gin.Context) { ai.SessionDelete(c, d) })

		// POST /api/ai/sessions/:sessionId/message	-> Sends a message within a session
		a.POST("/sessions/:sessionId/message", func(c *gin.Context) { ai.SendSessionMessage(c, d) })

		// POST /api/ai/message		-> Sends a one-off message
		a.POST("/message", func(c *gin.Context) { ai.SendMessage(c, d) })

		// POST /api/ai/upload/image	-> Uploads a chat image
		a.POST("/upload/image", func(c *gin.Context) { ai.UploadImage(c, d) })

		// POST /api/ai/upload/attachment	-> Uploads a chat attachment
		a.POST("/upload/attachment", func(c *gin.Context) { ai.UploadAttachment(c, d) })
	}

	return router
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
