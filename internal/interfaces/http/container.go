package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appentitlement "adapta/internal/application/entitlement"
	appsession "adapta/internal/application/session"
	domainpermission "adapta/internal/domain/permission"
	"adapta/internal/infrastructure/auth"
	"adapta/internal/infrastructure/cache"
	"adapta/internal/infrastructure/config"
	infrapermission "adapta/internal/infrastructure/permission"
	"adapta/internal/infrastructure/repository"
	"adapta/internal/infrastructure/securestore"
	"adapta/internal/interfaces/http/handlers"
	"adapta/internal/interfaces/http/middleware"
	"adapta/internal/interfaces/http/routes"
	"adapta/internal/shared/logger"
)

// Container wires all infrastructure, application services and handlers
// together and owns their lifecycle.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Secure storage
	cipher      *securestore.Cipher
	secureStore *securestore.Store

	// Authorization
	enforcer   *infrapermission.Enforcer
	permEngine *domainpermission.Engine

	// Application services
	anonymousProvider *appsession.AnonymousIdentityProvider
	flowController    *appsession.FlowController
	bindingService    *appsession.IdentityBindingService
	sessionContext    *appsession.SessionContext
	tracker           *appentitlement.Tracker

	// Token issuance
	jwtService *auth.JWTService

	// Handlers and middleware
	sessionHandler     *handlers.SessionHandler
	entitlementHandler *handlers.EntitlementHandler
	inviteHandler      *handlers.InviteHandler
	authMiddleware     *middleware.AuthMiddleware
	anonymousID        gin.HandlerFunc
	rateLimiter        *middleware.RateLimiter
}

// NewContainer creates the container with all dependencies wired together.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initApplication()
	c.initInterfaces()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	c.redis = redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.GetAddr(),
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})

	cipher, err := securestore.NewCipher(c.cfg.Session.StoreSecret)
	if err != nil {
		return fmt.Errorf("failed to create session cipher: %w", err)
	}
	c.cipher = cipher

	backend := repository.NewSecureRecordRepository(c.db, c.log)
	c.secureStore = securestore.NewStore(cipher, backend, c.log)

	enforcer, err := infrapermission.NewEnforcer(c.db, c.log)
	if err != nil {
		return fmt.Errorf("failed to create enforcer: %w", err)
	}
	c.enforcer = enforcer

	c.permEngine = domainpermission.NewEngine(domainpermission.DefaultRules(), c.log)

	c.jwtService = auth.NewJWTService(
		c.cfg.Session.JWT.Secret,
		c.cfg.Session.JWT.AccessExpMinutes,
		c.cfg.Session.JWT.RefreshExpDays,
	)

	return nil
}

func (c *Container) initApplication() {
	identityRepo := repository.NewIdentityRepository(c.db, c.log)
	entitlementRepo := repository.NewEntitlementRepository(c.db, c.log)
	bindingRepo := repository.NewBindingRepository(c.db, c.log)
	inviteRepo := repository.NewInviteRecordRepository(c.db, c.log)

	c.anonymousProvider = appsession.NewAnonymousIdentityProvider(
		identityRepo,
		entitlementRepo,
		c.cfg.Entitlement.DefaultMonthlyLimit,
		c.log,
	)

	oidcClient := auth.NewOIDCClient(c.cfg.Provider)
	stateStore := cache.NewRedisStateStore(c.redis, "adapta:oidc:", c.cfg.Session.StateTTL())
	c.flowController = appsession.NewFlowController(oidcClient, stateStore, c.log)

	c.bindingService = appsession.NewIdentityBindingService(
		identityRepo,
		bindingRepo,
		entitlementRepo,
		c.cfg.Entitlement.DefaultMonthlyLimit,
		c.log,
	)

	c.sessionContext = appsession.NewSessionContext(
		c.anonymousProvider,
		c.flowController,
		c.bindingService,
		c.secureStore,
		identityRepo,
		c.enforcer,
		c.log,
	)

	c.tracker = appentitlement.NewTracker(entitlementRepo, inviteRepo, c.cfg.Entitlement, c.log)
}

func (c *Container) initInterfaces() {
	c.sessionHandler = handlers.NewSessionHandler(
		c.sessionContext,
		c.flowController,
		c.permEngine,
		c.jwtService,
		c.cfg.Server,
		c.cfg.Cookie,
		c.log,
	)
	c.entitlementHandler = handlers.NewEntitlementHandler(c.tracker, c.log)
	c.inviteHandler = handlers.NewInviteHandler(c.tracker, c.log)

	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtService, c.log)
	c.anonymousID = middleware.AnonymousID(c.anonymousProvider, c.cfg.Cookie, c.log)
	c.rateLimiter = middleware.NewRateLimiter(c.redis, 30, time.Minute)
}

// Bootstrap seeds the role grants. Call it once after construction, before
// serving traffic. Sessions are resolved per request from the caller's
// claims; there is no global state to warm up.
func (c *Container) Bootstrap(ctx context.Context) error {
	if err := c.enforcer.SeedDefaultGrants(); err != nil {
		return fmt.Errorf("failed to seed role grants: %w", err)
	}
	return nil
}

// SetupRoutes configures global middleware and all route groups.
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.Logger(c.log))
	c.engine.Use(middleware.Recovery())
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	c.engine.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	routes.SetupSessionRoutes(c.engine, &routes.SessionRouteConfig{
		SessionHandler: c.sessionHandler,
		AuthMiddleware: c.authMiddleware,
		AnonymousID:    c.anonymousID,
		RateLimiter:    c.rateLimiter,
	})

	routes.SetupEntitlementRoutes(c.engine, &routes.EntitlementRouteConfig{
		EntitlementHandler: c.entitlementHandler,
		AuthMiddleware:     c.authMiddleware,
		AnonymousID:        c.anonymousID,
	})

	routes.SetupInviteRoutes(c.engine, &routes.InviteRouteConfig{
		InviteHandler:  c.inviteHandler,
		AuthMiddleware: c.authMiddleware,
		AnonymousID:    c.anonymousID,
		RateLimiter:    c.rateLimiter,
	})
}

// Engine returns the underlying gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Shutdown releases infrastructure resources.
func (c *Container) Shutdown() error {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close redis client", "error", err)
			return err
		}
	}
	return nil
}
