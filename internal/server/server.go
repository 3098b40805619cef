package server

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/config"
	"github.com/picknic/picknic-backend/internal/event"
	"github.com/picknic/picknic-backend/internal/handler"
	appmw "github.com/picknic/picknic-backend/internal/middleware"
	appredis "github.com/picknic/picknic-backend/internal/redis"
	"github.com/picknic/picknic-backend/internal/repository"
	"github.com/picknic/picknic-backend/internal/service"
)

type Server struct {
	e          *echo.Echo
	dispatcher *event.Dispatcher
}

func New(db *gorm.DB, rds *appredis.Client, cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	counters := appredis.NewCounterStore(rds)
	leaderboards := appredis.NewLeaderboardStore(rds)

	userPointRepo := repository.NewUserPointRepository(db)
	historyRepo := repository.NewPointHistoryRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewTxManager(db)

	limiter := service.NewDailyLimiter(counters, clockwork.NewRealClock())
	pointSvc := service.NewPointService(
		txManager, userPointRepo, historyRepo, limiter, counters, leaderboards,
		service.Quotas{Vote: cfg.VoteDailyLimit, Create: cfg.CreateDailyLimit},
	)
	rankingSvc := service.NewRankingService(leaderboards, userRepo, userPointRepo)
	notifSvc := service.NewNotificationService(notifRepo, userRepo, service.LogPushSink{})

	dispatcher := event.NewDispatcher(cfg.DispatchWorkers, cfg.DispatchQueueSize)
	dispatcher.Subscribe(event.NewPointListener(pointSvc))
	dispatcher.Subscribe(event.NewPromotionListener(notifSvc))
	dispatcher.Start()

	pointHandler := handler.NewPointHandler(pointSvc)
	rewardHandler := handler.NewRewardHandler(pointSvc, rewardRepo)
	rankingHandler := handler.NewRankingHandler(rankingSvc, userRepo)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	voteEventHandler := handler.NewVoteEventHandler(dispatcher)

	identity := appmw.NewIdentityMiddleware()

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api", identity.RequireUser)
	api.GET("/points/history", pointHandler.History)
	api.POST("/points/check-in", pointHandler.CheckIn)
	api.GET("/rewards", rewardHandler.List)
	api.POST("/rewards/:id/redeem", rewardHandler.Redeem)
	api.GET("/rankings/personal", rankingHandler.Personal)
	api.GET("/rankings/schools", rankingHandler.Schools)
	api.GET("/notifications", notifHandler.List)
	api.POST("/notifications/read", notifHandler.MarkAllRead)
	api.POST("/votes/:id/events", voteEventHandler.Publish)
	api.POST("/votes/:id/promote", voteEventHandler.Promote)

	return &Server{e: e, dispatcher: dispatcher}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown stops accepting requests, then drains the event queue so
// accepted accruals still land.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.dispatcher.Stop()
	return err
}
