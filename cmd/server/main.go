// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"unity-within-go/internal/config"
	"unity-within-go/internal/handler"
	"unity-within-go/internal/middleware"
	"unity-within-go/internal/model"
	"unity-within-go/internal/pipeline"
	"unity-within-go/internal/repository"
	"unity-within-go/internal/service"
	"unity-within-go/internal/ws"
	"unity-within-go/pkg/ai"
	"unity-within-go/pkg/database"
	"unity-within-go/pkg/es"
	"unity-within-go/pkg/kafka"
	"unity-within-go/pkg/log"
	"unity-within-go/pkg/storage"
	"unity-within-go/pkg/token"
)

// defaultChatRooms 在空库启动时播种。
var defaultChatRooms = []model.ChatRoom{
	{Name: "General Support", Description: "A safe space for general discussions", Type: "public"},
	{Name: "Anxiety & Stress", Description: "Sharing tips and support for anxiety", Type: "support"},
	{Name: "The Hustle", Description: "Navigating career, finances, and ambition", Type: "public"},
	{Name: "Heartbreak Hotel", Description: "Healing from relationship loss", Type: "support"},
	{Name: "Exam Stress", Description: "Academic pressure and study fatigue", Type: "support"},
	{Name: "Midnight Thoughts", Description: "For when you can't sleep", Type: "public"},
}

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库与可选的外部组件
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	database.AutoMigrate(
		&model.User{},
		&model.ChatRoom{},
		&model.ChatMessage{},
		&model.Report{},
		&model.ModerationLog{},
		&model.UserMood{},
		&model.JournalEntry{},
		&model.TinyWin{},
	)

	esEnabled := cfg.Elasticsearch.Addresses != ""
	if esEnabled {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Errorf("es 初始化失败 %s", err)
			return
		}
	} else {
		log.Warnf("未配置 Elasticsearch，审核事件检索降级为数据库查询")
	}

	kafkaEnabled := cfg.Kafka.Brokers != ""
	if kafkaEnabled {
		kafka.InitProducer(cfg.Kafka)
	} else {
		log.Warnf("未配置 Kafka，审核事件只写数据库，不进入分析流")
	}

	minioEnabled := cfg.MinIO.Endpoint != ""
	if minioEnabled {
		storage.InitMinIO(cfg.MinIO)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	roomRepo := repository.NewChatRoomRepository(database.DB)
	messageRepo := repository.NewChatMessageRepository(database.DB)
	reportRepo := repository.NewReportRepository(database.DB)
	moderationRepo := repository.NewModerationLogRepository(database.DB)
	moodRepo := repository.NewMoodRepository(database.DB)
	journalRepo := repository.NewJournalRepository(database.DB)
	tinyWinRepo := repository.NewTinyWinRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)

	seedDefaultRooms(roomRepo)

	// 5. 构建 AI 提供商与编排器
	providers := ai.BuildProviders(context.Background(), cfg.AI)
	orchestrator := ai.NewOrchestrator(providers, cfg.AI.Retries, cfg.AI.Timeout, cfg.AI.BackoffBase, cfg.AI.MaxTotalWait)

	// 6. 初始化 Service (依赖注入)
	ticketManager := token.NewTicketManager(cfg.JWT.Secret, cfg.JWT.TicketExpireMinutes)
	hub := ws.NewHub()

	var fetcher service.DatasetFetcher
	if minioEnabled && cfg.Buddie.DatasetObject != "" {
		bucket := cfg.MinIO.BucketName
		fetcher = func(ctx context.Context, objectName string) ([]byte, error) {
			return storage.FetchObject(ctx, bucket, objectName)
		}
	}

	moderationService := service.NewModerationService(orchestrator)
	chatService := service.NewChatService(
		messageRepo, roomRepo, reportRepo, moderationRepo,
		moderationService, hub, cfg.Chat.Denylist, kafkaEnabled,
	)
	buddieService := service.NewBuddieService(
		orchestrator, conversationRepo,
		cfg.Buddie.DialogDataPath, cfg.Buddie.CounselingDataPath, cfg.Buddie.DatasetObject,
		cfg.Buddie.FewShotCount, fetcher,
	)
	insightService := service.NewInsightService(orchestrator, moodRepo, journalRepo, tinyWinRepo)
	wellnessService := service.NewWellnessService(moodRepo, journalRepo, tinyWinRepo)
	adminService := service.NewAdminService(
		userRepo, messageRepo, roomRepo, reportRepo, moderationRepo,
		conversationRepo, cfg.Elasticsearch.IndexName, esEnabled,
	)

	// 7. 启动后台 Kafka 消费者处理审核事件
	if kafkaEnabled {
		abuseTTL := time.Duration(cfg.Chat.AbuseCountTTLHour) * time.Hour
		processor := pipeline.NewModerationEventProcessor(conversationRepo, cfg.Elasticsearch.IndexName, esEnabled, abuseTTL)
		go kafka.StartConsumer(cfg.Kafka, processor)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.Identity())

	// 9. 注册路由
	r.GET("/api/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatHandler := handler.NewChatHandler(chatService, hub, ticketManager, cfg.Chat.HistoryLimit)
	buddieHandler := handler.NewBuddieHandler(buddieService)
	aiHandler := handler.NewAIHandler(insightService)
	wellnessHandler := handler.NewWellnessHandler(wellnessService)
	adminHandler := handler.NewAdminHandler(adminService)

	apiV1 := r.Group("/api/v1")
	{
		// Buddie 路由组 (匿名可用)
		apiV1.POST("/buddie/respond", buddieHandler.Respond)

		// AI 内容路由组
		aiGroup := apiV1.Group("/ai")
		{
			aiGroup.POST("/affirmation", aiHandler.Affirmation)
			aiGroup.POST("/reframe", aiHandler.Reframe)
			aiGroup.POST("/values-affirmation", aiHandler.ValuesAffirmation)
			aiGroup.POST("/educational", aiHandler.Educational)
			aiGroup.GET("/insights", middleware.RequireIdentity(), aiHandler.Insights)
		}

		// Chat 路由组
		chatGroup := apiV1.Group("/chat")
		{
			chatGroup.GET("/rooms", chatHandler.ListRooms)
			chatGroup.GET("/rooms/:id/messages", chatHandler.RoomMessages)
			chatGroup.GET("/feed", chatHandler.FeedMessages)
			chatGroup.POST("/messages", chatHandler.PostMessage)
			chatGroup.POST("/reports", middleware.RequireIdentity(), chatHandler.CreateReport)
			chatGroup.GET("/ws-ticket", middleware.RequireIdentity(), chatHandler.WsTicket)
		}

		// 心情、日记与小胜利，均需身份
		wellness := apiV1.Group("/")
		wellness.Use(middleware.RequireIdentity())
		{
			wellness.POST("/moods", wellnessHandler.RecordMood)
			wellness.GET("/moods", wellnessHandler.ListMoods)
			wellness.POST("/journals", wellnessHandler.CreateJournal)
			wellness.GET("/journals", wellnessHandler.ListJournals)
			wellness.POST("/tiny-wins", wellnessHandler.RecordTinyWin)
			wellness.GET("/tiny-wins", wellnessHandler.ListTinyWins)
		}

		// 管理员路由组
		admin := apiV1.Group("/admin")
		admin.Use(middleware.RequireAdmin(userRepo))
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id/abuse-count", adminHandler.UserAbuseCount)
			admin.GET("/moderation-logs", adminHandler.ListModerationLogs)
			admin.GET("/moderation-logs/search", adminHandler.SearchModerationEvents)
			admin.GET("/messages", adminHandler.ListMessages)
			admin.DELETE("/messages/:id", adminHandler.DeleteMessage)
			admin.GET("/reports", adminHandler.ListReports)
			admin.POST("/rooms", adminHandler.CreateRoom)
			admin.DELETE("/rooms/:id", adminHandler.DeleteRoom)
		}
	}

	// Chat 路由 (WebSocket)，票据放在路径中
	r.GET("/chat/:ticket", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会在程序退出时自然结束，
	// 如需更精细的控制可以在 StartConsumer 中实现关闭通道。
	log.Info("服务已优雅关闭")
}

// seedDefaultRooms 在聊天室表为空时播种默认房间（幂等）。
func seedDefaultRooms(roomRepo repository.ChatRoomRepository) {
	count, err := roomRepo.Count()
	if err != nil {
		log.Warnf("检查聊天室数量失败，跳过播种: %v", err)
		return
	}
	if count > 0 {
		return
	}
	for i := range defaultChatRooms {
		room := defaultChatRooms[i]
		if err := roomRepo.Create(&room); err != nil {
			log.Warnf("播种聊天室 '%s' 失败: %v", room.Name, err)
			return
		}
	}
	log.Info("默认聊天室播种完成")
}
