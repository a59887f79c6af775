package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/meeting-room-booking/backend/internal/booking"
	"github.com/meeting-room-booking/backend/internal/cache"
	"github.com/meeting-room-booking/backend/internal/config"
	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/mailer"
	"github.com/meeting-room-booking/backend/internal/repository"
	"github.com/meeting-room-booking/backend/internal/token"
)

// Repository 是 handler 依赖的全部存储操作，由 repository.Repository 实现
type Repository interface {
	booking.Store

	CreateUser(user *domain.User) error
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	GetUserWithRolesByID(id int64) (*domain.User, error)
	UpdateUser(user *domain.User) error
	FreezeUser(id int64) error
	ListUsers(username string, nickName string, email string, page int, pageSize int) ([]*domain.User, int64, error)
	CheckEmailIfExists(email string) (bool, error)

	CreateMeetingRoom(room *domain.MeetingRoom) error
	GetMeetingRoomByID(id int64) (*domain.MeetingRoom, error)
	CheckMeetingRoomNameIfExists(name string) (bool, error)
	UpdateMeetingRoom(room *domain.MeetingRoom) error
	DeleteMeetingRoom(id int64) error
	ListMeetingRooms(name string, location string, page int, pageSize int) ([]*domain.MeetingRoom, int64, error)

	ListBookings(filter repository.BookingFilter) ([]*domain.Booking, int64, error)
	UserBookingCount(startTime time.Time, endTime time.Time) ([]*domain.UserBookingCount, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Repository
	translator ut.Translator
	mailQueue  *mailer.Queue
	cache      cache.Store
	codec      *token.Codec
	engine     *booking.Engine

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, mailQueue *mailer.Queue, cacheStore cache.Store) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		mailQueue:  mailQueue,
		cache:      cacheStore,
		codec:      token.NewCodec(cfg.JWT.Secret),
		engine:     booking.NewEngine(repo, cacheStore, mailQueue, time.Duration(cfg.Booking.UrgeCooldown)*time.Second),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 用户模块
	h.Mux.Route("/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Get("/register-captcha", h.RegisterCaptcha)
		r.Post("/login", h.Login)
		r.Post("/admin/login", h.AdminLogin)
		r.Get("/refresh-token", h.RefreshToken)
		r.Post("/update_password", h.UpdatePassword)
		r.Post("/admin/update_password", h.UpdatePassword)
		r.Get("/update_password/captcha", h.UpdatePasswordCaptcha)

		// 测试接口，aaa 不需要登录，bbb 需要登录且需要 ddd 权限
		r.Get("/aaa", h.Aaa)
		r.With(h.auth, h.RequirePermission("ddd")).Get("/bbb", h.Bbb)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Get("/info", h.Info)
			r.Post("/update", h.Update)
			r.Post("/admin/update", h.Update)
			r.Get("/update/captcha", h.UpdateCaptcha)
			r.Get("/freeze", h.Freeze)
			r.Get("/list", h.ListUsers)
		})
	})

	// 会议室模块，查询不需要登录，管理需要登录
	h.Mux.Route("/meeting-room", func(r chi.Router) {
		r.Get("/list", h.ListMeetingRooms)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/create", h.CreateMeetingRoom)
			r.Put("/update", h.UpdateMeetingRoom)
			r.Get("/{id}", h.GetMeetingRoom)
			r.Delete("/{id}", h.DeleteMeetingRoom)
		})
	})

	// 预定模块
	h.Mux.Route("/booking", func(r chi.Router) {
		r.Get("/list", h.ListBookings)
		r.Get("/apply", h.ApplyBooking)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/add", h.AddBooking)
			r.Get("/urge/{id}", h.UrgeBooking)
		})
	})

	// 统计模块
	h.Mux.With(h.auth).Get("/statistic/user-booking-count", h.UserBookingCount)
}
