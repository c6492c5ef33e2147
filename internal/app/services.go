package app

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/render"
	"github.com/Freeeeeet/edulite_core/internal/repository"
	"github.com/Freeeeeet/edulite_core/internal/service"
)

// Services is the set of operations a transport layer calls into.
type Services struct {
	Users       *service.UserService
	Queries     *service.UserQueryService
	Privacy     *service.PrivacyService
	Friends     *service.FriendService
	Search      *service.SearchService
	Suggestions *service.SuggestionService
	Courses     *service.CourseService
	Slideshows  *service.SlideshowService
}

// NewServices wires every service over one store and one evaluator.
func NewServices(store repository.Store, cfg policy.Config, renderer render.Renderer, publisher events.Publisher, logger *zap.Logger) *Services {
	evaluator := policy.NewEvaluator(cfg)
	queries := service.NewUserQueryService(store)

	return &Services{
		Users:       service.NewUserService(store, logger.Named("users")),
		Queries:     queries,
		Privacy:     service.NewPrivacyService(store, evaluator, queries, logger.Named("privacy")),
		Friends:     service.NewFriendService(store, evaluator, queries, publisher, logger.Named("friends")),
		Search:      service.NewSearchService(store, evaluator, queries, logger.Named("search")),
		Suggestions: service.NewSuggestionService(store, queries, logger.Named("suggestions")),
		Courses:     service.NewCourseService(store, evaluator, publisher, logger.Named("courses")),
		Slideshows:  service.NewSlideshowService(store, renderer, logger.Named("slideshows")),
	}
}
