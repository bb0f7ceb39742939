package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/ktruong/campusblog/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/profile", app.getProfileHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/users/profile", app.requireAuthUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodPost, "/v1/users/avatar", app.requireAuthUser(app.uploadImageHandler("avatars")))

	// blog service. httprouter refuses static siblings of a wildcard segment,
	// so every route under /v1/blogs is either the collection itself or :id;
	// search is a query parameter on the collection and the banner upload
	// lives under /v1/uploads.
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requirePermission(app.createBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requirePermission(app.updateBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requirePermission(app.deleteBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/like", app.likeBlogHandler)
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/counters", app.blogCountersHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/blogs", app.getBlogsByUserIdHandler)
	router.HandlerFunc(http.MethodPost, "/v1/uploads/banner", app.requirePermission(app.uploadImageHandler("banners"), userservice.PermissionWriteBlog))

	// comment service
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments", app.createCommentHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/comments/:id", app.requireAuthUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireAuthUser(app.deleteCommentHandler))

	// dashboard
	router.HandlerFunc(http.MethodGet, "/v1/dashboard", app.requireAuthUser(app.dashboardHandler))
	router.HandlerFunc(http.MethodGet, "/v1/dashboard/watch", app.requireAuthUser(app.dashboardWatchHandler))

	return app.recoverPanic(app.enableCORS(app.rateLimit(app.logRequest(app.authenticate(router)))))
}
