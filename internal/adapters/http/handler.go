package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

// Handler holds the HTTP handlers for the migration API.
type Handler struct {
	service ports.MigrationService
}

// NewHandler creates a new HTTP handler with the given migration service.
func NewHandler(service ports.MigrationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up all API routes on the given Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/playlists", h.ListPlaylists)
		api.GET("/playlists/:id/tracks", h.ListPlaylistTracks)
		api.POST("/playlists/merge", h.MergePlaylists)
		api.DELETE("/playlists/:id", h.DeletePlaylist)
		api.GET("/liked", h.ListLiked)
		api.POST("/migrate", h.MigratePlaylist)
		api.POST("/migrate/tracks", h.MigrateTracks)
		api.POST("/migrate/liked", h.MigrateLiked)
		api.GET("/jobs/:id", h.GetJob)
	}
}

// Health returns a simple health check response.
//
//	@Summary		Health check
//	@Description	Returns the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ListPlaylists returns playlists for the given provider and authenticated user.
//
//	@Summary		List user playlists
//	@Description	Returns all playlists for the authenticated user on the specified streaming provider.
//	@Tags			playlists
//	@Produce		json
//	@Param			provider		query		string	true	"Streaming provider"	Enums(spotify, tidal, youtube)
//	@Param			Authorization	header		string	true	"Bearer token for the streaming provider"
//	@Success		200				{array}		domain.Playlist
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		502				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/playlists [get]
func (h *Handler) ListPlaylists(c *gin.Context) {
	cred, ok := credential(c)
	if !ok {
		return
	}

	playlists, err := h.service.ListPlaylists(c.Request.Context(), cred)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// ListPlaylistTracks returns every track of one playlist.
//
//	@Summary		List playlist tracks
//	@Tags			playlists
//	@Produce		json
//	@Param			id				path		string	true	"Playlist ID"
//	@Param			provider		query		string	true	"Streaming provider"	Enums(spotify, tidal, youtube)
//	@Param			Authorization	header		string	true	"Bearer token for the streaming provider"
//	@Success		200				{array}		domain.TrackRef
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/playlists/{id}/tracks [get]
func (h *Handler) ListPlaylistTracks(c *gin.Context) {
	cred, ok := credential(c)
	if !ok {
		return
	}

	tracks, err := h.service.ListPlaylistTracks(c.Request.Context(), cred, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracks)
}

// ListLiked returns one page of the user's liked tracks.
//
//	@Summary		List liked tracks
//	@Tags			liked
//	@Produce		json
//	@Param			provider		query		string	true	"Streaming provider"	Enums(spotify, tidal, youtube)
//	@Param			limit			query		int		false	"Page size"	default(50)
//	@Param			offset			query		int		false	"Offset"	default(0)
//	@Param			Authorization	header		string	true	"Bearer token for the streaming provider"
//	@Success		200				{object}	domain.LikedPage
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/liked [get]
func (h *Handler) ListLiked(c *gin.Context) {
	cred, ok := credential(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.service.ListLiked(c.Request.Context(), cred, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// MigratePlaylist migrates a playlist between two streaming providers.
//
//	@Summary		Migrate playlist
//	@Description	Fetches every track of the source playlist, matches each on the destination by
//	@Description	normalized title and artist using concurrent workers, and writes the matches to a new
//	@Description	destination playlist. The result lists every track that could not be found.
//	@Tags			migration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.MigratePlaylistRequest	true	"Providers, tokens and the source playlist"
//	@Success		200		{object}	domain.MigrationResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	domain.MigrationResult
//	@Failure		422		{object}	domain.MigrationResult
//	@Failure		502		{object}	domain.MigrationResult
//	@Router			/api/v1/migrate [post]
func (h *Handler) MigratePlaylist(c *gin.Context) {
	var req domain.MigratePlaylistRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.MigratePlaylist(c.Request.Context(), req)
	respondMigration(c, result, err)
}

// MigrateTracks migrates an explicit list of tracks.
//
//	@Summary		Migrate selected tracks
//	@Description	Matches the listed tracks on the destination and writes them to the target:
//	@Description	the liked list, a new playlist or an existing playlist.
//	@Tags			migration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.MigrateTracksRequest	true	"Providers, tokens, tracks and target"
//	@Success		200		{object}	domain.MigrationResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	domain.MigrationResult
//	@Failure		422		{object}	domain.MigrationResult
//	@Router			/api/v1/migrate/tracks [post]
func (h *Handler) MigrateTracks(c *gin.Context) {
	var req domain.MigrateTracksRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.MigrateTracks(c.Request.Context(), req)
	respondMigration(c, result, err)
}

// MigrateLiked migrates the source user's liked tracks.
//
//	@Summary		Migrate liked tracks
//	@Tags			migration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.MigrateLikedRequest	true	"Providers, tokens and target"
//	@Success		200		{object}	domain.MigrationResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	domain.MigrationResult
//	@Failure		422		{object}	domain.MigrationResult
//	@Router			/api/v1/migrate/liked [post]
func (h *Handler) MigrateLiked(c *gin.Context) {
	var req domain.MigrateLikedRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.MigrateLiked(c.Request.Context(), req)
	respondMigration(c, result, err)
}

// MergePlaylists merges one playlist into another on the same provider.
//
//	@Summary		Merge playlists
//	@Description	Adds the source tracks missing from the target, then deletes the source playlist.
//	@Tags			playlists
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.MergeRequest	true	"Provider, token and playlist IDs"
//	@Success		200		{object}	domain.MergeResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	domain.MergeResult
//	@Failure		502		{object}	domain.MergeResult
//	@Router			/api/v1/playlists/merge [post]
func (h *Handler) MergePlaylists(c *gin.Context) {
	var req domain.MergeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.MergePlaylists(c.Request.Context(), req)
	if err != nil && result == nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status, _ = statusFor(err)
	}
	c.JSON(status, result)
}

// DeletePlaylist deletes a playlist owned by the user.
//
//	@Summary		Delete playlist
//	@Tags			playlists
//	@Produce		json
//	@Param			id				path		string	true	"Playlist ID"
//	@Param			provider		query		string	true	"Streaming provider"	Enums(spotify, tidal, youtube)
//	@Param			Authorization	header		string	true	"Bearer token for the streaming provider"
//	@Success		200				{object}	domain.DeleteResult
//	@Failure		401				{object}	domain.DeleteResult
//	@Failure		404				{object}	domain.DeleteResult
//	@Security		BearerAuth
//	@Router			/api/v1/playlists/{id} [delete]
func (h *Handler) DeletePlaylist(c *gin.Context) {
	cred, ok := credential(c)
	if !ok {
		return
	}
	result, err := h.service.DeletePlaylist(c.Request.Context(), cred, c.Param("id"))
	if err != nil {
		status, _ := statusFor(err)
		if result == nil {
			result = &domain.DeleteResult{Success: false, Message: err.Error()}
		}
		c.JSON(status, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetJob returns the recorded result of a finished job.
//
//	@Summary		Get job
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	domain.JobRecord
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	rec, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a service error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNothingMigrated):
		return http.StatusUnprocessableEntity, "nothing_migrated"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "rejected"
	default:
		return http.StatusBadGateway, "provider_error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}

// respondMigration writes a migration result. A failed job still carries its
// counts, so the result is sent whenever there is one.
func respondMigration(c *gin.Context, result *domain.MigrationResult, err error) {
	if err == nil {
		c.JSON(http.StatusOK, result)
		return
	}
	if result == nil {
		respondError(c, err)
		return
	}
	status, _ := statusFor(err)
	c.JSON(status, result)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: msg})
}

// credential reads the provider query parameter and the bearer token. It
// writes the error response itself when either is missing.
func credential(c *gin.Context) (domain.Credential, bool) {
	provider := c.Query("provider")
	if provider == "" {
		badRequest(c, "query parameter 'provider' is required")
		return domain.Credential{}, false
	}

	token := extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authorization header with Bearer token is required",
		})
		return domain.Credential{}, false
	}
	return domain.Credential{Provider: provider, Token: token}, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("query parameter '" + name + "' must be a non-negative integer")
	}
	return n, nil
}

// extractToken retrieves the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return auth
}
