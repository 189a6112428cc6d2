package server

import (
	"sudonet/internal/models"
	"sudonet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTrending handles GET /api/feed/trending and GET /api/posts
// @Summary Trending posts
// @Description Posts ranked by street creds + comments + views, newest first on ties.
// @Tags feed
// @Produce json
// @Param period query string false "hour, day or all" default(all)
// @Param limit query int false "Max posts" default(10)
// @Success 200 {object} service.FeedResult
// @Failure 400 {object} models.ErrorResponse
// @Router /feed/trending [get]
func (s *Server) GetTrending(c *fiber.Ctx) error {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		return respondErr(c, err)
	}
	res, err := s.feedService.Trending(c.UserContext(), service.FeedQuery{
		Period: period,
		Limit:  c.QueryInt("limit", service.DefaultFeedLimit),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// GetRecent handles GET /api/feed/recent
// @Summary Recent posts
// @Tags feed
// @Produce json
// @Param limit query int false "Max posts" default(10)
// @Success 200 {object} service.FeedResult
// @Router /feed/recent [get]
func (s *Server) GetRecent(c *fiber.Ctx) error {
	res, err := s.feedService.Recent(c.UserContext(), service.FeedQuery{
		Limit: c.QueryInt("limit", service.DefaultFeedLimit),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// SearchFeed handles GET /api/feed/search?q=...
// @Summary Search posts and public profiles
// @Tags feed
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} models.ErrorResponse
// @Router /feed/search [get]
func (s *Server) SearchFeed(c *fiber.Ctx) error {
	res, err := s.feedService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// GetDevs handles GET /api/feed/devs
// @Summary Developer roster
// @Tags feed
// @Produce json
// @Success 200 {object} service.DevRoster
// @Router /feed/devs [get]
func (s *Server) GetDevs(c *fiber.Ctx) error {
	res, err := s.feedService.Devs(c.UserContext())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{name=string,title=string,content=string,image_url=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// A signed-in author without an explicit name posts under their own.
	if req.Name == "" {
		if id := s.optionalUser(c); id != nil {
			req.Name = id.Name
		}
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Name:     req.Name,
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		Origin:   service.OriginAPI,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(post)
}

// TrackView handles POST /api/posts/:id/view
// @Summary Count a view
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts/{id}/view [post]
func (s *Server) TrackView(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.TrackView(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(post)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments, oldest first
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} models.Comment
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Add a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{name=string,content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Name == "" {
		if caller := s.optionalUser(c); caller != nil {
			req.Name = caller.Name
		}
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		PostID:  id,
		Name:    req.Name,
		Content: req.Content,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ToggleStreetCred handles POST /api/posts/:id/creds
// @Summary Toggle the requester's street cred on a post
// @Description The requester is the X-Client-Fingerprint header, or a digest of IP and user agent.
// @Tags creds
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.ToggleOutcome
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/creds [post]
func (s *Server) ToggleStreetCred(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	outcome, err := s.streetCredService.Toggle(c.UserContext(), id, s.requester(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(outcome)
}

// GetStreetCredStatus handles GET /api/posts/:id/creds
// @Summary Whether the requester holds a street cred on a post
// @Tags creds
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{post_id=string,marked=bool}
// @Router /posts/{id}/creds [get]
func (s *Server) GetStreetCredStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	marked, err := s.streetCredService.Status(c.UserContext(), id, s.requester(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"post_id": id, "marked": marked})
}

func (s *Server) requester(c *fiber.Ctx) string {
	return s.fingerprinter.Requester(c.Get("X-Client-Fingerprint"), c.IP(), c.Get("User-Agent"))
}
