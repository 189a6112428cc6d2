package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"sudonet/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

type postBody struct {
	ID               string  `json:"id"`
	Name             *string `json:"name"`
	Title            string  `json:"title"`
	StreetCredsCount int     `json:"street_creds_count"`
	CommentsCount    int     `json:"comments_count"`
	ViewsCount       int     `json:"views_count"`
}

func signup(t *testing.T, app *fiber.App, name, username string) authBody {
	t.Helper()
	status, body := do(t, app, request{
		method: http.MethodPost,
		path:   "/api/auth/signup",
		body: map[string]string{
			"name":     name,
			"username": username,
			"password": "password123",
		},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[authBody](t, body)
}

func createPost(t *testing.T, app *fiber.App, title string) postBody {
	t.Helper()
	status, body := do(t, app, request{
		method: http.MethodPost,
		path:   "/api/posts",
		body:   map[string]string{"name": "case", "title": title, "content": "jacked in"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[postBody](t, body)
}

func TestAuthHandlers(t *testing.T) {
	_, app := newTestServer(t)

	res := signup(t, app, "Molly", "molly")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Molly", res.User.Name)

	status, body := do(t, app, request{method: http.MethodGet, path: "/api/auth/me", token: res.Token})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, res.User.ID, decode[map[string]any](t, body)["id"])

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/auth/me", token: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, request{
		method: http.MethodPost,
		path:   "/api/auth/signup",
		body:   map[string]string{"name": "Other", "username": "molly", "password": "password123"},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[map[string]any](t, body)["code"])

	tests := []struct {
		name     string
		username string
		password string
		status   int
	}{
		{"valid", "molly", "password123", http.StatusOK},
		{"wrong password", "molly", "password124", http.StatusUnauthorized},
		{"username is case sensitive", "Molly", "password123", http.StatusUnauthorized},
		{"missing password", "molly", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, request{
				method: http.MethodPost,
				path:   "/api/auth/login",
				body:   map[string]string{"username": tt.username, "password": tt.password},
			})
			assert.Equal(t, tt.status, status)
		})
	}

	status, _ = do(t, app, request{method: http.MethodPost, path: "/api/auth/logout", token: res.Token})
	assert.Equal(t, http.StatusNoContent, status)
}

func TestPostHandlers(t *testing.T) {
	_, app := newTestServer(t)

	post := createPost(t, app, "  Night City  ")
	assert.Equal(t, "Night City", post.Title)

	status, body := do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, post.ID, decode[postBody](t, body).ID)

	status, body = do(t, app, request{method: http.MethodPost, path: "/api/posts/" + post.ID + "/view"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[postBody](t, body).ViewsCount)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/posts/not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, request{
		method: http.MethodPost,
		path:   "/api/posts",
		body:   map[string]string{"title": "   ", "content": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePostUsesSignedInName(t *testing.T) {
	_, app := newTestServer(t)
	auth := signup(t, app, "Riviera", "riviera")

	status, body := do(t, app, request{
		method: http.MethodPost,
		path:   "/api/posts",
		token:  auth.Token,
		body:   map[string]string{"title": "Holograms", "content": "look closer"},
	})
	require.Equal(t, http.StatusCreated, status)
	got := decode[postBody](t, body)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Riviera", *got.Name)
}

func TestCommentHandlers(t *testing.T) {
	_, app := newTestServer(t)
	post := createPost(t, app, "Straylight")

	status, body := do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID + "/comments"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	for _, content := range []string{"first", "second"} {
		status, _ = do(t, app, request{
			method: http.MethodPost,
			path:   "/api/posts/" + post.ID + "/comments",
			body:   map[string]string{"content": content},
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID + "/comments"})
	require.Equal(t, http.StatusOK, status)
	comments := decode[[]struct {
		Content string `json:"content"`
	}](t, body)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	_, body = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID})
	assert.Equal(t, 2, decode[postBody](t, body).CommentsCount)

	status, _ = do(t, app, request{
		method: http.MethodPost,
		path:   "/api/posts/" + uuid.NewString() + "/comments",
		body:   map[string]string{"content": "orphan"},
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStreetCredHandlers(t *testing.T) {
	s, app := newTestServer(t)
	post := createPost(t, app, "Chrome")
	fp := map[string]string{"X-Client-Fingerprint": "device-a"}

	type toggle struct {
		Marked bool `json:"marked"`
		Count  int  `json:"street_creds_count"`
	}

	status, body := do(t, app, request{method: http.MethodPost, path: "/api/posts/" + post.ID + "/creds", headers: fp})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, toggle{Marked: true, Count: 1}, decode[toggle](t, body))
	s.streetCredService.Wait()

	_, body = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID + "/creds", headers: fp})
	assert.Equal(t, true, decode[map[string]any](t, body)["marked"])

	_, body = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + post.ID + "/creds",
		headers: map[string]string{"X-Client-Fingerprint": "device-b"}})
	assert.Equal(t, false, decode[map[string]any](t, body)["marked"])

	status, body = do(t, app, request{method: http.MethodPost, path: "/api/posts/" + post.ID + "/creds", headers: fp})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, toggle{Marked: false, Count: 0}, decode[toggle](t, body))

	status, _ = do(t, app, request{method: http.MethodPost, path: "/api/posts/" + uuid.NewString() + "/creds", headers: fp})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFeedHandlers(t *testing.T) {
	_, app := newTestServer(t)

	createPost(t, app, "quiet")
	loud := createPost(t, app, "loud")
	for i := 0; i < 3; i++ {
		do(t, app, request{method: http.MethodPost, path: "/api/posts/" + loud.ID + "/view"})
	}

	status, body := do(t, app, request{method: http.MethodGet, path: "/api/feed/trending"})
	require.Equal(t, http.StatusOK, status)
	trending := decode[struct {
		Posts      []postBody `json:"posts"`
		Configured bool       `json:"configured"`
	}](t, body)
	assert.True(t, trending.Configured)
	require.Len(t, trending.Posts, 2)
	assert.Equal(t, "loud", trending.Posts[0].Title)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/feed/trending?period=week"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/feed/recent?limit=1"})
	require.Equal(t, http.StatusOK, status)
	recent := decode[struct {
		Posts []postBody `json:"posts"`
	}](t, body)
	require.Len(t, recent.Posts, 1)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/feed/search"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/feed/search?q=" + url.QueryEscape("LOUD")})
	require.Equal(t, http.StatusOK, status)
	search := decode[struct {
		Posts []postBody `json:"posts"`
	}](t, body)
	require.Len(t, search.Posts, 1)
	assert.Equal(t, loud.ID, search.Posts[0].ID)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/feed/devs"})
	assert.Equal(t, http.StatusOK, status)
}

func TestProfileHandlers(t *testing.T) {
	_, app := newTestServer(t)
	molly := signup(t, app, "Molly", "molly")
	armitage := signup(t, app, "Armitage", "armitage")

	status, body := do(t, app, request{method: http.MethodGet, path: "/api/profiles/Molly"})
	require.Equal(t, http.StatusOK, status, string(body))
	view := decode[map[string]any](t, body)
	assert.Equal(t, "found", view["outcome"])
	assert.Equal(t, false, view["is_own"])

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/profiles/Molly", token: molly.Token})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode[map[string]any](t, body)["is_own"])

	status, _ = do(t, app, request{
		method: http.MethodPut,
		path:   "/api/profiles/Molly",
		token:  armitage.Token,
		body:   map[string]string{"bio": "hijack"},
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, app, request{method: http.MethodPut, path: "/api/profiles/Molly", body: map[string]string{"bio": "x"}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, request{
		method: http.MethodPut,
		path:   "/api/profiles/Molly",
		token:  molly.Token,
		body:   map[string]string{"bio": "  razor girl  ", "archetype": "street_kid"},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode[struct {
		Profile struct {
			Bio       *string `json:"bio"`
			Archetype *string `json:"archetype"`
		} `json:"profile"`
	}](t, body)
	require.NotNil(t, updated.Profile.Bio)
	assert.Equal(t, "razor girl", *updated.Profile.Bio)
	require.NotNil(t, updated.Profile.Archetype)
	assert.Equal(t, "street_kid", *updated.Profile.Archetype)

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/profiles/ghost"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, decode[map[string]any](t, body)["details"])

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/profiles/Molly/edit", token: armitage.Token})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = do(t, app, request{method: http.MethodGet, path: "/api/archetypes"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 6)
}

func TestComposerHandlers(t *testing.T) {
	_, app := newTestServer(t)

	type composerBody struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Active bool   `json:"active"`
		Lines  []struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"lines"`
		Post *postBody `json:"post"`
	}

	status, body := do(t, app, request{method: http.MethodPost, path: "/api/composer"})
	require.Equal(t, http.StatusCreated, status)
	opened := decode[composerBody](t, body)
	require.NotEmpty(t, opened.ID)
	assert.Equal(t, "name", opened.State)
	assert.Equal(t, "=== POST CREATION CLI ===", opened.Lines[0].Content)

	var last composerBody
	for _, line := range []string{"wintermute", "Merge", "Two AIs", "done", "n", "y"} {
		status, body = do(t, app, request{
			method: http.MethodPost,
			path:   "/api/composer/" + opened.ID + "/input",
			body:   map[string]string{"line": line},
		})
		require.Equal(t, http.StatusOK, status, string(body))
		last = decode[composerBody](t, body)
	}
	assert.Equal(t, "submitted", last.State)
	assert.False(t, last.Active)
	require.NotNil(t, last.Post)
	assert.Equal(t, "Merge", last.Post.Title)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/api/posts/" + last.Post.ID})
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, request{
		method: http.MethodPost,
		path:   "/api/composer/" + opened.ID + "/input",
		body:   map[string]string{"line": "again"},
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, app, request{method: http.MethodDelete, path: "/api/composer/" + opened.ID})
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, request{method: http.MethodDelete, path: "/api/composer/" + opened.ID})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComposerImageAttach(t *testing.T) {
	_, app := newTestServer(t)

	_, body := do(t, app, request{method: http.MethodPost, path: "/api/composer"})
	id := decode[map[string]any](t, body)["id"].(string)
	input := func(line string) {
		status, body := do(t, app, request{
			method: http.MethodPost,
			path:   "/api/composer/" + id + "/input",
			body:   map[string]string{"line": line},
		})
		require.Equal(t, http.StatusOK, status, string(body))
	}

	input("skip")
	input("With image")
	input("body")
	input("done")

	// Not waiting for an image yet.
	status, _ := uploadFile(t, app, "/api/composer/"+id+"/image", "image", testutil.PNG(t))
	assert.Equal(t, http.StatusBadRequest, status)

	input("y")
	status, body = uploadFile(t, app, "/api/composer/"+id+"/image", "image", testutil.PNG(t))
	require.Equal(t, http.StatusOK, status, string(body))

	input("done")
	status, body = do(t, app, request{
		method: http.MethodPost,
		path:   "/api/composer/" + id + "/input",
		body:   map[string]string{"line": "y"},
	})
	require.Equal(t, http.StatusOK, status)
	res := decode[struct {
		Post struct {
			ImageURL *string `json:"image_url"`
		} `json:"post"`
	}](t, body)
	require.NotNil(t, res.Post.ImageURL)
	assert.Contains(t, *res.Post.ImageURL, "/storage/post-images/posts/")
}

func TestImageUploadAndServe(t *testing.T) {
	_, app := newTestServer(t)

	status, body := uploadFile(t, app, "/api/images", "image", testutil.PNG(t))
	require.Equal(t, http.StatusCreated, status, string(body))
	obj := decode[struct {
		URL string `json:"url"`
	}](t, body)

	u, err := url.Parse(obj.URL)
	require.NoError(t, err)
	status, body = do(t, app, request{method: http.MethodGet, path: u.Path})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "image/jpeg", http.DetectContentType(body))

	status, _ = do(t, app, request{method: http.MethodGet, path: "/storage/post-images/posts/missing.jpg"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, request{method: http.MethodGet, path: "/storage/secrets/x.jpg"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = uploadFile(t, app, "/api/images", "image", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, status)
}

func uploadFile(t *testing.T, app *fiber.App, path, field string, content []byte) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "upload.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}
