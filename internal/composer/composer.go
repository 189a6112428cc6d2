// Package composer implements the guided, terminal-styled post creation flow.
// A Composer consumes one line of input at a time and answers with transcript
// lines; the CLI and the HTTP composer sessions both drive it.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/service"
	"sudonet/internal/storage"
)

// State is a step of the flow.
type State string

const (
	StateName          State = "name"
	StateTitle         State = "title"
	StateContent       State = "content"
	StateImageDecision State = "image_decision"
	StateImageUpload   State = "image_upload"
	StateConfirm       State = "confirm"
	StateSubmitted     State = "submitted"
)

// Line kinds.
const (
	KindInput  = "input"
	KindOutput = "output"
)

// ErrInactive is returned for input to a composer that was never started,
// was exited or has already submitted.
var ErrInactive = errors.New("composer is not active")

// Prompts.
const (
	promptName          = `Enter your name (or type "skip" for anonymous):`
	promptTitle         = "Enter post title:"
	promptContent       = `Enter post content (type "done" when finished):`
	promptImageDecision = "Do you want to attach an image? (y/n):"
	promptYesNo         = "Please answer with y/n:"
	promptConfirm       = "Create this post? (y/n):"
)

// Line is one transcript entry.
type Line struct {
	Kind string    `json:"type"`
	Text string    `json:"content"`
	At   time.Time `json:"timestamp"`
}

// Image is an attachment waiting to be uploaded on submit.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// PostCreator is the post service as the composer uses it.
type PostCreator interface {
	CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error)
}

type Option func(*Composer)

// WithOrigin labels posts created through this composer.
func WithOrigin(origin string) Option {
	return func(c *Composer) { c.origin = origin }
}

// WithClock overrides the transcript clock.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// Composer is safe for concurrent use.
type Composer struct {
	mu sync.Mutex

	posts  PostCreator
	images service.Uploader
	origin string
	now    func() time.Time

	active     bool
	state      State
	name       string
	title      string
	content    string
	image      *Image
	transcript []Line
	lastPost   *models.Post
}

func New(posts PostCreator, images service.Uploader, opts ...Option) *Composer {
	c := &Composer{
		posts:  posts,
		images: images,
		origin: service.OriginComposer,
		now:    time.Now,
		state:  StateName,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start resets the flow and returns the welcome lines.
func (c *Composer) Start() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	c.transcript = nil
	c.active = true
	mark := len(c.transcript)
	c.out("=== POST CREATION CLI ===")
	c.out("Welcome to the post creation terminal!")
	c.out(`Type "help" for available commands`)
	c.out(promptName)
	return c.since(mark)
}

// Input feeds one line to the current step and returns the lines it produced.
func (c *Composer) Input(ctx context.Context, raw string) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil, ErrInactive
	}
	cmd := strings.TrimSpace(raw)
	mark := len(c.transcript)

	switch cmd {
	case "exit", "quit":
		c.reset()
		c.active = false
		c.out("Exited post creation.")
		return c.since(mark), nil
	case "clear":
		c.transcript = nil
		return nil, nil
	case "help":
		c.out("Available commands:")
		c.out("  help - Show this help message")
		c.out("  clear - Clear terminal")
		c.out("  exit/quit - Exit post creation")
		c.out("  skip - Skip current step")
		c.out("  back - Go back to previous step")
		return c.since(mark), nil
	case "skip":
		c.skip()
		return c.since(mark), nil
	case "back":
		c.back()
		return c.since(mark), nil
	}

	c.in(cmd)
	c.step(ctx, cmd)
	return c.since(mark), nil
}

// Attach records the image to upload on submit. It is only accepted while
// the flow waits for an image.
func (c *Composer) Attach(img Image) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil, ErrInactive
	}
	if c.state != StateImageUpload {
		return nil, models.NewValidationError("Not expecting an image at this step")
	}
	if len(img.Data) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if img.Name == "" {
		img.Name = "image"
	}
	mark := len(c.transcript)
	c.image = &img
	c.out(fmt.Sprintf("Image selected: %s", describeImage(&img)))
	c.out(`Type "done" to continue.`)
	return c.since(mark), nil
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Transcript returns every line since the last start or clear.
func (c *Composer) Transcript() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// LastPost returns the post created by the most recent submission.
func (c *Composer) LastPost() *models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPost
}

func (c *Composer) step(ctx context.Context, cmd string) {
	answer := strings.ToLower(cmd)

	switch c.state {
	case StateName:
		if cmd == "" {
			c.skip()
			return
		}
		c.name = cmd
		c.out("Name set: " + cmd)
		c.state = StateTitle
		c.out(promptTitle)

	case StateTitle:
		if cmd == "" {
			c.out("Title cannot be empty. Please enter a title:")
			return
		}
		c.title = cmd
		c.out("Title set: " + cmd)
		c.state = StateContent
		c.out(promptContent)

	case StateContent:
		if cmd == "done" || cmd == "" {
			if strings.TrimSpace(c.content) == "" {
				c.out("Content cannot be empty. Please enter some content:")
				return
			}
			if cmd == "" {
				c.content += "\n"
				c.out(`Content added. Type "done" when finished or continue adding content:`)
				return
			}
			c.state = StateImageDecision
			c.out("Content saved!")
			c.out(promptImageDecision)
			return
		}
		if c.content == "" {
			c.content = cmd
		} else {
			c.content += "\n" + cmd
		}
		c.out(`Content added. Type "done" when finished or continue adding content:`)

	case StateImageDecision:
		switch answer {
		case "y", "yes":
			c.state = StateImageUpload
			c.out("Image upload initiated...")
			c.out(`Attach an image, then type "done":`)
		case "n", "no":
			c.toConfirm()
		default:
			c.out(promptYesNo)
		}

	case StateImageUpload:
		if answer == "done" {
			c.toConfirm()
			return
		}
		c.out(`Type "done" after attaching an image, or "back" to change your mind:`)

	case StateConfirm:
		switch answer {
		case "y", "yes":
			c.submit(ctx)
		case "n", "no":
			c.out("Post creation cancelled.")
			c.reset()
			c.out(promptName)
		default:
			c.out(promptYesNo)
		}
	}
}

func (c *Composer) skip() {
	switch c.state {
	case StateName:
		c.name = ""
		c.out("Name skipped (will be anonymous)")
		c.state = StateTitle
		c.out(promptTitle)
	case StateImageDecision:
		c.image = nil
		c.out("Image skipped")
		c.toConfirm()
	default:
		c.out("Cannot skip this step")
	}
}

func (c *Composer) back() {
	switch c.state {
	case StateTitle:
		c.state = StateName
		c.out(`Back to name entry. Enter your name (or type "skip"):`)
	case StateContent:
		c.state = StateTitle
		c.out("Back to title entry. Enter post title:")
	case StateImageDecision:
		c.state = StateContent
		c.out(`Back to content entry. Continue adding content or type "done":`)
	case StateImageUpload, StateConfirm:
		c.state = StateImageDecision
		c.out("Back to image selection. " + promptImageDecision)
	default:
		c.out("Cannot go back from this step")
	}
}

func (c *Composer) toConfirm() {
	c.state = StateConfirm
	name := c.name
	if name == "" {
		name = "Anonymous"
	}
	c.out("=== POST PREVIEW ===")
	c.out("Name: " + name)
	c.out("Title: " + c.title)
	c.out("Content: " + c.content)
	if c.image != nil {
		c.out("Image: " + describeImage(c.image))
	} else {
		c.out("Image: None")
	}
	c.out("==================")
	c.out(promptConfirm)
}

// submit uploads the image, if any, then creates the post. On failure the
// flow stays in confirm so the user can answer y again.
func (c *Composer) submit(ctx context.Context) {
	if strings.TrimSpace(c.title) == "" || strings.TrimSpace(c.content) == "" {
		c.out("Error: Title and content are required!")
		return
	}
	if c.posts == nil {
		c.notConfigured()
		return
	}

	c.out("Creating post...")

	var imageURL string
	if c.image != nil {
		url, err := c.uploadImage(ctx)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "composer image upload failed", slog.String("error", err.Error()))
			c.out("Image upload failed. Posting without an image.")
		} else {
			imageURL = url
		}
	}

	post, err := c.posts.CreatePost(ctx, service.CreatePostInput{
		Name:     c.name,
		Title:    c.title,
		Content:  c.content,
		ImageURL: imageURL,
		Origin:   c.origin,
	})
	switch {
	case errors.Is(err, models.ErrNotConfigured):
		c.notConfigured()
		return
	case err != nil:
		middleware.Logger.WarnContext(ctx, "composer submit failed", slog.String("error", err.Error()))
		c.out("Error: Failed to create post. Please try again.")
		return
	}

	c.out("Post created successfully!")
	c.lastPost = post
	c.reset()
	c.state = StateSubmitted
	c.active = false
}

func (c *Composer) uploadImage(ctx context.Context) (string, error) {
	if c.images == nil {
		return "", models.NewNotConfiguredError()
	}
	obj, err := c.images.Upload(ctx, storage.UploadInput{
		Bucket:      storage.BucketPostImages,
		Key:         storage.PostImageKey(),
		ContentType: c.image.ContentType,
		Content:     c.image.Data,
	})
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

func (c *Composer) notConfigured() {
	c.out("Error: backend is not configured!")
	c.out("Please set up your environment variables first.")
}

func (c *Composer) reset() {
	c.state = StateName
	c.name, c.title, c.content = "", "", ""
	c.image = nil
}

func (c *Composer) in(text string)  { c.add(KindInput, text) }
func (c *Composer) out(text string) { c.add(KindOutput, text) }

func (c *Composer) add(kind, text string) {
	c.transcript = append(c.transcript, Line{Kind: kind, Text: text, At: c.now()})
}

func (c *Composer) since(mark int) []Line {
	if mark > len(c.transcript) {
		mark = len(c.transcript)
	}
	out := make([]Line, len(c.transcript)-mark)
	copy(out, c.transcript[mark:])
	return out
}

func describeImage(img *Image) string {
	return fmt.Sprintf("%s (%.1f KB)", img.Name, float64(len(img.Data))/1024)
}
