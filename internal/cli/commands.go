package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"sudonet/internal/models"
	"sudonet/internal/service"
)

func (c *CLI) handleRegister(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: register <name> <username> [archetype]")
	}
	in := service.RegisterInput{Name: args[0], Username: args[1]}
	if len(args) > 2 {
		in.Archetype = args[2]
	}

	password, err := c.rl.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := c.rl.ReadPassword("Confirm password: ")
	if err != nil {
		return err
	}
	in.Password, in.ConfirmPassword = string(password), string(confirm)

	res, err := c.svc.Credentials.Register(ctx, in)
	if err != nil {
		return err
	}
	if err := c.session.Set(res.Identity); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.printf("Welcome to the net, %s.\n", res.User.Name)
	return nil
}

func (c *CLI) handleLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: login <username>")
	}
	password, err := c.rl.ReadPassword("Password: ")
	if err != nil {
		return err
	}

	res, err := c.svc.Credentials.Login(ctx, args[0], string(password))
	if err != nil {
		return err
	}
	if err := c.session.Set(res.Identity); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.printf("Jacked in as %s.\n", res.User.Name)
	return nil
}

func (c *CLI) handleLogout(ctx context.Context) error {
	id := c.session.Get()
	if !id.Authenticated() {
		c.println("Not signed in.")
		return nil
	}
	if err := c.svc.Credentials.Logout(ctx, id); err != nil {
		return err
	}
	if err := c.session.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.println("Signed out.")
	return nil
}

func (c *CLI) handleWhoami(ctx context.Context) error {
	id := c.session.Get()
	if !id.Authenticated() {
		c.println("guest")
		return nil
	}
	user, err := c.svc.Credentials.CurrentUser(ctx, id)
	if err != nil {
		return err
	}
	c.printf("%s (%s)\n", user.Name, user.ID)
	return nil
}

type feedOptions struct {
	kind  string
	query service.FeedQuery
	watch bool
}

func parseFeedArgs(args []string) (feedOptions, error) {
	opts := feedOptions{kind: "trending"}
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "trending", "recent":
			opts.kind = arg
		case "--watch", "-w":
			opts.watch = true
		case "--period":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--period needs a value")
			}
			i++
			opts.query.Period = args[i]
		case "--limit":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--limit needs a value")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				return opts, fmt.Errorf("invalid limit: %s", args[i])
			}
			opts.query.Limit = n
		default:
			return opts, fmt.Errorf("unknown feed option: %s", arg)
		}
	}
	return opts, nil
}

func (c *CLI) handleFeed(ctx context.Context, args []string) error {
	opts, err := parseFeedArgs(args)
	if err != nil {
		return err
	}
	if !opts.watch {
		return c.printFeed(ctx, opts)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return c.watchFeed(ctx, opts)
}

// watchFeed re-prints the feed on every posts change until ctx is done.
func (c *CLI) watchFeed(ctx context.Context, opts feedOptions) error {
	changed := make(chan struct{}, 1)
	err := c.svc.Notifier.Subscribe(ctx, func(string, string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	if !c.svc.Realtime {
		c.println("(no Redis configured: only changes made by this client will show up)")
	}

	if err := c.printFeed(ctx, opts); err != nil {
		return err
	}
	c.println("Watching for changes, Ctrl-C to stop.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			c.println()
			if err := c.printFeed(ctx, opts); err != nil {
				c.printf("Error: %s\n", Describe(err))
			}
		}
	}
}

func (c *CLI) printFeed(ctx context.Context, opts feedOptions) error {
	var (
		res *service.FeedResult
		err error
	)
	if opts.kind == "recent" {
		res, err = c.svc.Feed.Recent(ctx, opts.query)
	} else {
		res, err = c.svc.Feed.Trending(ctx, opts.query)
	}
	if err != nil {
		return err
	}
	if !res.Configured {
		c.println("Backend is not configured; the feed is empty.")
		return nil
	}

	c.printf("=== %s ===\n", strings.ToUpper(opts.kind))
	if len(res.Posts) == 0 {
		c.println("No posts yet.")
		return nil
	}
	for i, p := range res.Posts {
		c.printf("%2d. %s\n", i+1, formatPostLine(p))
	}
	return nil
}

func formatPostLine(p *models.Post) string {
	return fmt.Sprintf("%s  by %s  [creds %d | comments %d | views %d]  %s",
		p.Title, authorName(p.Name), p.StreetCredsCount, p.CommentsCount, p.ViewsCount, p.ID)
}

func authorName(name *string) string {
	if name == nil || *name == "" {
		return "Anonymous"
	}
	return *name
}

func (c *CLI) handleSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <query>")
	}
	res, err := c.svc.Feed.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	c.printf("Posts (%d):\n", len(res.Posts))
	for _, p := range res.Posts {
		c.printf("  %s\n", formatPostLine(p))
	}
	c.printf("Profiles (%d):\n", len(res.Profiles))
	for _, p := range res.Profiles {
		c.printf("  %s\n", p.Username)
	}
	return nil
}

func (c *CLI) handleShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <post-id>")
	}
	post, err := c.svc.Posts.TrackView(ctx, args[0])
	if err != nil {
		return err
	}
	comments, err := c.svc.Comments.ListComments(ctx, post.ID)
	if err != nil {
		return err
	}

	c.printf("%s\nby %s, %s\n\n%s\n", post.Title, authorName(post.Name),
		post.CreatedAt.Local().Format(time.DateTime), post.Content)
	if post.ImageURL != nil {
		c.printf("\nImage: %s\n", *post.ImageURL)
	}
	c.printf("\n[creds %d | comments %d | views %d]\n",
		post.StreetCredsCount, post.CommentsCount, post.ViewsCount)
	for _, cm := range comments {
		c.printf("  > %s: %s\n", authorName(cm.Name), cm.Content)
	}
	return nil
}

// requester identifies this client for street creds.
func (c *CLI) requester() string {
	return c.svc.Fingerprinter.Requester("", "cli", c.device)
}

func (c *CLI) handleCred(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cred <post-id>")
	}
	res, err := c.svc.StreetCreds.Toggle(ctx, args[0], c.requester())
	if err != nil {
		return err
	}
	if res.Marked {
		c.printf("Street cred given. Total: %d\n", res.Count)
	} else {
		c.printf("Street cred taken back. Total: %d\n", res.Count)
	}
	return nil
}

func (c *CLI) handleComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: comment <post-id> <text>")
	}
	var name string
	if id := c.session.Get(); id.Authenticated() {
		name = id.Name
	}
	_, err := c.svc.Comments.CreateComment(ctx, service.CreateCommentInput{
		PostID:  args[0],
		Name:    name,
		Content: strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	c.println("Comment posted.")
	return nil
}

func (c *CLI) handleProfile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: profile <handle>")
	}
	view, err := c.svc.Profiles.Resolve(ctx, c.session.Get(), args[0])
	if err != nil {
		return err
	}

	switch view.Outcome {
	case service.OutcomeNotFound:
		c.printf("Profile not found (%s).\n", view.Diagnostic)
		return nil
	case service.OutcomeRedirect:
		c.printf("You have no profile yet. Set one up at %s\n", view.EditURL)
		return nil
	}

	p := view.Profile
	c.printf("=== %s ===\n", p.Username)
	if view.ArchetypeInfo != nil {
		c.printf("Archetype: %s\n", view.ArchetypeInfo.Label)
	}
	printOptional := func(label string, v *string) {
		if v != nil && *v != "" {
			c.printf("%s: %s\n", label, *v)
		}
	}
	printOptional("Bio", p.Bio)
	printOptional("About", p.About)
	printOptional("City", p.City)
	printOptional("Country", p.Country)
	printOptional("GitHub", p.GithubURL)
	printOptional("LinkedIn", p.LinkedinURL)
	printOptional("Twitter", p.TwitterURL)
	if view.IsOwn {
		c.println("(this is you)")
	}
	return nil
}
