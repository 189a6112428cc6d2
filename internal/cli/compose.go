package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"sudonet/internal/composer"
	"sudonet/internal/service"
)

const composePrompt = "post> "

// handleCompose runs the post composer on the terminal until it submits or
// exits. "attach <file>" supplies the image at the upload step.
func (c *CLI) handleCompose(ctx context.Context) error {
	comp := composer.New(c.svc.Posts, c.svc.Store, composer.WithOrigin(service.OriginCLI))
	c.printLines(comp.Start())

	c.rl.SetPrompt(composePrompt)
	defer c.rl.SetPrompt(c.Prompt())

	for comp.Active() {
		line, err := c.rl.Readline()
		switch {
		case IsInterrupt(err):
			c.println(`Type "exit" to leave the composer.`)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		path, isAttach := strings.CutPrefix(strings.TrimSpace(line), "attach ")
		if isAttach && comp.State() == composer.StateImageUpload {
			img, err := readImage(strings.TrimSpace(path))
			if err != nil {
				c.printf("Error: %s\n", err)
				continue
			}
			lines, err := comp.Attach(img)
			if err != nil {
				c.printf("Error: %s\n", Describe(err))
				continue
			}
			c.printLines(lines)
			continue
		}

		lines, err := comp.Input(ctx, line)
		if err != nil {
			return err
		}
		c.printLines(lines)
	}

	if post := comp.LastPost(); post != nil {
		c.printf("Post id: %s\n", post.ID)
	}
	return nil
}

func (c *CLI) printLines(lines []composer.Line) {
	for _, l := range lines {
		if l.Kind == composer.KindInput {
			continue
		}
		c.println(l.Text)
	}
}

func readImage(path string) (composer.Image, error) {
	if path == "" {
		return composer.Image{}, fmt.Errorf("usage: attach <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return composer.Image{}, fmt.Errorf("read image: %w", err)
	}
	return composer.Image{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
