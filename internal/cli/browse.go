package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtroode/gallery-client/internal/api"
	"github.com/dtroode/gallery-client/internal/app"
	"github.com/dtroode/gallery-client/internal/form"
	"github.com/dtroode/gallery-client/internal/route"
)

func newOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a page and show where the guard lets you land",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			return open(ctx, a, cmd, args[0])
		}),
	}
}

func newImagesCommand() *cobra.Command {
	var opts api.ListOptions

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List the images in your gallery",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			return listImages(ctx, a, cmd, opts)
		}),
	}

	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "Number of images to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of images to show (backend default when 0)")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Only show images with this tag")

	return cmd
}

func newDeleteImageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-image <id>",
		Short: "Delete an image from your gallery",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			return deleteImage(ctx, a, cmd, args[0])
		}),
	}
}

func newPublicURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "public-url <id>",
		Short: "Print a shareable URL of an image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			return publicURL(ctx, a, cmd, args[0])
		}),
	}
}

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the pages and whether they need a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printRoutes(cmd, route.Default())
			return nil
		},
	}
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Keep one session open and run commands against it",
		Long: `shell keeps a single client running, the way a browser tab would.

Commands:
  open <path>
  login <email> <password>
  logout
  whoami
  images
  delete-image <id>
  public-url <id>
  routes
  quit`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			return runShell(ctx, a, cmd)
		}),
	}
}

func open(ctx context.Context, a *app.App, cmd *cobra.Command, path string) error {
	loc, r, err := a.Navigate(ctx, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", loc.FullPath(), r.Title)
	if loc.Path == route.PathLogin && path != loc.FullPath() {
		if to := loc.Query.Get(route.RedirectParam); to != "" {
			fmt.Fprintf(out, "Sign in to continue to %s\n", to)
		}
	}

	if r.Pattern == route.PathImage {
		_, params := a.Routes().Match(loc.Path)
		image, err := a.Image(ctx, params["id"])
		if err != nil {
			return err
		}
		printImage(cmd, image)
	}
	return nil
}

func listImages(ctx context.Context, a *app.App, cmd *cobra.Command, opts api.ListOptions) error {
	page, err := a.Images(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(page.Images) == 0 {
		fmt.Fprintln(out, "No images yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, img := range page.Images {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			img.ID,
			img.Filename,
			img.UploadedAt.Format(time.DateTime),
			img.AIProcessingStatus,
			strings.Join(img.Tags, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Page %d: %d of %d images\n", page.Page, page.Count, page.Total)
	return nil
}

func deleteImage(ctx context.Context, a *app.App, cmd *cobra.Command, id string) error {
	if err := a.DeleteImage(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}

func publicURL(ctx context.Context, a *app.App, cmd *cobra.Command, id string) error {
	image, err := a.PublicURL(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), image.URL)
	return nil
}

func printImage(cmd *cobra.Command, image api.Image) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", image.ID)
	fmt.Fprintf(out, "File:     %s\n", image.Filename)
	fmt.Fprintf(out, "Path:     %s\n", image.OriginalPath)
	fmt.Fprintf(out, "Uploaded: %s\n", image.UploadedAt.Format(time.DateTime))
	fmt.Fprintf(out, "Status:   %s\n", image.AIProcessingStatus)
	if image.Description != "" {
		fmt.Fprintf(out, "About:    %s\n", image.Description)
	}
	if len(image.Tags) > 0 {
		fmt.Fprintf(out, "Tags:     %s\n", strings.Join(image.Tags, ", "))
	}
	if len(image.Colors) > 0 {
		fmt.Fprintf(out, "Colors:   %s\n", strings.Join(image.Colors, ", "))
	}
}

func printRoutes(cmd *cobra.Command, table *route.Table) {
	out := cmd.OutOrStdout()
	for _, r := range table.Routes() {
		access := "public"
		if r.RequiresAuth {
			access = "signed in"
		}
		fmt.Fprintf(out, "%-20s %-16s %s\n", r.Pattern, r.Title, access)
	}
}

func runShell(ctx context.Context, a *app.App, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "open":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: open <path>")
				break
			}
			err = open(ctx, a, cmd, fields[1])
		case "login":
			if len(fields) != 3 {
				err = fmt.Errorf("usage: login <email> <password>")
				break
			}
			var loc route.Location
			loc, err = a.Login(ctx, form.Login{Email: fields[1], Password: fields[2]})
			if err == nil {
				printSignedIn(cmd, a, loc)
			}
		case "logout":
			err = a.Logout(ctx)
			if err == nil {
				fmt.Fprintln(out, "Signed out.")
			}
		case "whoami":
			printState(cmd, a)
		case "images":
			err = listImages(ctx, a, cmd, api.ListOptions{})
		case "delete-image", "public-url":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: %s <id>", fields[0])
				break
			}
			if fields[0] == "delete-image" {
				err = deleteImage(ctx, a, cmd, fields[1])
			} else {
				err = publicURL(ctx, a, cmd, fields[1])
			}
		case "routes":
			printRoutes(cmd, a.Routes())
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}

		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
