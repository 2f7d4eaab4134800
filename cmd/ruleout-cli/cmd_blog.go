package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ruleout-server/internal/domain/blog"
	"ruleout-server/internal/infrastructure/database/repository/blogrepo"
)

var blogCmd = &cobra.Command{
	Use:   "blog",
	Short: "Blog content administration",
	Long:  `Import, list and remove the blog posts served on /v1/blog.`,
}

var blogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Upsert posts from a YAML file",
	Long: `Import posts from a YAML file. Posts are matched by slug: existing
ones are updated, new ones created. The whole file is rejected when any post
is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runBlogImport,
}

var blogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts, newest first",
	RunE:  runBlogList,
}

var blogCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete every post",
	RunE:  runBlogCleanup,
}

var blogDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete one post",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlogDelete,
}

var blogSetImageCmd = &cobra.Command{
	Use:   "set-image <slug> <url>",
	Short: "Replace the hero image of a post",
	Args:  cobra.ExactArgs(2),
	RunE:  runBlogSetImage,
}

func init() {
	blogCmd.AddCommand(blogImportCmd)
	blogCmd.AddCommand(blogListCmd)
	blogCmd.AddCommand(blogCleanupCmd)
	blogCmd.AddCommand(blogDeleteCmd)
	blogCmd.AddCommand(blogSetImageCmd)

	blogListCmd.Flags().String("category", "", "Only list posts of this category")
	blogCleanupCmd.Flags().Bool("yes", false, "Confirm deleting all posts")
}

func openBlog(cmd *cobra.Command) (*blog.Service, *runtimeEnv, error) {
	rt, err := openRuntime(cmd)
	if err != nil {
		return nil, nil, err
	}
	return blog.NewService(blogrepo.NewBlogGormRepository(rt.db), rt.log), rt, nil
}

func runBlogImport(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	// Parse before connecting so a bad file fails fast.
	posts, err := blog.ParseImport(file)
	if err != nil {
		return err
	}

	svc, rt, err := openBlog(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := svc.Import(cmd.Context(), posts)
	if err != nil {
		return fmt.Errorf("import posts: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts (%d created, %d updated)\n", result.Created+result.Updated, result.Created, result.Updated)
	return nil
}

func runBlogList(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	svc, rt, err := openBlog(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	posts, err := svc.List(cmd.Context(), category)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	return writePostTable(cmd, posts)
}

func runBlogCleanup(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("refusing to delete all posts without --yes")
	}

	svc, rt, err := openBlog(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := svc.Cleanup(cmd.Context())
	if err != nil {
		return fmt.Errorf("cleanup posts: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d posts\n", n)
	return nil
}

func runBlogDelete(cmd *cobra.Command, args []string) error {
	svc, rt, err := openBlog(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := svc.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete post %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runBlogSetImage(cmd *cobra.Command, args []string) error {
	svc, rt, err := openBlog(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := svc.SetImage(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("set image of %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated image of %s\n", args[0])
	return nil
}

func writePostTable(cmd *cobra.Command, posts []*blog.Post) error {
	if len(posts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No posts")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tDATE\tCATEGORY\tFEATURED\tTITLE")
	for _, p := range posts {
		featured := ""
		if p.IsFeatured {
			featured = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Slug, p.Date.Format("2006-01-02"), p.Category, featured, p.Title)
	}
	return w.Flush()
}
