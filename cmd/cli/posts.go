package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage your posts",
	Long:  "Commands for listing your posts and flipping their publish state",
}

var listPostsUsername string

var listPostsCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPostsUsername == "" {
			return fmt.Errorf("--username is required")
		}
		return listPosts(listPostsUsername)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <post-id>",
	Short: "Publish a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublished(args[0], true)
	},
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish <post-id>",
	Short: "Turn a published post back into a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublished(args[0], false)
	},
}

var deletePostCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/posts/"+args[0], nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Println("✓ Post deleted")
		}
		return nil
	},
}

func init() {
	listPostsCmd.Flags().StringVar(&listPostsUsername, "username", "", "Username whose posts to list")

	postsCmd.AddCommand(listPostsCmd)
	postsCmd.AddCommand(publishCmd)
	postsCmd.AddCommand(unpublishCmd)
	postsCmd.AddCommand(deletePostCmd)
}

func listPosts(username string) error {
	body, err := apiRequest("GET", "/api/v1/profiles/"+username+"/posts", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Posts []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Published bool   `json:"published"`
			CreatedAt string `json:"created_at"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Posts) == 0 {
		fmt.Println("No posts")
		return nil
	}
	for _, p := range result.Posts {
		state := "published"
		if !p.Published {
			state = "draft"
		}
		fmt.Printf("%s  [%s]  %s\n", p.ID, state, p.Title)
	}
	return nil
}

func setPublished(postID string, published bool) error {
	payload := map[string]interface{}{"published": published}
	body, err := apiRequest("PATCH", "/api/v1/posts/"+postID, payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else if published {
		fmt.Println("✓ Post published")
	} else {
		fmt.Println("✓ Post unpublished")
	}
	return nil
}
