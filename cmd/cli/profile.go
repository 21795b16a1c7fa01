package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
	Long:  "Commands for inspecting and updating your profile",
}

var getProfileCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile()
	},
}

var (
	updateDisplayName string
	updateBio         string
	updateLocation    string
	updateWebsite     string
)

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long:  "Update display name, bio, location, or website. Only flags you pass are changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]interface{}{}
		if cmd.Flags().Changed("display-name") {
			payload["display_name"] = updateDisplayName
		}
		if cmd.Flags().Changed("bio") {
			payload["bio"] = updateBio
		}
		if cmd.Flags().Changed("location") {
			payload["location"] = updateLocation
		}
		if cmd.Flags().Changed("website") {
			payload["website_url"] = updateWebsite
		}
		if len(payload) == 0 {
			return fmt.Errorf("no fields to update; pass at least one flag")
		}
		return updateProfile(payload)
	},
}

func init() {
	updateProfileCmd.Flags().StringVar(&updateDisplayName, "display-name", "", "Display name")
	updateProfileCmd.Flags().StringVar(&updateBio, "bio", "", "Bio text")
	updateProfileCmd.Flags().StringVar(&updateLocation, "location", "", "Location")
	updateProfileCmd.Flags().StringVar(&updateWebsite, "website", "", "Website URL")

	profileCmd.AddCommand(getProfileCmd)
	profileCmd.AddCommand(updateProfileCmd)
}

func getProfile() error {
	body, err := apiRequest("GET", "/api/v1/auth/me", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		User struct {
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			Bio         string `json:"bio"`
			Location    string `json:"location"`
			WebsiteURL  string `json:"website_url"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Username:     %s\n", result.User.Username)
	fmt.Printf("Display name: %s\n", result.User.DisplayName)
	fmt.Printf("Bio:          %s\n", result.User.Bio)
	fmt.Printf("Location:     %s\n", result.User.Location)
	fmt.Printf("Website:      %s\n", result.User.WebsiteURL)
	return nil
}

func updateProfile(payload map[string]interface{}) error {
	body, err := apiRequest("PATCH", "/api/v1/users/me", payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else {
		fmt.Println("✓ Profile updated")
	}
	return nil
}
