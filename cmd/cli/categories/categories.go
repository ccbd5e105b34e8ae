package categories

import (
	"fmt"
	"net/http"

	"github.com/nurbekov/csvtodo/cmd/cli/client"
	"github.com/nurbekov/csvtodo/cmd/cli/config"
	"github.com/nurbekov/csvtodo/cmd/cli/output"
	"github.com/nurbekov/csvtodo/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Categories
// ==========================
func InitCategories(rootCmd *cobra.Command) {

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}

	categoriesCmd.AddCommand(
		listCategoriesCmd(),
		createCategoryCmd(),
	)

	rootCmd.AddCommand(categoriesCmd)
}

// ==========================
// LIST
// ==========================
func listCategoriesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			var categories []models.Category
			if err := client.Do(http.MethodGet, "/categories", token, nil, &categories); err != nil {
				fmt.Println(err)
				return
			}

			if asJSON {
				output.RenderJSON(categories)
				return
			}

			rows := make([][]interface{}, 0, len(categories))
			for _, c := range categories {
				desc := ""
				if c.Description != nil {
					desc = *c.Description
				}
				rows = append(rows, []interface{}{c.Name, c.Color, desc})
			}
			output.RenderTable([]string{"Name", "Color", "Description"}, rows)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createCategoryCmd() *cobra.Command {

	var name, description, color string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create category",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			payload := map[string]any{"name": name}
			if description != "" {
				payload["description"] = description
			}
			if color != "" {
				payload["color"] = color
			}

			var category models.Category
			if err := client.Do(http.MethodPost, "/categories", token, payload, &category); err != nil {
				fmt.Println(err)
				return
			}
			output.RenderJSON(category)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "category name")
	cmd.Flags().StringVar(&description, "description", "", "category description")
	cmd.Flags().StringVar(&color, "color", "", "hex color like #3B82F6")

	return cmd
}
