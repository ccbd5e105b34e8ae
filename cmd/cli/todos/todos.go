package todos

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nurbekov/csvtodo/cmd/cli/client"
	"github.com/nurbekov/csvtodo/cmd/cli/config"
	"github.com/nurbekov/csvtodo/cmd/cli/output"
	"github.com/nurbekov/csvtodo/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Todos
// ==========================
func InitTodos(rootCmd *cobra.Command) {

	todosCmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage todos",
	}

	todosCmd.AddCommand(
		listTodosCmd(),
		createTodoCmd(),
		toggleTodoCmd(),
		deleteTodoCmd(),
		findTodosCmd(),
	)

	rootCmd.AddCommand(todosCmd)
}

// ==========================
// LIST
// ==========================
func listTodosCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			var todos []models.Todo
			if err := client.Do(http.MethodGet, "/todos", token, nil, &todos); err != nil {
				fmt.Println(err)
				return
			}

			if asJSON {
				output.RenderJSON(todos)
				return
			}

			rows := make([][]interface{}, 0, len(todos))
			for _, t := range todos {
				due := ""
				if t.DueDate != nil {
					due = t.DueDate.Format(time.DateOnly)
				}
				done := " "
				if t.Completed {
					done = "x"
				}
				rows = append(rows, []interface{}{t.ID, done, t.Title, t.Priority, t.Category, due})
			}
			output.RenderTable([]string{"ID", "Done", "Title", "Priority", "Category", "Due"}, rows)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createTodoCmd() *cobra.Command {

	var title, description, priority, due, category string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create todo",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			payload := map[string]any{"title": title}
			if description != "" {
				payload["description"] = description
			}
			if priority != "" {
				payload["priority"] = priority
			}
			if due != "" {
				payload["due_date"] = due
			}
			if category != "" {
				payload["category"] = category
			}

			var todo models.Todo
			if err := client.Do(http.MethodPost, "/todos", token, payload, &todo); err != nil {
				fmt.Println(err)
				return
			}
			output.RenderJSON(todo)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "todo title")
	cmd.Flags().StringVar(&description, "description", "", "todo description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date (RFC 3339)")
	cmd.Flags().StringVar(&category, "category", "", "category name")

	return cmd
}

// ==========================
// TOGGLE
// ==========================
func toggleTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Toggle todo completion",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			var todo models.Todo
			if err := client.Do(http.MethodPost, "/todos/"+args[0]+"/toggle", token, nil, &todo); err != nil {
				fmt.Println(err)
				return
			}
			fmt.Printf("Todo %d completed=%v\n", todo.ID, todo.Completed)
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete todo",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			if err := client.Do(http.MethodDelete, "/todos/"+args[0], token, nil, nil); err != nil {
				fmt.Println("Failed to delete todo:", err)
				return
			}
			fmt.Println("Todo deleted")
		},
	}
}

// ==========================
// FIND (goes through the tool-dispatch endpoint)
// ==========================
func findTodosCmd() *cobra.Command {
	var exact bool

	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Find todos by title",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			var matches []struct {
				ID    int    `json:"id"`
				Title string `json:"title"`
			}
			params := map[string]any{"query": args[0], "exact": exact}
			if err := client.RPC(token, "todos.findByTitle", params, &matches); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []interface{}{m.ID, m.Title})
			}
			output.RenderTable([]string{"ID", "Title"}, rows)
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "exact title match")
	return cmd
}
