package main

import (
	"github.com/nurbekov/csvtodo/cmd/cli/auth"
	"github.com/nurbekov/csvtodo/cmd/cli/categories"
	"github.com/nurbekov/csvtodo/cmd/cli/root"
	"github.com/nurbekov/csvtodo/cmd/cli/todos"
)

func main() {
	auth.InitAuth(root.RootCmd)
	todos.InitTodos(root.RootCmd)
	categories.InitCategories(root.RootCmd)
	root.Execute()
}
