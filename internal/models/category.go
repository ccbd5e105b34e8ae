package models

// DefaultCategoryColor is used when a category is created without an explicit color,
// including categories auto-created by a todo referencing an unseen name.
const DefaultCategoryColor = "#3B82F6"

type Category struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
}
