package store

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/nurbekov/csvtodo/internal/metrics"
	"github.com/nurbekov/csvtodo/internal/models"
)

const categoriesFile = "categories.csv"

var categoryColumns = []string{"id", "user_id", "name", "description", "color"}

// colorPattern matches a hex color like #3B82F6.
var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func encodeCategory(c models.Category) []string {
	return []string{c.ID, c.UserID, c.Name, encodeStringPtr(c.Description), c.Color}
}

func decodeCategory(rec []string) models.Category {
	color := rec[4]
	if color == "" {
		color = models.DefaultCategoryColor
	}
	return models.Category{
		ID:          rec[0],
		UserID:      rec[1],
		Name:        rec[2],
		Description: decodeStringPtr(rec[3]),
		Color:       color,
	}
}

func (s *Store) loadCategories() ([]models.Category, error) {
	rows, err := readRows(s.path(categoriesFile), categoryColumns)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(rows))
	for _, rec := range rows {
		categories = append(categories, decodeCategory(rec))
	}
	return categories, nil
}

func (s *Store) saveCategories(categories []models.Category) error {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, encodeCategory(c))
	}
	return writeRows(s.path(categoriesFile), categoryColumns, rows)
}

// CreateCategory inserts a new category for userID. The (user_id, name) pair
// must be unique; violations return ErrDuplicateKey. An empty color falls
// back to the default.
func (s *Store) CreateCategory(userID, name string, description *string, color string) (models.Category, error) {
	if userID == "" {
		return models.Category{}, errors.New("store: user id is required")
	}
	if name == "" {
		return models.Category{}, errors.New("store: name is required")
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}
	if !colorPattern.MatchString(color) {
		return models.Category{}, fmt.Errorf("store: invalid color %q", color)
	}

	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	metrics.RecordStoreOp("categories", "create")

	categories, err := s.loadCategories()
	if err != nil {
		return models.Category{}, err
	}
	taken := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.UserID == userID && c.Name == name {
			return models.Category{}, fmt.Errorf("%w: category %q already exists", ErrDuplicateKey, name)
		}
		taken[c.ID] = true
	}

	category := models.Category{
		ID:          newID(taken),
		UserID:      userID,
		Name:        name,
		Description: description,
		Color:       color,
	}
	categories = append(categories, category)
	if err := s.saveCategories(categories); err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// ensureCategory creates the (userID, name) category when it does not exist
// yet. Called from CreateTodo; takes the categories mutex itself, so the
// caller must not hold it.
func (s *Store) ensureCategory(userID, name string) error {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()

	categories, err := s.loadCategories()
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.UserID == userID && c.Name == name {
			return nil
		}
		taken[c.ID] = true
	}
	categories = append(categories, models.Category{
		ID:     newID(taken),
		UserID: userID,
		Name:   name,
		Color:  models.DefaultCategoryColor,
	})
	return s.saveCategories(categories)
}

// GetCategoriesByUser returns all categories owned by userID.
func (s *Store) GetCategoriesByUser(userID string) ([]models.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	metrics.RecordStoreOp("categories", "list")

	categories, err := s.loadCategories()
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCategory merges the given fields (name, description, color) into the
// category scoped by (id, userID). Returns ErrNotFound when absent,
// ErrDuplicateKey when a rename collides with another of the user's
// categories.
func (s *Store) UpdateCategory(id, userID string, fields map[string]any) (models.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	metrics.RecordStoreOp("categories", "update")

	categories, err := s.loadCategories()
	if err != nil {
		return models.Category{}, err
	}
	idx := -1
	for i, c := range categories {
		if c.ID == id && c.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}

	c := categories[idx]
	for key, val := range fields {
		switch key {
		case "id", "user_id":
			// immutable
		case "name":
			name, ok := val.(string)
			if !ok || name == "" {
				return models.Category{}, errors.New("store: name must be a non-empty string")
			}
			for i, other := range categories {
				if i != idx && other.UserID == userID && other.Name == name {
					return models.Category{}, fmt.Errorf("%w: category %q already exists", ErrDuplicateKey, name)
				}
			}
			c.Name = name
		case "description":
			switch v := val.(type) {
			case nil:
				c.Description = nil
			case string:
				c.Description = decodeStringPtr(v)
			default:
				return models.Category{}, errors.New("store: description must be a string or null")
			}
		case "color":
			color, ok := val.(string)
			if !ok || !colorPattern.MatchString(color) {
				return models.Category{}, fmt.Errorf("store: invalid color %v", val)
			}
			c.Color = color
		}
	}

	categories[idx] = c
	if err := s.saveCategories(categories); err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes the category scoped by (id, userID) and reports
// whether a row was deleted. Todos keep their free-text category label.
func (s *Store) DeleteCategory(id, userID string) (bool, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	metrics.RecordStoreOp("categories", "delete")

	categories, err := s.loadCategories()
	if err != nil {
		return false, err
	}
	kept := categories[:0:0]
	for _, c := range categories {
		if c.ID == id && c.UserID == userID {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == len(categories) {
		return false, nil
	}
	if err := s.saveCategories(kept); err != nil {
		return false, err
	}
	return true, nil
}
